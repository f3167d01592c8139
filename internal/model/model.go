package model

import (
	"encoding/json"
	"strings"
)

// ID accepts both JSON strings and numbers; backend tables mix serial and
// uuid keys.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleDonor   Role = "donor"
)

// User is the identity held by a portal session. The profile fields are
// empty until the first profile refresh merges them in.
type User struct {
	ID              ID     `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Role            Role   `json:"role"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Gender          string `json:"gender,omitempty"`
	ClassGroup      string `json:"class_group,omitempty"`
	RollNo          string `json:"roll_no,omitempty"`
	AdmissionDate   string `json:"admission_date,omitempty"`
}

type Profile struct {
	ID              ID     `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Role            Role   `json:"role"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Gender          string `json:"gender,omitempty"`
	ClassGroup      string `json:"class_group,omitempty"`
	RollNo          string `json:"roll_no,omitempty"`
	AdmissionDate   string `json:"admission_date,omitempty"`
}

// Merge overlays the non-empty profile fields on the user.
func (u User) Merge(p Profile) User {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&u.Username, p.Username)
	set(&u.FullName, p.FullName)
	if p.Role != "" {
		u.Role = p.Role
	}
	set(&u.ProfileImageURL, p.ProfileImageURL)
	set(&u.Email, p.Email)
	set(&u.Phone, p.Phone)
	set(&u.Address, p.Address)
	set(&u.DOB, p.DOB)
	set(&u.Gender, p.Gender)
	set(&u.ClassGroup, p.ClassGroup)
	set(&u.RollNo, p.RollNo)
	set(&u.AdmissionDate, p.AdmissionDate)
	return u
}

// Profile returns the user fields in profile form.
func (u User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Username:        u.Username,
		FullName:        u.FullName,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
		Email:           u.Email,
		Phone:           u.Phone,
		Address:         u.Address,
		DOB:             u.DOB,
		Gender:          u.Gender,
		ClassGroup:      u.ClassGroup,
		RollNo:          u.RollNo,
		AdmissionDate:   u.AdmissionDate,
	}
}

// DisplayName prefers the full name, then the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return "User"
}

// OrNA renders optional display fields.
func OrNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
