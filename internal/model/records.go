package model

type Notification struct {
	ID        ID     `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at,omitempty"`
}

type GalleryItem struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	EventDate string `json:"event_date"`
	FileURL   string `json:"file_url"`
	MediaType string `json:"media_type,omitempty"`
}

type Album struct {
	Title string        `json:"title"`
	Date  string        `json:"date"`
	Items []GalleryItem `json:"items"`
}

type InventoryItem struct {
	ID        ID      `json:"id"`
	Name      string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	LowStock  bool    `json:"low_stock"`
}

type UsageRecord struct {
	ID       ID      `json:"id,omitempty"`
	ItemID   ID      `json:"item_id"`
	ItemName string  `json:"item_name,omitempty"`
	Quantity float64 `json:"quantity_used"`
	UsedOn   string  `json:"usage_date"`
	Notes    string  `json:"notes,omitempty"`
}

type PermanentItem struct {
	ID        ID     `json:"id"`
	Name      string `json:"item_name"`
	Count     int    `json:"total_quantity"`
	Condition string `json:"condition,omitempty"`
}

type Lab struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
	ClassGroup  string `json:"class_group,omitempty"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
}

type Assignment struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	Description  string `json:"description,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	SubmissionID ID     `json:"submission_id,omitempty"`
	SubmittedAt  string `json:"submitted_at,omitempty"`
}

type Stop struct {
	ID        ID      `json:"id,omitempty"`
	Name      string  `json:"stop_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Order     int     `json:"stop_order"`
}

type Route struct {
	ID         ID     `json:"id,omitempty"`
	Name       string `json:"route_name"`
	DriverName string `json:"driver_name,omitempty"`
	BusNumber  string `json:"bus_number,omitempty"`
	Stops      []Stop `json:"stops"`
}

type Suggestion struct {
	ID        ID      `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Email     string  `json:"email,omitempty"`
	Subject   string  `json:"subject"`
	Message   string  `json:"message"`
	Status    string  `json:"status,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	Replies   []Reply `json:"replies,omitempty"`
}

type Reply struct {
	ID           ID     `json:"id,omitempty"`
	SuggestionID ID     `json:"suggestion_id"`
	Message      string `json:"message"`
	RepliedBy    string `json:"replied_by,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type Payment struct {
	ID          ID      `json:"id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	Purpose     string  `json:"purpose,omitempty"`
	Status      string  `json:"status,omitempty"`
	ProofURL    string  `json:"proof_url,omitempty"`
}

type PaymentProof struct {
	DonorID ID      `json:"donor_id"`
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose,omitempty"`
}

type HealthRecord struct {
	ID         ID     `json:"id"`
	StudentID  ID     `json:"student_id"`
	RecordDate string `json:"record_date"`
	Height     string `json:"height,omitempty"`
	Weight     string `json:"weight,omitempty"`
	BloodGroup string `json:"blood_group,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type Ad struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
}

type ChatRoom struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type ChatMessage struct {
	ID        ID     `json:"id,omitempty"`
	Room      string `json:"room"`
	SenderID  ID     `json:"sender_id"`
	Text      string `json:"text,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
