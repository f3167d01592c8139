package homework

import (
	"strings"

	"erp/portal/internal/model"
)

const (
	Pending   = "Pending"
	Completed = "Completed"
)

// Filter keeps assignments matching status and query. Pending means no
// submission yet, Completed means one exists; any other status keeps both.
// The query is matched case-insensitively against title and subject.
func Filter(assignments []model.Assignment, status, query string) []model.Assignment {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		submitted := a.SubmissionID != ""
		if status == Pending && submitted {
			continue
		}
		if status == Completed && !submitted {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Title), query) &&
			!strings.Contains(strings.ToLower(a.Subject), query) {
			continue
		}
		out = append(out, a)
	}
	return out
}
