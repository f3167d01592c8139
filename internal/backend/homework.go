package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListStudentHomework(ctx context.Context, studentID model.ID, classGroup string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	path := "/homework/student/" + escape(studentID.String()) + "/" + escape(classGroup)
	err := c.do(ctx, "list_homework", http.MethodGet, path, nil, &assignments)
	return assignments, err
}

func (c *Client) SubmitHomework(ctx context.Context, homeworkID string, studentID model.ID, file Upload) (model.Assignment, error) {
	file.Field = "file"
	var submitted model.Assignment
	err := c.doMultipart(ctx, "submit_homework", "/homework/submit/"+escape(homeworkID), Form{
		Fields: map[string]string{"student_id": studentID.String()},
		Files:  []Upload{file},
	}, &submitted)
	return submitted, err
}
