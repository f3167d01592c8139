package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListChatRooms(ctx context.Context) ([]model.ChatRoom, error) {
	var rooms []model.ChatRoom
	err := c.do(ctx, "list_chat_rooms", http.MethodGet, "/chat/rooms", nil, &rooms)
	return rooms, err
}

func (c *Client) ListChatMessages(ctx context.Context, room string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := c.do(ctx, "list_chat_messages", http.MethodGet, "/chat/"+escape(room)+"/messages", nil, &messages)
	return messages, err
}

// SendChatMessage posts a message; the backend echoes client_id back so the
// sender can match it to its pending copy.
func (c *Client) SendChatMessage(ctx context.Context, msg model.ChatMessage) (model.ChatMessage, error) {
	var created model.ChatMessage
	err := c.do(ctx, "send_chat_message", http.MethodPost, "/chat/"+escape(msg.Room)+"/messages", msg, &created)
	return created, err
}

type uploadResponse struct {
	FileURL string `json:"file_url"`
}

// UploadChatFile stores an attachment and returns its server URL.
func (c *Client) UploadChatFile(ctx context.Context, file Upload) (string, error) {
	file.Field = "file"
	var resp uploadResponse
	if err := c.doMultipart(ctx, "upload_chat_file", "/chat/upload", Form{Files: []Upload{file}}, &resp); err != nil {
		return "", err
	}
	if resp.FileURL == "" {
		return "", &Error{Op: "upload_chat_file", Kind: KindDecode, Message: "upload response missing file_url"}
	}
	return resp.FileURL, nil
}
