package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"erp/portal/internal/chat"
)

type chatSendRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChatThread(w http.ResponseWriter, r *http.Request) {
	sid, sess := sessionFromContext(r.Context())
	room := chi.URLParam(r, "room")
	thread := s.chats.Thread(sid, room)
	history, err := sess.Client().ListChatMessages(r.Context(), room)
	if err != nil {
		writeFailure(w, err)
		return
	}
	thread.Load(history)
	writeJSON(w, http.StatusOK, thread.Messages())
}

// handleChatSend accepts JSON text messages and multipart messages with an
// attached file.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	sid, sess := sessionFromContext(r.Context())
	user, _ := sess.User()

	var (
		text       string
		attachment *chat.Attachment
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_upload")
			return
		}
		text = trimmed(r.FormValue("text"))
		if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
			f, err := headers[0].Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_upload")
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
			_ = f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_upload")
				return
			}
			attachment = &chat.Attachment{
				Filename:    headers[0].Filename,
				ContentType: headers[0].Header.Get("Content-Type"),
				Data:        data,
			}
		}
	} else {
		var req chatSendRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		text = trimmed(req.Text)
	}

	thread := s.chats.Thread(sid, chi.URLParam(r, "room"))
	entry, err := thread.Send(r.Context(), sess.Client(), user.ID, text, attachment)
	writeChatResult(w, entry, err)
}

func (s *Server) handleChatRetry(w http.ResponseWriter, r *http.Request) {
	sid, sess := sessionFromContext(r.Context())
	thread := s.chats.Thread(sid, chi.URLParam(r, "room"))
	entry, err := thread.Retry(r.Context(), sess.Client(), chi.URLParam(r, "clientId"))
	writeChatResult(w, entry, err)
}

// A failed send still returns the entry so the browser can offer a retry.
func writeChatResult(w http.ResponseWriter, entry chat.Entry, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, entry)
	case entry.Status == chat.StatusFailed:
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   "send_failed",
			"message": entry.Error,
			"entry":   entry,
		})
	default:
		writeFailure(w, err)
	}
}
