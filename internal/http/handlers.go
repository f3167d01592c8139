package http

import (
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"erp/portal/internal/ads"
	"erp/portal/internal/backend"
	"erp/portal/internal/helpdesk"
	"erp/portal/internal/model"
	"erp/portal/internal/session"
	"erp/portal/internal/transport"
)

const maxUploadBytes = 20 << 20

// Auth

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	session.State
	AvatarURL string `json:"avatar_url"`
}

func stateResponse(sess *session.Session) sessionResponse {
	return sessionResponse{State: sess.State(), AvatarURL: sess.ProfileImageURL()}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if trimmed(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	user, token, err := s.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if backend.KindOf(err) == backend.KindUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeFailure(w, err)
		return
	}
	_, sess := sessionFromContext(r.Context())
	sess.Login(r.Context(), user, token)
	writeJSON(w, http.StatusOK, stateResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid, sess := sessionFromContext(r.Context())
	sess.Logout(r.Context())
	s.chats.Drop(sid)
	s.sessions.Forget(sid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, stateResponse(sess))
}

// Notifications

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	notifications, err := sess.Client().ListNotifications(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	sess.SetUnread(backend.CountUnread(notifications))
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": sess.Unread()})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	client := sess.Client()
	if err := client.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	if count, err := client.UnreadCount(r.Context()); err != nil {
		log.Printf("unread refresh failed: %v", err)
	} else {
		sess.SetUnread(count)
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": sess.Unread()})
}

// Profile and screens

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	user, _ := sess.User()
	profile, err := sess.Client().GetProfile(r.Context(), user.ID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	var profile model.Profile
	if err := decodeJSON(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	user, _ := sess.User()
	updated, err := sess.Client().UpdateProfile(r.Context(), user.ID, profile)
	if err != nil {
		writeFailure(w, err)
		return
	}
	sess.UpdateUser(r.Context(), updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	page, err := s.loader.Load(r.Context(), sess, chi.URLParam(r, "screen"), r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Gallery

func (s *Server) handleUploadGallery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	title := trimmed(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing_files")
		return
	}
	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	_, sess := sessionFromContext(r.Context())
	items, err := sess.Client().UploadGallery(r.Context(), title, trimmed(r.FormValue("event_date")), uploads)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

func (s *Server) handleDeleteGallery(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	if err := sess.Client().DeleteGalleryItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Kitchen

func (s *Server) handleAddInventory(w http.ResponseWriter, r *http.Request) {
	var item model.InventoryItem
	if err := decodeJSON(r, &item); err != nil || trimmed(item.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	created, err := sess.Client().AddInventory(r.Context(), item)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var record model.UsageRecord
	if err := decodeJSON(r, &record); err != nil || record.ItemID == "" || record.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	created, err := sess.Client().RecordUsage(r.Context(), record)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Labs

func (s *Server) handleCreateLab(w http.ResponseWriter, r *http.Request) {
	var lab model.Lab
	if err := decodeJSON(r, &lab); err != nil || trimmed(lab.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	created, err := sess.Client().CreateLab(r.Context(), lab)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateLab(w http.ResponseWriter, r *http.Request) {
	var lab model.Lab
	if err := decodeJSON(r, &lab); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	updated, err := sess.Client().UpdateLab(r.Context(), chi.URLParam(r, "id"), lab)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLab(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	if err := sess.Client().DeleteLab(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Homework

func (s *Server) handleSubmitHomework(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing_file")
		return
	}
	uploads, closeAll, err := openUploads(headers[:1])
	defer closeAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	_, sess := sessionFromContext(r.Context())
	user, _ := sess.User()
	submitted, err := sess.Client().SubmitHomework(r.Context(), chi.URLParam(r, "id"), user.ID, uploads[0])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitted)
}

// Transport

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	routes, err := sess.Client().ListRoutes(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transport.Search(routes, r.URL.Query().Get("q")))
}

func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var route model.Route
	if err := decodeJSON(r, &route); err != nil || trimmed(route.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	created, err := sess.Client().CreateRoute(r.Context(), route)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Help desk

func (s *Server) handleSubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	var suggestion model.Suggestion
	if err := decodeJSON(r, &suggestion); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if trimmed(suggestion.Subject) == "" || trimmed(suggestion.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	_, sess := sessionFromContext(r.Context())
	created, err := helpdesk.NewTracker(sess.Store()).Submit(r.Context(), sess.Client(), suggestion)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMySuggestions(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	mine, err := helpdesk.NewTracker(sess.Store()).Mine(r.Context(), sess.Client())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

type replyRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleReplySuggestion(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := decodeJSON(r, &req); err != nil || trimmed(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	_, sess := sessionFromContext(r.Context())
	repliedBy := "Visitor"
	if user, ok := sess.User(); ok {
		repliedBy = user.DisplayName()
	}
	reply, err := helpdesk.NewTracker(sess.Store()).Reply(r.Context(), sess.Client(), chi.URLParam(r, "id"), req.Message, repliedBy)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// Donor

func (s *Server) handlePaymentProof(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	amount, err := strconv.ParseFloat(trimmed(r.FormValue("amount")), 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	headers := r.MultipartForm.File["proof"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing_file")
		return
	}
	uploads, closeAll, err := openUploads(headers[:1])
	defer closeAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_upload")
		return
	}
	_, sess := sessionFromContext(r.Context())
	user, _ := sess.User()
	payment, err := sess.Client().SubmitPaymentProof(r.Context(), model.PaymentProof{
		DonorID: user.ID,
		Amount:  amount,
		Purpose: trimmed(r.FormValue("purpose")),
	}, uploads[0])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// Ads

func (s *Server) handleNextAd(w http.ResponseWriter, r *http.Request) {
	_, sess := sessionFromContext(r.Context())
	list, err := sess.Client().ListAds(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	ad, index, ok := ads.NewRotator(sess.Store()).Next(r.Context(), list)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ad": ad, "index": index})
}

// openUploads opens multipart files for forwarding. The returned close
// function is always safe to call.
func openUploads(headers []*multipart.FileHeader) ([]backend.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]backend.Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, closeAll, err
		}
		files = append(files, f)
		uploads = append(uploads, backend.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}
