package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"erp/portal/internal/auth"
	"erp/portal/internal/backend"
	"erp/portal/internal/bootstrap"
	"erp/portal/internal/chat"
	"erp/portal/internal/config"
	"erp/portal/internal/helpdesk"
	"erp/portal/internal/kitchen"
	"erp/portal/internal/model"
	"erp/portal/internal/session"
)

const sessionCookie = "erp_session"

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	loader   *bootstrap.Loader
	chats    *chat.Registry
	backend  *backend.Client
}

func NewServer(cfg config.Config, sessions *session.Manager, chats *chat.Registry, client *backend.Client) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		loader:   bootstrap.NewLoader(bootstrap.Screens()...),
		chats:    chats,
		backend:  client.WithToken(""),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)

		// The help desk and ads are reachable before login.
		r.Post("/suggestions", s.handleSubmitSuggestion)
		r.Get("/suggestions/mine", s.handleMySuggestions)
		r.Post("/suggestions/{id}/reply", s.handleReplySuggestion)
		r.Get("/ads/next", s.handleNextAd)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/notifications", s.handleListNotifications)
			r.Get("/notifications/unread", s.handleUnreadCount)
			r.Get("/notifications/stream", s.handleUnreadStream)
			r.Post("/notifications/{id}/read", s.handleMarkRead)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Get("/screens/{screen}", s.handleScreen)

			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Post("/gallery", s.handleUploadGallery)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Delete("/gallery/{id}", s.handleDeleteGallery)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Post("/kitchen/inventory", s.handleAddInventory)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Post("/kitchen/usage", s.handleRecordUsage)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Post("/labs", s.handleCreateLab)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Put("/labs/{id}", s.handleUpdateLab)
			r.With(requireRole(model.RoleAdmin, model.RoleTeacher)).Delete("/labs/{id}", s.handleDeleteLab)
			r.With(requireRole(model.RoleStudent)).Post("/homework/{id}/submit", s.handleSubmitHomework)
			r.Get("/transport/routes", s.handleListRoutes)
			r.With(requireRole(model.RoleAdmin)).Post("/transport/routes", s.handleCreateRoute)
			r.With(requireRole(model.RoleDonor)).Post("/donor/payment-proof", s.handlePaymentProof)

			r.Get("/chat/{room}", s.handleChatThread)
			r.Post("/chat/{room}/messages", s.handleChatSend)
			r.Post("/chat/{room}/messages/{clientId}/retry", s.handleChatRetry)
		})
	})

	if s.cfg.StaticDir != "" {
		r.NotFound(spaHandler(s.cfg.StaticDir).ServeHTTP)
	}

	return r
}

// Session

type sessionKey struct{}

type requestSession struct {
	id   string
	sess *session.Session
}

// sessionMiddleware resolves the portal session from the signed cookie. A
// missing or invalid cookie starts a fresh anonymous session.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			if claims, err := auth.ParseSessionToken(s.cfg.SessionSecret, s.cfg.SessionIssuer, cookie.Value); err == nil {
				sid = claims.SessionID
			}
		}
		if sid == "" {
			sid = session.NewID()
			if err := s.setSessionCookie(w, sid); err != nil {
				log.Printf("session cookie error: %v", err)
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
		}
		sess := s.sessions.Open(r.Context(), sid)
		ctx := context.WithValue(r.Context(), sessionKey{}, requestSession{id: sid, sess: sess})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sid string) error {
	token, err := auth.NewSessionToken(s.cfg.SessionSecret, s.cfg.SessionIssuer, s.cfg.SessionTTL, sid)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.SessionTTL),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func sessionFromContext(ctx context.Context) (string, *session.Session) {
	rs, _ := ctx.Value(sessionKey{}).(requestSession)
	return rs.id, rs.sess
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sess := sessionFromContext(r.Context())
		if sess == nil || !sess.Authenticated() {
			writeError(w, http.StatusUnauthorized, "missing_session")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sess := sessionFromContext(r.Context())
			user, ok := sess.User()
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing_session")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeFailure maps a domain or backend error to a response.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_cancelled")
		return
	case errors.Is(err, bootstrap.ErrUnknownScreen):
		writeError(w, http.StatusNotFound, "unknown_screen")
		return
	case errors.Is(err, bootstrap.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "missing_session")
		return
	case errors.Is(err, bootstrap.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, helpdesk.ErrNotTracked):
		writeError(w, http.StatusForbidden, "not_your_query")
		return
	case errors.Is(err, chat.ErrUnknownMessage):
		writeError(w, http.StatusNotFound, "unknown_message")
		return
	case errors.Is(err, chat.ErrNotFailed):
		writeError(w, http.StatusConflict, "message_not_failed")
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message")
		return
	}

	var be *backend.Error
	if !errors.As(err, &be) {
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	message := be.Message
	if errors.Is(err, kitchen.ErrLoad) {
		message = kitchen.ErrLoad.Error()
	}
	switch be.Kind {
	case backend.KindUnauthorized:
		writeErrorMessage(w, http.StatusUnauthorized, "backend_unauthorized", message)
	case backend.KindNotFound:
		writeErrorMessage(w, http.StatusNotFound, "not_found", message)
	case backend.KindRejected:
		writeErrorMessage(w, http.StatusBadRequest, "rejected", message)
	default:
		log.Printf("backend %s failed: %v", be.Op, err)
		writeErrorMessage(w, http.StatusBadGateway, "backend_unavailable", message)
	}
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
