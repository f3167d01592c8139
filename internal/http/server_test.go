package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"erp/portal/internal/backend"
	"erp/portal/internal/chat"
	"erp/portal/internal/config"
	"erp/portal/internal/session"
	"erp/portal/internal/storage"
)

type fakeERP struct {
	mu          sync.Mutex
	suggestions int
	chatSent    []map[string]interface{}
}

func (f *fakeERP) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid username or password"}`)
			return
		}
		role := "student"
		if req["username"] == "admin" {
			role = "admin"
		}
		_, _ = io.WriteString(w, `{"user":{"id":1,"username":"`+req["username"]+`","full_name":"Test User","role":"`+role+`"},"token":"tok-`+req["username"]+`"}`)
	})
	mux.HandleFunc("/api/profiles/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":1,"email":"test@school.local","class_group":"8B"}`)
	})
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"message":"Fee due","is_read":false},{"id":2,"message":"Holiday","is_read":true}]`)
	})
	mux.HandleFunc("/api/gallery", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"gallery missing"}`)
	})
	mux.HandleFunc("/api/ads", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"title":"Book fair"},{"id":2,"title":"Sports camp"}]`)
	})
	mux.HandleFunc("/api/suggestions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.suggestions++
		id := f.suggestions
		f.mu.Unlock()
		var s map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&s)
		s["id"] = id
		_ = json.NewEncoder(w).Encode(s)
	})
	mux.HandleFunc("/api/suggestions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/suggestions/")
		_, _ = io.WriteString(w, `{"id":`+id+`,"subject":"Bus timing","message":"late","status":"open"}`)
	})
	mux.HandleFunc("/api/chat/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upload parse: %v", err)
		}
		_, _ = io.WriteString(w, `{"file_url":"/uploads/chat/photo.png"}`)
	})
	mux.HandleFunc("/api/chat/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `[{"id":50,"room":"8B","sender_id":2,"text":"hi all"}]`)
			return
		}
		var msg map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		f.mu.Lock()
		f.chatSent = append(f.chatSent, msg)
		f.mu.Unlock()
		msg["id"] = 51
		_ = json.NewEncoder(w).Encode(msg)
	})
	return mux
}

func (f *fakeERP) sentMessages() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.chatSent...)
}

type testApp struct {
	url      string
	client   *http.Client
	sessions *session.Manager
	erp      *fakeERP
}

func newTestApp(t *testing.T, staticDir string) *testApp {
	t.Helper()
	erp := &fakeERP{}
	backendSrv := httptest.NewServer(erp.handler(t))
	t.Cleanup(backendSrv.Close)

	cfg := config.Config{
		SessionSecret:     "test-secret",
		SessionIssuer:     "test-portal",
		SessionTTL:        time.Hour,
		PlaceholderAvatar: "/assets/images/default-avatar.png",
		MediaBaseURL:      "http://media.local",
		StaticDir:         staticDir,
	}
	client := backend.New(backendSrv.URL+"/api", backendSrv.Client())
	sessions := session.NewManager(storage.NewMemory(), client, session.Options{
		MediaBaseURL:      cfg.MediaBaseURL,
		PlaceholderAvatar: cfg.PlaceholderAvatar,
	}, time.Hour)
	t.Cleanup(sessions.Close)

	server := NewServer(cfg, sessions, chat.NewRegistry(time.Hour), client)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testApp{url: app.URL, client: &http.Client{Jar: jar}, sessions: sessions, erp: erp}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, a.url+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(t, req)
}

func (a *testApp) send(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp, out
}

func (a *testApp) login(t *testing.T, username string) {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/login", map[string]string{"username": username, "password": "pw"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", resp.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "")
	resp, body := app.do(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health %d %v", resp.StatusCode, body)
	}
}

func TestLoginSessionLogoutFlow(t *testing.T) {
	app := newTestApp(t, "")

	resp, body := app.do(t, http.MethodGet, "/api/session", nil)
	if resp.StatusCode != http.StatusOK || body["authenticated"] != false {
		t.Fatalf("expected anonymous session, got %d %v", resp.StatusCode, body)
	}
	if body["avatar_url"] != "/assets/images/default-avatar.png" {
		t.Fatalf("expected placeholder avatar, got %v", body["avatar_url"])
	}

	resp, _ = app.do(t, http.MethodGet, "/api/notifications", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.StatusCode)
	}

	resp, body = app.do(t, http.MethodPost, "/api/login", map[string]string{"username": "asha", "password": "pw"})
	if resp.StatusCode != http.StatusOK || body["authenticated"] != true {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}
	if _, leaked := body["token"]; leaked {
		t.Fatalf("backend token must not reach the browser")
	}
	user := body["user"].(map[string]interface{})
	if user["email"] != "test@school.local" {
		t.Fatalf("expected merged profile on login, got %v", user)
	}

	resp, body = app.do(t, http.MethodGet, "/api/screens/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d %v", resp.StatusCode, body)
	}
	header := body["header"].(map[string]interface{})
	if header["display_name"] != "Test User" {
		t.Fatalf("unexpected header %v", header)
	}
	data := body["data"].(map[string]interface{})
	if data["unread"] != float64(1) {
		t.Fatalf("expected 1 unread on dashboard, got %v", data["unread"])
	}

	resp, body = app.do(t, http.MethodGet, "/api/notifications", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: %d %v", resp.StatusCode, body)
	}
	resp, body = app.do(t, http.MethodGet, "/api/notifications/unread", nil)
	if resp.StatusCode != http.StatusOK || body["unread_count"] != float64(1) {
		t.Fatalf("expected unread 1, got %d %v", resp.StatusCode, body)
	}

	resp, _ = app.do(t, http.MethodPost, "/api/logout", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	resp, body = app.do(t, http.MethodGet, "/api/session", nil)
	if body["authenticated"] != false {
		t.Fatalf("expected logged out session, got %v", body)
	}
	resp, _ = app.do(t, http.MethodGet, "/api/screens/dashboard", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestSessionSurvivesEviction(t *testing.T) {
	app := newTestApp(t, "")
	app.login(t, "asha")

	if evicted := app.sessions.Sweep(time.Now().Add(2 * time.Hour)); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	_, body := app.do(t, http.MethodGet, "/api/session", nil)
	if body["authenticated"] != true {
		t.Fatalf("expected session restored from storage, got %v", body)
	}
}

func TestLoginRejected(t *testing.T) {
	app := newTestApp(t, "")
	resp, body := app.do(t, http.MethodPost, "/api/login", map[string]string{"username": "asha", "password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %d %v", resp.StatusCode, body)
	}
	resp, body = app.do(t, http.MethodPost, "/api/login", map[string]string{"username": " "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, body)
	}
}

func TestForgedCookieStartsFreshSession(t *testing.T) {
	app := newTestApp(t, "")
	app.login(t, "asha")

	req, _ := http.NewRequest(http.MethodGet, app.url+"/api/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-token"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["authenticated"] != false {
		t.Fatalf("forged cookie must not reach an existing session")
	}
	if len(resp.Cookies()) == 0 {
		t.Fatalf("expected a new session cookie")
	}
}

func TestRoleAndErrorMapping(t *testing.T) {
	app := newTestApp(t, "")
	app.login(t, "asha")

	resp, body := app.do(t, http.MethodDelete, "/api/gallery/4", nil)
	if resp.StatusCode != http.StatusForbidden || body["error"] != "forbidden" {
		t.Fatalf("expected 403 for student, got %d %v", resp.StatusCode, body)
	}
	resp, body = app.do(t, http.MethodGet, "/api/screens/gallery", nil)
	if resp.StatusCode != http.StatusNotFound || body["message"] != "gallery missing" {
		t.Fatalf("expected backend 404 mapped, got %d %v", resp.StatusCode, body)
	}
	resp, body = app.do(t, http.MethodGet, "/api/screens/unknown", nil)
	if resp.StatusCode != http.StatusNotFound || body["error"] != "unknown_screen" {
		t.Fatalf("expected unknown_screen, got %d %v", resp.StatusCode, body)
	}
	resp, body = app.do(t, http.MethodGet, "/api/screens/payments", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected payments forbidden for student, got %d %v", resp.StatusCode, body)
	}
}

func TestNextAdCycles(t *testing.T) {
	app := newTestApp(t, "")
	for i, want := range []float64{0, 1, 0} {
		resp, body := app.do(t, http.MethodGet, "/api/ads/next", nil)
		if resp.StatusCode != http.StatusOK || body["index"] != want {
			t.Fatalf("call %d: expected index %v, got %d %v", i, want, resp.StatusCode, body)
		}
	}
}

func TestHelpDeskWithoutLogin(t *testing.T) {
	app := newTestApp(t, "")
	resp, body := app.do(t, http.MethodPost, "/api/suggestions", map[string]string{"subject": "Bus timing", "message": "late"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d %v", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodGet, app.url+"/api/suggestions/mine", nil)
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var mine []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mine) != 1 || mine[0]["subject"] != "Bus timing" {
		t.Fatalf("unexpected mine %v", mine)
	}

	resp2, body := app.do(t, http.MethodPost, "/api/suggestions/99/reply", map[string]string{"message": "hello"})
	if resp2.StatusCode != http.StatusForbidden || body["error"] != "not_your_query" {
		t.Fatalf("expected not_your_query, got %d %v", resp2.StatusCode, body)
	}
}

func TestChatSendWithImage(t *testing.T) {
	app := newTestApp(t, "")
	app.login(t, "asha")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("text", "look")
	part, _ := writer.CreateFormFile("file", "photo.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = writer.Close()

	req, _ := http.NewRequest(http.MethodPost, app.url+"/api/chat/8B/messages", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, body := app.send(t, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d %v", resp.StatusCode, body)
	}
	if body["file_url"] != "/uploads/chat/photo.png" || body["status"] != "sent" {
		t.Fatalf("unexpected entry %v", body)
	}
	sent := app.erp.sentMessages()
	if len(sent) != 1 || sent[0]["client_id"] != body["client_id"] {
		t.Fatalf("expected client id forwarded, got %v", sent)
	}

	req, _ = http.NewRequest(http.MethodGet, app.url+"/api/chat/8B", nil)
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var thread []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&thread); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected sent message plus history, got %v", thread)
	}
}

func TestUnreadStream(t *testing.T) {
	app := newTestApp(t, "")
	app.login(t, "asha")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, app.url+"/api/notifications/stream", nil)
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, `"unread_count":`) {
				t.Fatalf("unexpected event %q", line)
			}
			return
		}
	}
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write js: %v", err)
	}
	app := newTestApp(t, dir)

	for path, want := range map[string]string{"/main.js": "console.log(1)", "/gallery/albums": "<html>app</html>"} {
		resp, err := app.client.Get(app.url + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(raw) != want {
			t.Fatalf("%s: expected %q, got %d %q", path, want, resp.StatusCode, raw)
		}
	}
	resp, body := app.do(t, http.MethodGet, "/api/nothing-here", nil)
	if resp.StatusCode != http.StatusNotFound || body["error"] != "not_found" {
		t.Fatalf("expected JSON 404 for unknown api path, got %d %v", resp.StatusCode, body)
	}
}
