// Package backendtest runs an in-process fake of the content service for
// tests. It records every call (method, path, bearer token) in arrival
// order and keeps just enough state to exercise the client's lifecycle
// flows: queue soft-deletes, content approval and stage failures.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/kingrea/contentdesk/internal/content"
)

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// Server is a fake content service.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	calls []Call
	clock func() time.Time

	// Token is returned by /auth/login. Empty means "no token received".
	Token string
	// LoginStatus overrides the login response status when non-zero.
	LoginStatus int

	NextRequestID int64
	Requests      []content.Request
	Details       map[int64]content.Detail
	Queue         []content.QueueEntry
	Usage         content.UsageStats
	UserConfig    content.UserConfiguration

	// StageStatus forces an HTTP status for a stage; StageRejections makes
	// a stage answer 200 with success=false and the given message.
	StageStatus     map[content.Stage]int
	StageRejections map[content.Stage]string

	ApproveStatus  int
	ScheduleStatus int
	DeleteStatus   int
	PostStatus     int
	QueueStatus    int
}

// New starts a fake server. Callers must Close it (t.Cleanup is typical).
func New() *Server {
	s := &Server{
		clock:           func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		Token:           "test-token",
		NextRequestID:   1,
		Details:         map[int64]content.Detail{},
		StageStatus:     map[content.Stage]int{},
		StageRejections: map[content.Stage]string{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// Calls returns a snapshot of recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Paths returns "METHOD /path" strings in call order.
func (s *Server) Paths() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Method + " " + call.Path
	}
	return out
}

// CountPrefix counts calls whose "METHOD /path" starts with prefix.
func (s *Server) CountPrefix(prefix string) int {
	n := 0
	for _, p := range s.Paths() {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// Reset drops recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/content/requests", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/content/requests", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/content/requests/{id:[0-9]+}", s.handleDetail).Methods(http.MethodGet)
	r.HandleFunc("/pipeline/{id:[0-9]+}/{stage}", s.handleStage).Methods(http.MethodPost)
	r.HandleFunc("/content/queue/scheduled", s.handleQueue).Methods(http.MethodGet)
	r.HandleFunc("/content/queue/{id:[0-9]+}/approve", s.handleApprove).Methods(http.MethodPut)
	r.HandleFunc("/content/queue/{id:[0-9]+}/schedule", s.handleSchedule).Methods(http.MethodPut)
	r.HandleFunc("/content/queue/{id:[0-9]+}/post", s.handlePost).Methods(http.MethodPost)
	r.HandleFunc("/content/queue/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/users/usage-stats", s.handleUsage).Methods(http.MethodGet)
	r.HandleFunc("/users/configurations", s.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/users/configurations", s.handlePutConfig).Methods(http.MethodPut)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func failIf(w http.ResponseWriter, status int) bool {
	if status == 0 || status < 400 {
		return false
	}
	writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
	return true
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, token := s.LoginStatus, s.Token
	s.mu.Unlock()
	if failIf(w, status) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": token}})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req content.NewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	id := s.NextRequestID
	s.NextRequestID++
	s.Requests = append([]content.Request{{
		ID:            id,
		OriginalTopic: req.OriginalTopic,
		ContentType:   req.ContentType,
		Platform:      req.Platform,
		Status:        "pending",
		CreatedAt:     content.NewTimestamp(s.clock()),
		AutoPost:      req.AutoPost,
	}}, s.Requests...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"request_id": id,
		"message":    "Topic submitted successfully",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	requests := append([]content.Request{}, s.Requests...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	detail, ok := s.Details[pathID(r)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Request not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": detail})
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	stage := content.Stage(mux.Vars(r)["stage"])
	s.mu.Lock()
	status := s.StageStatus[stage]
	rejection, rejected := s.StageRejections[stage]
	s.mu.Unlock()
	if failIf(w, status) {
		return
	}
	if rejected {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": rejection})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.QueueStatus
	entries := append([]content.QueueEntry{}, s.Queue...)
	s.mu.Unlock()
	if failIf(w, status) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failIf(w, s.ApproveStatus) {
		return
	}
	s.setItemStatus(pathID(r), "approved")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Content approved"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ScheduledFor string `json:"scheduled_for"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	if failIf(w, s.ScheduleStatus) {
		return
	}
	if strings.TrimSpace(body.ScheduledFor) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "scheduled_for is required"})
		return
	}
	s.setItemStatus(pathID(r), "scheduled")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Content scheduled"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failIf(w, s.DeleteStatus) {
		return
	}
	id := pathID(r)
	for i := range s.Queue {
		if s.Queue[i].ID == id {
			stamp := content.NewTimestamp(s.clock())
			s.Queue[i].DeletedAt = &stamp
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Content not found"})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failIf(w, s.PostStatus) {
		return
	}
	id := pathID(r)
	for i := range s.Queue {
		if s.Queue[i].ID == id {
			s.Queue[i].Status = "posted"
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Content marked as posted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Content not found"})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	usage := s.Usage
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": usage})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.UserConfig
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": cfg})
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg content.UserConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.UserConfig = cfg
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": cfg})
}

// setItemStatus updates the content item with the given id in any detail.
// Callers hold s.mu.
func (s *Server) setItemStatus(contentID int64, status string) {
	for reqID, detail := range s.Details {
		if detail.Content != nil && detail.Content.ID != nil && *detail.Content.ID == contentID {
			item := *detail.Content
			item.Status = status
			detail.Content = &item
			s.Details[reqID] = detail
		}
	}
}

// Entry builds a queue entry for tests.
func Entry(id int64, status string, deletedAt string) content.QueueEntry {
	scheduled := content.NewTimestamp(time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC))
	entry := content.QueueEntry{
		ID:               id,
		ContentType:      content.ContentTypeThread,
		GeneratedContent: fmt.Sprintf("Generated content for entry %d", id),
		ScheduledFor:     &scheduled,
		Status:           status,
		Platform:         content.PlatformX,
	}
	if deletedAt != "" {
		stamp, err := content.ParseTimestamp(deletedAt)
		if err == nil {
			entry.DeletedAt = &stamp
		}
	}
	return entry
}
