package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leadreach/leadreach/internal/model"
)

// Operation names used by FakeBackend.FailWith and Calls.
const (
	OpLogin    = "login"
	OpList     = "list"
	OpDiscover = "discover"
	OpDetails  = "details"
	OpCSV      = "csv"
)

type failure struct {
	status  int
	message string
}

// FakeBackend is an in-process stand-in for the LeadReach backend API.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	token        string
	users        map[string]string
	groups       []model.BusinessGroup
	details      map[string]*model.GroupDetails
	csv          map[string][]byte
	discovered   int
	total        int
	failures     map[string]failure
	calls        map[string]int
	lastDiscover *model.DiscoverRequest
}

// NewFakeBackend starts a fake backend that accepts user "demo" with
// password "secret" and issues token "test-token".
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		token:    "test-token",
		users:    map[string]string{"demo": "secret"},
		details:  make(map[string]*model.GroupDetails),
		csv:      make(map[string][]byte),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", f.handleLogin)
	mux.HandleFunc("/businesses", f.authed(OpList, f.handleList))
	mux.HandleFunc("/businesses/discover", f.authed(OpDiscover, f.handleDiscover))
	mux.HandleFunc("/businesses/export/", f.authed(OpDetails, f.handleDetails))
	mux.HandleFunc("/exports/", f.authed(OpCSV, f.handleCSV))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake backend's base URL.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// Token returns the bearer token issued on login.
func (f *FakeBackend) Token() string {
	return f.token
}

// SetGroups replaces the group list.
func (f *FakeBackend) SetGroups(groups ...model.BusinessGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append([]model.BusinessGroup(nil), groups...)
}

// SetDetails registers the listing for a group ID.
func (f *FakeBackend) SetDetails(id string, details *model.GroupDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[id] = details
}

// SetCSV registers CSV bytes for a group ID.
func (f *FakeBackend) SetCSV(id string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.csv[id] = data
}

// SetTotal overrides the list's total, which otherwise is len(groups).
// The real backend reports totals across pages.
func (f *FakeBackend) SetTotal(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = n
}

// SetDiscovered sets the count reported by the next discover calls.
func (f *FakeBackend) SetDiscovered(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discovered = n
}

// FailWith makes op respond with status and an optional JSON message.
func (f *FakeBackend) FailWith(op string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = failure{status: status, message: message}
}

// Calls returns how many times op was served.
func (f *FakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// LastDiscover returns the last discover payload, or nil.
func (f *FakeBackend) LastDiscover() *model.DiscoverRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastDiscover
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if f.fail(OpLogin, w) {
		return
	}

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	f.mu.Lock()
	password, ok := f.users[req.Username]
	f.mu.Unlock()
	if !ok || password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{Token: f.token, User: model.User{Username: req.Username}})
}

func (f *FakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	list := model.GroupList{Groups: append([]model.BusinessGroup{}, f.groups...), Total: len(f.groups)}
	if f.total > 0 {
		list.Total = f.total
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (f *FakeBackend) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req model.DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	f.mu.Lock()
	f.lastDiscover = &req
	n := f.discovered
	f.groups = append(f.groups, model.BusinessGroup{
		ID:            UniqueID("group"),
		Name:          strings.Join(req.Keywords, ", ") + " in " + strings.Join(req.Cities, ", "),
		Keywords:      req.Keywords,
		Cities:        req.Cities,
		BusinessCount: n,
	})
	f.mu.Unlock()

	var resp model.DiscoverResponse
	resp.Message = "Discovery complete"
	resp.Data.Summary.Discovered = n
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeBackend) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/businesses/export/")

	f.mu.Lock()
	details, ok := f.details[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Group not found"})
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (f *FakeBackend) handleCSV(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/exports/"), "/download")

	f.mu.Lock()
	data, ok := f.csv[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Export not found"})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// authed enforces the bearer token and counts calls for op.
func (f *FakeBackend) authed(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		if f.fail(op, w) {
			return
		}
		next(w, r)
	}
}

// fail counts the call and writes a configured failure, if any.
func (f *FakeBackend) fail(op string, w http.ResponseWriter) bool {
	f.mu.Lock()
	f.calls[op]++
	failure, ok := f.failures[op]
	f.mu.Unlock()
	if !ok {
		return false
	}

	body := map[string]string{}
	if failure.message != "" {
		body["message"] = failure.message
	}
	writeJSON(w, failure.status, body)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
