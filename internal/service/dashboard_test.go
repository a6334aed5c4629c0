package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/cache"
	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/testutil"
)

type recordingActivity struct {
	mu     sync.Mutex
	events []model.ActivityEvent
	err    error
}

func (r *recordingActivity) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingActivity) kinds() []model.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.ActivityKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type testEnv struct {
	fake     *testutil.FakeBackend
	store    *cache.Memory
	activity *recordingActivity
	metrics  *metrics.InMemoryRecorder
	svc      *Dashboard
	sess     *model.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := testutil.NewFakeBackend(t)
	client, err := backend.New(fake.URL(), nil)
	if err != nil {
		t.Fatalf("backend.New() error = %v", err)
	}

	env := &testEnv{
		fake:     fake,
		store:    cache.NewMemory(),
		activity: &recordingActivity{},
		metrics:  metrics.NewInMemory(),
	}
	env.svc = NewDashboard(client, env.store, env.activity, env.metrics, nil, Config{})

	sess := testutil.NewTestSession(t, "demo")
	sess.Token = fake.Token()
	env.sess = sess
	return env
}

func TestNewDashboard_Defaults(t *testing.T) {
	t.Parallel()

	d := NewDashboard(nil, cache.NewMemory(), nil, nil, nil, Config{})
	if d.cfg.GroupsStaleTime != DefaultGroupsStaleTime {
		t.Errorf("GroupsStaleTime = %v, want %v", d.cfg.GroupsStaleTime, DefaultGroupsStaleTime)
	}
	if d.DefaultDiscoverLimit() != DefaultDiscoverLimit {
		t.Errorf("DefaultDiscoverLimit() = %d, want %d", d.DefaultDiscoverLimit(), DefaultDiscoverLimit)
	}
}

func TestDashboard_Login(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, err := env.svc.Login(context.Background(), " demo ", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token != env.fake.Token() || resp.User.Username != "demo" {
		t.Errorf("unexpected response %+v", resp)
	}
	if diff := cmp.Diff([]model.ActivityKind{model.ActivityLogin}, env.activity.kinds()); diff != "" {
		t.Errorf("activity mismatch (-want +got):\n%s", diff)
	}
	if got := env.metrics.Snapshot().Logins[metrics.StatusSuccess]; got != 1 {
		t.Errorf("login success count = %d, want 1", got)
	}
}

func TestDashboard_LoginErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing username",
			password: "secret",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMissingCredentials) {
					t.Errorf("error = %v, want ErrMissingCredentials", err)
				}
			},
		},
		{
			name:     "missing password",
			username: "demo",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMissingCredentials) {
					t.Errorf("error = %v, want ErrMissingCredentials", err)
				}
			},
		},
		{
			name:     "wrong password",
			username: "demo",
			password: "nope",
			check: func(t *testing.T, err error) {
				if got := backend.Message(err, ""); got != "Invalid credentials" {
					t.Errorf("message = %q, want Invalid credentials", got)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			_, err := env.svc.Login(context.Background(), tt.username, tt.password)
			if err == nil {
				t.Fatal("Login() should fail")
			}
			tt.check(t, err)
			if len(env.activity.kinds()) != 0 {
				t.Error("failed logins must not be recorded")
			}
		})
	}
}

func TestDashboard_ListGroupsUsesCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fake.SetGroups(testutil.NewTestGroup(t, "g1", 5))
	ctx := context.Background()

	first, err := env.svc.ListGroups(ctx, env.sess, false)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if first.Total != 1 {
		t.Fatalf("Total = %d, want 1", first.Total)
	}

	env.fake.SetGroups(testutil.NewTestGroup(t, "g1", 5), testutil.NewTestGroup(t, "g2", 3))

	cached, err := env.svc.ListGroups(ctx, env.sess, false)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if cached.Total != 1 {
		t.Errorf("cached Total = %d, want 1", cached.Total)
	}
	if calls := env.fake.Calls(testutil.OpList); calls != 1 {
		t.Errorf("backend list calls = %d, want 1", calls)
	}

	fresh, err := env.svc.ListGroups(ctx, env.sess, true)
	if err != nil {
		t.Fatalf("ListGroups(force) error = %v", err)
	}
	if fresh.Total != 2 {
		t.Errorf("forced Total = %d, want 2", fresh.Total)
	}

	snap := env.metrics.Snapshot()
	if snap.GroupsCacheHits != 1 || snap.GroupsCacheMiss != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", snap.GroupsCacheHits, snap.GroupsCacheMiss)
	}
}

func TestDashboard_ListGroupsStale(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	now := time.Now()
	env.store.SetClock(func() time.Time { return now })
	ctx := context.Background()

	if _, err := env.svc.ListGroups(ctx, env.sess, false); err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}

	now = now.Add(DefaultGroupsStaleTime)
	if _, err := env.svc.ListGroups(ctx, env.sess, false); err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if calls := env.fake.Calls(testutil.OpList); calls != 2 {
		t.Errorf("backend list calls = %d, want 2 after stale time", calls)
	}
}

func TestDashboard_ListGroupsEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	list, err := env.svc.ListGroups(context.Background(), env.sess, false)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if list.Groups == nil {
		t.Error("Groups should be an empty slice, not nil")
	}
}

func TestDashboard_ListGroupsUnauthorized(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.sess.Token = "revoked"

	_, err := env.svc.ListGroups(context.Background(), env.sess, false)
	if !backend.IsUnauthorized(err) {
		t.Errorf("error = %v, want unauthorized", err)
	}
}

func TestDashboard_Discover(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fake.SetDiscovered(42)
	ctx := context.Background()

	// Prime the cache so invalidation is observable.
	if _, err := env.svc.ListGroups(ctx, env.sess, false); err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}

	n, err := env.svc.Discover(ctx, env.sess, DiscoverInput{
		Keywords: " coffee, bakery ,,",
		Cities:   "Austin",
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if n != 42 {
		t.Errorf("Discover() = %d, want 42", n)
	}

	want := &model.DiscoverRequest{Keywords: []string{"coffee", "bakery"}, Cities: []string{"Austin"}, Limit: 50}
	if diff := cmp.Diff(want, env.fake.LastDiscover()); diff != "" {
		t.Errorf("discover payload mismatch (-want +got):\n%s", diff)
	}

	list, err := env.svc.ListGroups(ctx, env.sess, false)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if list.Total != 1 {
		t.Errorf("Total after discover = %d, want 1 (cache should be invalidated)", list.Total)
	}

	kinds := env.activity.kinds()
	if len(kinds) != 1 || kinds[0] != model.ActivityDiscover {
		t.Errorf("activity = %v, want [discover]", kinds)
	}
}

func TestDashboard_DiscoverValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   DiscoverInput
		wantErr error
	}{
		{"no keywords", DiscoverInput{Cities: "Austin"}, ErrMissingTerms},
		{"no cities", DiscoverInput{Keywords: "coffee"}, ErrMissingTerms},
		{"only separators", DiscoverInput{Keywords: " , ,", Cities: "Austin"}, ErrMissingTerms},
		{"negative limit", DiscoverInput{Keywords: "coffee", Cities: "Austin", Limit: -1}, ErrInvalidLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			_, err := env.svc.Discover(context.Background(), env.sess, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Discover() error = %v, want %v", err, tt.wantErr)
			}
			if env.fake.LastDiscover() != nil {
				t.Error("backend must not be called for invalid input")
			}
		})
	}
}

func TestDashboard_DiscoverBackendMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fake.FailWith(testutil.OpDiscover, http.StatusBadGateway, "Upstream quota exceeded")

	_, err := env.svc.Discover(context.Background(), env.sess, DiscoverInput{Keywords: "a", Cities: "b", Limit: 5})
	if got := backend.Message(err, "Failed to generate businesses"); got != "Upstream quota exceeded" {
		t.Errorf("message = %q", got)
	}
	if got := env.metrics.Snapshot().Discovers[metrics.StatusFailed]; got != 1 {
		t.Errorf("discover failed count = %d, want 1", got)
	}
}

func TestDashboard_GroupDetails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	details := testutil.NewTestDetails(t, "Coffee in Austin", 2)
	env.fake.SetDetails("g/1", details)

	got, err := env.svc.GroupDetails(context.Background(), env.sess, "g/1")
	if err != nil {
		t.Fatalf("GroupDetails() error = %v", err)
	}
	if diff := cmp.Diff(details, got); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}

	if _, err := env.svc.GroupDetails(context.Background(), env.sess, "missing"); !backend.IsNotFound(err) {
		t.Errorf("missing group error = %v, want not found", err)
	}
	if _, err := env.svc.GroupDetails(context.Background(), env.sess, " "); !errors.Is(err, ErrMissingGroupID) {
		t.Errorf("blank id error = %v, want ErrMissingGroupID", err)
	}
}

func TestDashboard_DownloadCSV(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.svc.now = func() time.Time { return time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC) }
	env.fake.SetCSV("g1", []byte("name,address\nA,1 Main St\n"))

	export, err := env.svc.DownloadCSV(context.Background(), env.sess, "g1", "Coffee in Austin")
	if err != nil {
		t.Fatalf("DownloadCSV() error = %v", err)
	}
	if export.Filename != "coffee-in-austin-2026-10-18.csv" {
		t.Errorf("Filename = %q", export.Filename)
	}
	if string(export.Data) != "name,address\nA,1 Main St\n" {
		t.Errorf("Data = %q", export.Data)
	}
	if export.ContentType != "text/csv; charset=utf-8" {
		t.Errorf("ContentType = %q", export.ContentType)
	}

	kinds := env.activity.kinds()
	if len(kinds) != 1 || kinds[0] != model.ActivityExport {
		t.Errorf("activity = %v, want [export]", kinds)
	}
}

func TestDashboard_ActivityFailureIsIgnored(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.activity.err = errors.New("database is down")

	if _, err := env.svc.Login(context.Background(), "demo", "secret"); err != nil {
		t.Errorf("Login() error = %v, activity failures must not surface", err)
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"coffee", []string{"coffee"}},
		{" coffee , tea ", []string{"coffee", "tea"}},
		{"a,,b, ,", []string{"a", "b"}},
		{"New York, San Francisco", []string{"New York", "San Francisco"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseList(tt.in)); diff != "" {
			t.Errorf("ParseList(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
