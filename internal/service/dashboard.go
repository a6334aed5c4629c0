// Package service provides the dashboard's use cases on top of the backend API.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/cache"
	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/model"
)

// Service errors.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrMissingTerms       = errors.New("keywords and cities are required")
	ErrInvalidLimit       = errors.New("limit must be at least 1")
	ErrMissingGroupID     = errors.New("group id is required")
)

// MissingTermsMessage is shown to users for ErrMissingTerms.
const MissingTermsMessage = "Please provide both keywords and cities"

// Defaults applied when Config leaves a field empty.
const (
	DefaultGroupsStaleTime = 30 * time.Second
	DefaultDiscoverLimit   = 50
)

// Backend is the subset of the API client the dashboard uses.
type Backend interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	ListGroups(ctx context.Context) (*model.GroupList, error)
	Discover(ctx context.Context, req model.DiscoverRequest) (*model.DiscoverResponse, error)
	GroupDetails(ctx context.Context, id string) (*model.GroupDetails, error)
	DownloadCSV(ctx context.Context, id string) (*model.CSVFile, error)
}

// GroupCache holds per-user group lists for a short stale time.
type GroupCache interface {
	GetGroups(ctx context.Context, userKey string) (*model.GroupList, error)
	SetGroups(ctx context.Context, userKey string, list *model.GroupList, staleTime time.Duration) error
	InvalidateGroups(ctx context.Context, userKey string) error
}

// Config tunes the dashboard service.
type Config struct {
	GroupsStaleTime      time.Duration
	DefaultDiscoverLimit int
}

// Dashboard implements the dashboard's operations for one logged-in user
// at a time. It holds no per-user state itself.
type Dashboard struct {
	backend  Backend
	groups   GroupCache
	activity ActivityRecorder
	metrics  metrics.Recorder
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// NewDashboard creates a Dashboard. Nil activity, recorder and logger get
// no-op defaults.
func NewDashboard(b Backend, groups GroupCache, activity ActivityRecorder, recorder metrics.Recorder, logger *slog.Logger, cfg Config) *Dashboard {
	if activity == nil {
		activity = NoopActivity{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GroupsStaleTime <= 0 {
		cfg.GroupsStaleTime = DefaultGroupsStaleTime
	}
	if cfg.DefaultDiscoverLimit <= 0 {
		cfg.DefaultDiscoverLimit = DefaultDiscoverLimit
	}
	return &Dashboard{
		backend:  b,
		groups:   groups,
		activity: activity,
		metrics:  recorder,
		logger:   logger.With("component", "dashboard"),
		cfg:      cfg,
		now:      time.Now,
	}
}

// DefaultDiscoverLimit returns the limit pre-filled in the discover form.
func (d *Dashboard) DefaultDiscoverLimit() int {
	return d.cfg.DefaultDiscoverLimit
}

// Login exchanges credentials for a backend token.
func (d *Dashboard) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		d.metrics.IncLogin(metrics.StatusInvalid)
		return nil, ErrMissingCredentials
	}

	start := time.Now()
	resp, err := d.backend.Login(ctx, username, password)
	d.metrics.ObserveBackendDuration("login", time.Since(start))
	if err != nil {
		d.metrics.IncLogin(statusFor(err))
		return nil, err
	}

	d.metrics.IncLogin(metrics.StatusSuccess)
	d.record(ctx, &model.ActivityEvent{Username: resp.User.Username, Kind: model.ActivityLogin})
	return resp, nil
}

// ListGroups returns the user's groups, from cache unless force is set or
// the cached list is older than the stale time.
func (d *Dashboard) ListGroups(ctx context.Context, sess *model.Session, force bool) (*model.GroupList, error) {
	key := cache.TokenKey(sess.Token)

	if !force {
		list, err := d.groups.GetGroups(ctx, key)
		if err == nil {
			d.metrics.IncGroupsCacheHit()
			return list, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			d.metrics.IncGroupsCacheMiss()
		} else {
			d.logger.Warn("group cache read failed", "error", err)
		}
	}

	start := time.Now()
	list, err := d.backend.ListGroups(backend.WithToken(ctx, sess.Token))
	d.metrics.ObserveBackendDuration("list_groups", time.Since(start))
	if err != nil {
		return nil, err
	}
	if list.Groups == nil {
		list.Groups = []model.BusinessGroup{}
	}

	if err := d.groups.SetGroups(ctx, key, list, d.cfg.GroupsStaleTime); err != nil {
		d.logger.Warn("group cache write failed", "error", err)
	}
	return list, nil
}

// DiscoverInput is the raw discover form.
type DiscoverInput struct {
	Keywords string
	Cities   string
	// Limit of zero means the configured default.
	Limit int
}

// Discover validates the input, asks the backend to discover businesses and
// returns how many were found.
func (d *Dashboard) Discover(ctx context.Context, sess *model.Session, input DiscoverInput) (int, error) {
	keywords := ParseList(input.Keywords)
	cities := ParseList(input.Cities)
	if len(keywords) == 0 || len(cities) == 0 {
		d.metrics.IncDiscover(metrics.StatusInvalid)
		return 0, ErrMissingTerms
	}

	limit := input.Limit
	if limit == 0 {
		limit = d.cfg.DefaultDiscoverLimit
	}
	if limit < 1 {
		d.metrics.IncDiscover(metrics.StatusInvalid)
		return 0, ErrInvalidLimit
	}

	req := model.DiscoverRequest{Keywords: keywords, Cities: cities, Limit: limit}

	start := time.Now()
	resp, err := d.backend.Discover(backend.WithToken(ctx, sess.Token), req)
	d.metrics.ObserveBackendDuration("discover", time.Since(start))
	if err != nil {
		d.metrics.IncDiscover(statusFor(err))
		return 0, err
	}
	d.metrics.IncDiscover(metrics.StatusSuccess)

	if err := d.groups.InvalidateGroups(ctx, cache.TokenKey(sess.Token)); err != nil {
		d.logger.Warn("group cache invalidation failed", "error", err)
	}

	discovered := resp.Discovered()
	d.record(ctx, &model.ActivityEvent{
		Username: sess.User.Username,
		Kind:     model.ActivityDiscover,
		Keywords: keywords,
		Cities:   cities,
		Count:    discovered,
	})
	return discovered, nil
}

// GroupDetails fetches one group's business listing.
func (d *Dashboard) GroupDetails(ctx context.Context, sess *model.Session, id string) (*model.GroupDetails, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingGroupID
	}

	start := time.Now()
	details, err := d.backend.GroupDetails(backend.WithToken(ctx, sess.Token), id)
	d.metrics.ObserveBackendDuration("group_details", time.Since(start))
	if err != nil {
		return nil, err
	}
	if details.Businesses == nil {
		details.Businesses = []model.Business{}
	}
	return details, nil
}

// Export is a CSV file ready to send to the user.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DownloadCSV fetches a group's CSV and names it after groupName.
func (d *Dashboard) DownloadCSV(ctx context.Context, sess *model.Session, id, groupName string) (*Export, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingGroupID
	}

	start := time.Now()
	file, err := d.backend.DownloadCSV(backend.WithToken(ctx, sess.Token), id)
	d.metrics.ObserveBackendDuration("download_csv", time.Since(start))
	if err != nil {
		d.metrics.IncCSVDownload(statusFor(err))
		return nil, err
	}
	d.metrics.IncCSVDownload(metrics.StatusSuccess)

	d.record(ctx, &model.ActivityEvent{
		Username: sess.User.Username,
		Kind:     model.ActivityExport,
		GroupID:  id,
	})

	return &Export{
		Filename:    CSVFilename(groupName, id, d.now()),
		ContentType: file.ContentType,
		Data:        file.Data,
	}, nil
}

// ParseList splits a comma-separated form value, trimming entries and
// dropping empty ones.
func ParseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func statusFor(err error) string {
	if backend.IsUnauthorized(err) {
		return metrics.StatusUnauthorized
	}
	return metrics.StatusFailed
}

