// Package environment tracks which environment a dashboard client operates
// against and switches it by exchanging the access token.
package environment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/querycache"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
)

// DefaultRoute is where the client lands after a switch.
const DefaultRoute = "/"

// API is the dashboard API surface the session reads and writes through.
type API interface {
	ListMyEnvironments(ctx context.Context) ([]models.Environment, error)
	CurrentEnvironment(ctx context.Context) (models.Environment, error)
	SwitchEnvironment(ctx context.Context, environmentID string) (string, error)
}

// CredentialStore holds the active access token.
type CredentialStore interface {
	Token() string
	Replace(token string) error
}

// Navigator moves the client to a route.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string) error

func (f NavigatorFunc) Navigate(ctx context.Context, route string) error { return f(ctx, route) }

// CacheManager is the shared read cache. *querycache.Cache satisfies it.
type CacheManager interface {
	Load(key string, load func() (any, error)) (any, error)
	Invalidate(key string)
	InvalidateAll()
}

// SwitchOutcome tells a caller what SwitchEnvironment did. Callers that only
// care about success may ignore it.
type SwitchOutcome int

const (
	// SwitchCompleted: new token installed, client navigated, cache invalidated.
	SwitchCompleted SwitchOutcome = iota
	// SwitchIgnoredUnknown: the name is not among the discovered environments.
	SwitchIgnoredUnknown
	// SwitchIgnoredBusy: a load or another switch was in flight.
	SwitchIgnoredBusy
	// SwitchRejected: the token exchange failed or returned no token.
	SwitchRejected
)

func (o SwitchOutcome) String() string {
	switch o {
	case SwitchCompleted:
		return "completed"
	case SwitchIgnoredUnknown:
		return "ignored_unknown"
	case SwitchIgnoredBusy:
		return "ignored_busy"
	case SwitchRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Session is the per-client environment state. It is safe for concurrent
// use; network calls run outside the lock and at most one switch is in
// flight at a time.
type Session struct {
	api    API
	creds  CredentialStore
	nav    Navigator
	cache  CacheManager
	logger *slog.Logger
	route  string

	mu             sync.Mutex
	environments   map[string]models.Environment
	current        *models.Environment
	readonly       bool
	listLoading    int
	currentLoading int
	switching      bool
	// switches counts installed tokens; a load that straddles one is dropped.
	switches uint64
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = logger.OrDiscard(l) }
}

// WithDefaultRoute overrides the route navigated to after a switch.
func WithDefaultRoute(route string) Option {
	return func(s *Session) {
		if route != "" {
			s.route = route
		}
	}
}

// NewSession wires a session. Every dependency is required.
func NewSession(api API, creds CredentialStore, nav Navigator, cache CacheManager, opts ...Option) *Session {
	s := &Session{
		api:          api,
		creds:        creds,
		nav:          nav,
		cache:        cache,
		logger:       logger.Discard(),
		route:        DefaultRoute,
		environments: make(map[string]models.Environment),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAvailableEnvironments fetches the environments the identity may access.
// On failure the previously loaded set is kept.
func (s *Session) LoadAvailableEnvironments(ctx context.Context) error {
	s.mu.Lock()
	s.listLoading++
	gen := s.switches
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.listLoading--
		s.mu.Unlock()
	}()

	raw, err := s.cache.Load(querycache.KeyMyEnvironments, func() (any, error) {
		return s.api.ListMyEnvironments(ctx)
	})
	if err != nil {
		s.logger.Warn("failed to load environments", slog.Any("error", err))
		return fmt.Errorf("load environments: %w", err)
	}
	envs, ok := raw.([]models.Environment)
	if !ok {
		return fmt.Errorf("load environments: unexpected cached type %T", raw)
	}

	byName := make(map[string]models.Environment, len(envs))
	for _, env := range envs {
		byName[env.Name] = env
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.switches != gen {
		s.logger.Debug("discarding environments loaded under the previous token")
		return nil
	}
	s.environments = byName
	return nil
}

// LoadCurrentEnvironment fetches the environment bound to the active token
// and derives the read-only flag from it. On failure the previous value stays.
func (s *Session) LoadCurrentEnvironment(ctx context.Context) error {
	s.mu.Lock()
	s.currentLoading++
	gen := s.switches
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.currentLoading--
		s.mu.Unlock()
	}()

	raw, err := s.cache.Load(querycache.KeyCurrentEnvironment, func() (any, error) {
		return s.api.CurrentEnvironment(ctx)
	})
	if err != nil {
		s.logger.Warn("failed to load current environment", slog.Any("error", err))
		return fmt.Errorf("load current environment: %w", err)
	}
	env, ok := raw.(models.Environment)
	if !ok {
		return fmt.Errorf("load current environment: unexpected cached type %T", raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.switches != gen {
		s.logger.Debug("discarding current environment loaded under the previous token",
			slog.String("environment_id", env.ID))
		return nil
	}
	s.current = &env
	s.readonly = env.Derived()
	return nil
}

// RefetchCurrentEnvironment bypasses the cached read and reloads the current
// environment.
func (s *Session) RefetchCurrentEnvironment(ctx context.Context) error {
	s.cache.Invalidate(querycache.KeyCurrentEnvironment)
	return s.LoadCurrentEnvironment(ctx)
}

// SwitchEnvironment makes the environment called name active. Unknown names
// and calls made while anything is loading are ignored without touching the
// network. On success the new token is installed first, then the client is
// sent to the default route, then every cached read is dropped.
func (s *Session) SwitchEnvironment(ctx context.Context, name string) SwitchOutcome {
	s.mu.Lock()
	if s.switching || s.listLoading > 0 || s.currentLoading > 0 {
		s.mu.Unlock()
		s.logger.Debug("switch ignored, session busy", slog.String("environment", name))
		return SwitchIgnoredBusy
	}
	target, ok := s.environments[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("switch ignored, unknown environment", slog.String("environment", name))
		return SwitchIgnoredUnknown
	}
	s.switching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.switching = false
		s.mu.Unlock()
	}()

	token, err := s.api.SwitchEnvironment(ctx, target.ID)
	if err != nil || token == "" {
		s.logger.Warn("environment switch rejected",
			slog.String("environment", name),
			slog.String("environment_id", target.ID),
			slog.Any("error", err))
		return SwitchRejected
	}

	if err := s.creds.Replace(token); err != nil {
		s.logger.Error("failed to install switched token", slog.String("environment", name), slog.Any("error", err))
		return SwitchRejected
	}
	s.mu.Lock()
	s.switches++
	s.mu.Unlock()

	// The token is already swapped, so invalidation must run even when
	// navigation fails.
	if err := s.nav.Navigate(ctx, s.route); err != nil {
		s.logger.Warn("navigation after switch failed", slog.String("route", s.route), slog.Any("error", err))
	}
	s.cache.InvalidateAll()

	s.logger.Info("environment switched", slog.String("environment", name), slog.String("environment_id", target.ID))
	return SwitchCompleted
}

// Readonly is true iff the last loaded current environment has a parent.
func (s *Session) Readonly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readonly
}

// IsLoading is true while either list is loading or a switch is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLoading > 0 || s.currentLoading > 0 || s.switching
}

// Environment returns a copy of the current environment, or nil before the
// first successful load.
func (s *Session) Environment() *models.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	env := *s.current
	return &env
}

// Environments returns the discovered environments keyed by name.
func (s *Session) Environments() map[string]models.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Environment, len(s.environments))
	for k, v := range s.environments {
		out[k] = v
	}
	return out
}

// Context is a point-in-time view of the session plus its two actions.
type Context struct {
	Readonly           bool
	IsLoading          bool
	Environment        *models.Environment
	SetEnvironment     func(ctx context.Context, name string) SwitchOutcome
	RefetchEnvironment func(ctx context.Context) error
}

// Context snapshots the session.
func (s *Session) Context() Context {
	s.mu.Lock()
	c := Context{
		Readonly:           s.readonly,
		IsLoading:          s.listLoading > 0 || s.currentLoading > 0 || s.switching,
		SetEnvironment:     s.SwitchEnvironment,
		RefetchEnvironment: s.RefetchCurrentEnvironment,
	}
	if s.current != nil {
		env := *s.current
		c.Environment = &env
	}
	s.mu.Unlock()
	return c
}
