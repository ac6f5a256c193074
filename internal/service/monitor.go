package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/atlastours/agency-api/internal/data"
	domainauth "github.com/atlastours/agency-api/internal/domain/auth"
	"github.com/atlastours/agency-api/internal/observability/metrics"
	"github.com/atlastours/agency-api/internal/observability/statsd"
	"github.com/atlastours/agency-api/internal/ports"
)

// SessionMonitorOptions groups dependencies for SessionMonitor.
type SessionMonitorOptions struct {
	Sessions    ports.SessionStore        // Required: session persistence
	Credentials ports.CredentialsProvider // Required: for silent refresh
	Interval    time.Duration             // Optional: defaults to 60s
	// RefreshWindow is how close to expiry a session is refreshed
	// proactively. Optional: defaults to twice the interval.
	RefreshWindow time.Duration
	TimeProvider  data.TimeProvider
	Logger        *slog.Logger
	Metrics       statsd.Sink // Optional
}

// SessionMonitor periodically re-validates tracked sessions. A session that
// disappeared or is about to expire gets one silent refresh attempt; if the
// refresh fails, the session is dropped. Only sessions explicitly tracked
// (i.e. created through a login on this instance) are swept.
type SessionMonitor struct {
	sessions      ports.SessionStore
	credentials   ports.CredentialsProvider
	interval      time.Duration
	refreshWindow time.Duration
	timeProvider  data.TimeProvider
	logger        *slog.Logger
	metrics       statsd.Sink

	mu      sync.Mutex
	tracked map[string]trackedSession
}

// trackedSession remembers enough to attempt a refresh after the stored
// session is gone, and whether a refresh was already tried without an
// intervening success.
type trackedSession struct {
	refreshToken     string
	refreshAttempted bool
}

// NewSessionMonitor constructs a new SessionMonitor.
func NewSessionMonitor(opts SessionMonitorOptions) (*SessionMonitor, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("CredentialsProvider is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.RefreshWindow <= 0 {
		opts.RefreshWindow = 2 * opts.Interval
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionMonitor{
		sessions:      opts.Sessions,
		credentials:   opts.Credentials,
		interval:      opts.Interval,
		refreshWindow: opts.RefreshWindow,
		timeProvider:  opts.TimeProvider,
		logger:        logger.With("component", "session_monitor"),
		metrics:       opts.Metrics,
		tracked:       make(map[string]trackedSession),
	}, nil
}

// Track registers a session for background re-validation.
func (m *SessionMonitor) Track(session domainauth.Session) {
	if session.ID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[session.ID] = trackedSession{refreshToken: session.RefreshToken}
}

// Untrack stops background re-validation for a session, e.g. on logout.
func (m *SessionMonitor) Untrack(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, sessionID)
}

// TrackedCount reports how many sessions are currently monitored.
func (m *SessionMonitor) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}

// Run starts the monitor loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (m *SessionMonitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "starting session monitor", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "session monitor stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep re-validates every tracked session once.
func (m *SessionMonitor) sweep(ctx context.Context) {
	start := time.Now()

	m.mu.Lock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var refreshed, dropped int64
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		switch m.revalidate(ctx, id) {
		case sweepRefreshed:
			refreshed++
		case sweepDropped:
			dropped++
		}
	}

	metrics.EmitSessionSweep(m.metrics, metrics.SessionSweepMetric{
		Tracked:   m.TrackedCount(),
		Refreshed: refreshed,
		Dropped:   dropped,
		Duration:  time.Since(start),
	})
}

type sweepOutcome int

const (
	sweepKept sweepOutcome = iota
	sweepRefreshed
	sweepDropped
)

// revalidate checks one session and applies the single-silent-refresh policy.
func (m *SessionMonitor) revalidate(ctx context.Context, id string) sweepOutcome {
	m.mu.Lock()
	state, ok := m.tracked[id]
	m.mu.Unlock()
	if !ok {
		return sweepKept
	}

	now := m.timeProvider.Now()

	session, err := m.sessions.Get(ctx, id)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return m.refreshOrDrop(ctx, id, state, domainauth.Session{ID: id})
	case err != nil:
		// Store unreachable: keep the session, retry next sweep.
		m.logger.WarnContext(ctx, "session re-validation failed", "session_id", id, "error", err)
		return sweepKept
	}

	// Keep the remembered token current across rotations.
	if session.RefreshToken != "" && session.RefreshToken != state.refreshToken {
		state.refreshToken = session.RefreshToken
		state.refreshAttempted = false
		m.mu.Lock()
		m.tracked[id] = state
		m.mu.Unlock()
	}

	if session.ExpiresAt.Sub(now) > m.refreshWindow {
		return sweepKept
	}

	return m.refreshOrDrop(ctx, id, state, session)
}

// refreshOrDrop attempts the one silent refresh a session is entitled to.
// A successful refresh re-saves the session with renewed expiry under the
// same ID; a failed or exhausted refresh drops the session.
func (m *SessionMonitor) refreshOrDrop(ctx context.Context, id string, state trackedSession, session domainauth.Session) sweepOutcome {
	if state.refreshAttempted || state.refreshToken == "" {
		return m.drop(ctx, id)
	}

	state.refreshAttempted = true
	m.mu.Lock()
	m.tracked[id] = state
	m.mu.Unlock()

	identity, err := m.credentials.Refresh(ctx, state.refreshToken)
	if err != nil {
		m.logger.InfoContext(ctx, "silent refresh failed, dropping session",
			"session_id", id, "error", err)
		return m.drop(ctx, id)
	}

	session.UserID = identity.UserID
	if identity.Email != "" {
		session.Email = identity.Email
	}
	if identity.DisplayName != "" {
		session.DisplayName = identity.DisplayName
	}
	session.RefreshToken = identity.RefreshToken
	session.ExpiresAt = identity.ExpiresAt

	if saveErr := m.sessions.Save(ctx, session); saveErr != nil {
		m.logger.WarnContext(ctx, "persist refreshed session failed",
			"session_id", id, "error", saveErr)
		return m.drop(ctx, id)
	}

	state.refreshToken = identity.RefreshToken
	state.refreshAttempted = false
	m.mu.Lock()
	m.tracked[id] = state
	m.mu.Unlock()

	return sweepRefreshed
}

func (m *SessionMonitor) drop(ctx context.Context, id string) sweepOutcome {
	if err := m.sessions.Delete(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "delete session failed", "session_id", id, "error", err)
	}
	m.Untrack(id)
	return sweepDropped
}
