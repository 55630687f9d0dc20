package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultLockTTL     = 30 * time.Second
)

// lockEntry holds the per-session semaphores and the reference count.
type lockEntry struct {
	request chan struct{} // Held for the whole request
	exec    chan struct{} // Held while a task body runs, even past an abandoned request
	refs    int
}

// Manager orchestrates session access, ensuring requests for one session never interleave.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker      ports.DistributedLocker // Optional distributed locker
	logger      *slog.Logger
	lockTimeout time.Duration
	lockTTL     time.Duration
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLockTimeout bounds how long a request waits for a busy session.
// Zero waits until the request context is done.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTimeout = d
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = d
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		locks:       make(map[string]*lockEntry),
		logger:      logging.NewNop(),
		lockTimeout: defaultLockTimeout,
		lockTTL:     defaultLockTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID issues a fresh opaque session identifier.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(sessionID) when done with the entry.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{
			request: make(chan struct{}, 1),
			exec:    make(chan struct{}, 1),
		}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// wait blocks until sem is taken or the lock timeout / ctx expires.
func (m *Manager) wait(ctx context.Context, sem chan struct{}) error {
	if m.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
	}
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrSessionBusy, ctx.Err())
	}
}

// WithLock executes fn while holding the exclusive lock for the session.
// It fails with domain.ErrSessionBusy if the lock cannot be taken in time; fn is not called then.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	if err := m.wait(ctx, entry.request); err != nil {
		return err
	}
	defer func() { <-entry.request }()

	// Distributed Locking
	if m.locker != nil {
		lockCtx := ctx
		if m.lockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, m.lockTimeout)
			defer cancel()
		}
		unlock, err := m.locker.Lock(lockCtx, sessionID, m.lockTTL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return fmt.Errorf("%w: %w", domain.ErrSessionBusy, err)
			}
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Use a fresh context: the request context may already be cancelled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// AcquireExecution takes the session's execution gate, which guarantees that no two
// task bodies of one session overlap, even when a timed-out request has already
// released the session lock. The returned func MUST be called once the body returns.
func (m *Manager) AcquireExecution(ctx context.Context, sessionID string) (func(), error) {
	entry := m.acquire(sessionID)
	if err := m.wait(ctx, entry.exec); err != nil {
		m.release(sessionID)
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.exec
			m.release(sessionID)
		})
	}, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.store.Load(ctx, sessionID)
}

// Save persists the session, stamping UpdatedAt.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	s.UpdatedAt = time.Now().UTC()
	return m.store.Save(ctx, s.ID, s)
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
