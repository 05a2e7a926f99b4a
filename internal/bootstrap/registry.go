package bootstrap

import (
	"sync"

	"workflow_portal_backend/internal/session"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Registry keeps one Bootstrap per principal. Middleware acquires the
// instance for the authenticated user; session-change callbacks and purge
// tasks route through it by user ID.
type Registry struct {
	store    session.Store
	profiles ProfileReader
	writer   ProfileWriter
	purger   PurgeScheduler
	cfg      config.BootstrapConfig
	log      *logger.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]*Bootstrap
}

func NewRegistry(store session.Store, profiles ProfileReader, writer ProfileWriter, purger PurgeScheduler, cfg config.BootstrapConfig, log *logger.Logger) *Registry {
	return &Registry{
		store:    store,
		profiles: profiles,
		writer:   writer,
		purger:   purger,
		cfg:      cfg,
		log:      log,
		entries:  make(map[uuid.UUID]*Bootstrap),
	}
}

// Acquire returns the bootstrap for userID, creating and starting one with
// the given access token if none exists yet.
func (r *Registry) Acquire(userID uuid.UUID, accessToken string) *Bootstrap {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.entries[userID]; ok {
		return b
	}

	b := New(r.store, r.profiles, r.writer, r.purger, r.cfg, r.log)
	r.entries[userID] = b
	b.Start(accessToken)
	return b
}

// Lookup returns the bootstrap for userID without creating one.
func (r *Registry) Lookup(userID uuid.UUID) (*Bootstrap, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.entries[userID]
	return b, ok
}

// Dispatch routes a session-change event to the affected bootstrap. Events
// for principals with no cached bootstrap are dropped: the next Acquire will
// re-derive state from the session store anyway.
func (r *Registry) Dispatch(event session.Event) {
	r.mu.Lock()
	b, ok := r.entries[event.UserID]
	r.mu.Unlock()

	if !ok {
		return
	}
	b.Notify(event)
}

// Remove closes and discards the bootstrap for userID. Used by the deferred
// post-sign-out purge.
func (r *Registry) Remove(userID uuid.UUID) {
	r.mu.Lock()
	b, ok := r.entries[userID]
	delete(r.entries, userID)
	r.mu.Unlock()

	if ok {
		b.Close()
	}
}

// Close tears down every cached bootstrap.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[uuid.UUID]*Bootstrap)
	r.mu.Unlock()

	for _, b := range entries {
		b.Close()
	}
}
