package storefront

import (
	"context"
	"sync"
	"time"

	"sweetshop/internal/session"
	"sweetshop/internal/util"
	"sweetshop/internal/view"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// DefaultMaxSessions bounds the registry when RegistryOptions.MaxSessions is unset
const DefaultMaxSessions = 10000

// Visit pairs a storefront with the recorder capturing what it renders
type Visit struct {
	Store *Storefront
	View  *view.Recorder

	lastSeen time.Time
}

// RegistryOptions bound how many browsing sessions are held and for how long.
// A zero IdleTTL keeps visits until they are pushed out by MaxSessions.
type RegistryOptions struct {
	IdleTTL     time.Duration
	MaxSessions int
}

// Registry holds one storefront per browsing session. The catalog, roster,
// storage and publisher are shared by all of them.
type Registry struct {
	mu        sync.Mutex
	visits    *lru.Cache
	evicted   []*Visit
	idleTTL   time.Duration
	catalog   Catalog
	roster    *session.Roster
	storage   session.Storage
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(catalog Catalog, roster *session.Roster, storage session.Storage, publisher EventPublisher, opts RegistryOptions) *Registry {
	size := opts.MaxSessions
	if size <= 0 {
		size = DefaultMaxSessions
	}

	r := &Registry{
		idleTTL:   opts.IdleTTL,
		catalog:   catalog,
		roster:    roster,
		storage:   storage,
		publisher: publisher,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
	// size is positive, the only error NewWithEvict returns
	r.visits, _ = lru.NewWithEvict(size, func(_, value interface{}) {
		r.evicted = append(r.evicted, value.(*Visit))
	})
	return r
}

// Init is the first phase of start-up: it loads the shared catalog once.
// A failed load is logged and returned; storefronts opened afterwards render
// whatever the catalog holds.
func (r *Registry) Init(ctx context.Context) error {
	if err := r.catalog.Load(ctx); err != nil {
		r.logger.Warn("Serving storefronts without a fresh catalog", zap.Error(err))
		return err
	}
	return nil
}

// Get returns the storefront for sessionID, creating and opening it on first use
func (r *Registry) Get(sessionID string) *Visit {
	r.mu.Lock()

	now := r.now()
	if value, ok := r.visits.Get(sessionID); ok {
		v := value.(*Visit)
		v.lastSeen = now
		r.mu.Unlock()
		return v
	}

	recorder := view.NewRecorder()
	store := New(Deps{
		SessionID: sessionID,
		Catalog:   r.catalog,
		Roster:    r.roster,
		Storage:   r.storage,
		Renderer:  view.Multi{recorder, view.NewLogRenderer(sessionID)},
		Publisher: r.publisher,
	})
	store.Open()

	v := &Visit{Store: store, View: recorder, lastSeen: now}
	r.visits.Add(sessionID, v)
	evicted := r.drainLocked()
	r.mu.Unlock()

	r.end(evicted)
	return v
}

// Sweep drops visits idle for longer than the idle TTL and returns how many
// were dropped
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTTL)
	for {
		_, value, ok := r.visits.GetOldest()
		if !ok || value.(*Visit).lastSeen.After(cutoff) {
			break
		}
		r.visits.RemoveOldest()
	}
	evicted := r.drainLocked()
	r.mu.Unlock()

	r.end(evicted)
	return len(evicted)
}

// Run sweeps idle visits every interval until ctx is cancelled
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("Swept idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of sessions held
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visits.Len()
}

func (r *Registry) drainLocked() []*Visit {
	evicted := r.evicted
	r.evicted = nil
	util.ActiveSessions.Set(float64(r.visits.Len()))
	return evicted
}

// end clears the current-user record of each dropped visit so a returning
// session id starts over with an empty cart and no login.
func (r *Registry) end(visits []*Visit) {
	for _, v := range visits {
		if err := v.Store.session.Logout(context.Background()); err != nil {
			r.logger.Warn("Failed to clear session record",
				zap.String("session_id", v.Store.ID()),
				zap.Error(err))
		}
	}
}
