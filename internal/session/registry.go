package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/persistence"
)

// StoreFactory opens the history store of a session. resume is true when the
// session already exists and its history must be kept.
type StoreFactory func(id string, resume bool) (Store, error)

// MemoryStores keeps histories in memory only.
func MemoryStores(string, bool) (Store, error) {
	return persistence.NewMemoryStore(), nil
}

// FileStores keeps each history as JSONL under the games directory.
func FileStores(games *persistence.GameManager) StoreFactory {
	return func(id string, resume bool) (Store, error) {
		if resume {
			return games.Load(id)
		}
		return games.Create(id)
	}
}

type RegistryOption func(*Registry)

func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithStores(factory StoreFactory) RegistryOption {
	return func(r *Registry) {
		if factory != nil {
			r.stores = factory
		}
	}
}

// WithIDs replaces the uuid generator.
func WithIDs(next func() string) RegistryOption {
	return func(r *Registry) {
		r.newID = next
	}
}

// Registry holds the live sessions. The registry lock only guards the map;
// each session serializes its own operations, so sessions run in parallel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	catalog  *engine.Catalog
	engine   *command.Engine
	stores   StoreFactory
	newID    func() string
	logger   *log.Logger
}

func NewRegistry(catalog *engine.Catalog, eng *command.Engine, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		catalog:  catalog,
		engine:   eng,
		stores:   MemoryStores,
		newID:    uuid.NewString,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create seats a new session and returns its id.
func (r *Registry) Create(cfg Config) (string, error) {
	id := r.newID()
	store, err := r.stores(id, false)
	if err != nil {
		return "", err
	}
	s, err := New(id, cfg, r.catalog, r.engine, store, r.logger)
	if err != nil {
		store.Close()
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	return id, nil
}

// Resume loads a stored session back into the registry.
func (r *Registry) Resume(id string) (*Session, error) {
	if s, err := r.Get(id); err == nil {
		return s, nil
	}
	store, err := r.stores(id, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrUnknownSession, id, err)
	}
	s, err := Open(id, r.engine, store, r.logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		store.Close()
		return existing, nil
	}
	r.sessions[id] = s
	r.logger.Printf("session %s: resumed at %s (seq %d)", id, s.state.Phase, s.state.Seq)
	return s, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownSession, id)
	}
	return s, nil
}

func (r *Registry) Advance(ctx context.Context, id string) (engine.Snapshot, error) {
	s, err := r.Get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return s.Advance(ctx)
}

func (r *Registry) CastVote(id, actor, target string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	return s.CastVote(actor, target)
}

func (r *Registry) Snapshot(id string, admin bool) (engine.Snapshot, error) {
	s, err := r.Get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return s.Snapshot(admin), nil
}

func (r *Registry) History(id string) ([]engine.HistoryEntry, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return s.History(), nil
}

func (r *Registry) Abort(id, reason string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	return s.Abort(reason)
}

// Remove drops a session from the registry and closes its store.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrUnknownSession, id)
	}
	return s.Close()
}

// List returns the live session ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run advances a session until it ends or ctx is done.
func (r *Registry) Run(ctx context.Context, id string) (engine.Snapshot, error) {
	s, err := r.Get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	for {
		snap, err := s.Advance(ctx)
		if err != nil || snap.Phase.Terminal() {
			return snap, err
		}
	}
}

// GormStores keeps every history in the shared SQL history table.
func GormStores(db *gorm.DB) StoreFactory {
	return func(id string, resume bool) (Store, error) {
		store := persistence.NewGormStore(db, id)
		if !resume {
			return store, nil
		}
		entries, err := store.Load()
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("no stored history for %s", id)
		}
		return store, nil
	}
}
