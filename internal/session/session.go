package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/engine"
)

// Store defines the dependency required by Session to persist its history.
type Store interface {
	Append(entry engine.HistoryEntry) error
	Load() ([]engine.HistoryEntry, error)
	Close() error
}

// MinPlayers is the smallest table a session can be created with.
const MinPlayers = 4

// Config is everything needed to seat a new match.
type Config struct {
	Seats        []engine.Seat
	Distribution map[string]int
	Preferences  map[string]string
	Seed         int64
	Rules        engine.Rules
}

// Session owns one match: its live state, its history and the store the
// history is appended to. All methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	id      string
	store   Store
	state   *engine.GameState
	history []engine.HistoryEntry
	engine  *command.Engine
	logger  *log.Logger
	failed  error
}

// New validates cfg, deals the roles and records the opening events.
func New(id string, cfg Config, catalog *engine.Catalog, eng *command.Engine, store Store, logger *log.Logger) (*Session, error) {
	if len(cfg.Seats) < MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players, got %d", engine.ErrConfig, MinPlayers, len(cfg.Seats))
	}
	assignments, err := engine.AssignRoles(catalog, cfg.Seats, cfg.Distribution, cfg.Preferences, cfg.Seed)
	if err != nil {
		return nil, err
	}
	wolves := 0
	for _, a := range assignments {
		if a.Team == engine.TeamWerewolves {
			wolves++
		}
	}
	if wolves == 0 || wolves*2 >= len(assignments) {
		return nil, fmt.Errorf("%w: %d werewolves for %d players", engine.ErrConfig, wolves, len(assignments))
	}

	s := newSession(id, store, eng, logger)
	s.state = engine.NewGameState()
	opening := []engine.Event{
		&engine.SessionCreatedEvent{SessionID: id, Seed: cfg.Seed, Rules: cfg.Rules.Normalize(), Seats: cfg.Seats},
		&engine.RolesAssignedEvent{Seed: cfg.Seed, Assignments: assignments},
	}
	for _, evt := range opening {
		if err := s.Emit(evt); err != nil {
			return nil, err
		}
	}
	s.logger.Printf("session %s: created with %d players (seed %d)", id, len(cfg.Seats), cfg.Seed)
	return s, nil
}

// Open rebuilds a session from the history already in store.
func Open(id string, eng *command.Engine, store Store, logger *log.Logger) (*Session, error) {
	entries, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	state, err := engine.NewProjector().Build(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to project game state: %w", err)
	}
	if state.SessionID != "" && state.SessionID != id {
		return nil, engine.Inconsistent("history of %s opened as %s", state.SessionID, id)
	}
	s := newSession(id, store, eng, logger)
	s.state = state
	s.history = entries
	return s, nil
}

func newSession(id string, store Store, eng *command.Engine, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{id: id, store: store, engine: eng, logger: logger}
}

func (s *Session) ID() string { return s.id }

// State returns the live state. Callers outside the phase engine should use Snapshot.
func (s *Session) State() *engine.GameState {
	return s.state
}

// Emit stamps evt with the next sequence number and the day and phase it
// happened in, applies it and persists it. An event that fails to apply is
// never written; the live state may be partly mutated by then, so the session
// refuses every later event.
func (s *Session) Emit(evt engine.Event) error {
	if s.failed != nil {
		return s.failed
	}
	seq := s.state.Seq + 1
	entry, err := engine.NewEntry(seq, s.state.Day, s.state.Phase, evt)
	if err != nil {
		return err
	}
	if err := engine.Apply(s.state, seq, evt); err != nil {
		s.failed = fmt.Errorf("session %s: failed to apply %s: %w", s.id, evt.Type(), err)
		return s.failed
	}
	if err := s.store.Append(entry); err != nil {
		s.failed = fmt.Errorf("session %s: failed to persist history: %w", s.id, err)
		return s.failed
	}
	s.history = append(s.history, entry)
	return nil
}

// Advance runs exactly one phase step and returns the public snapshot.
func (s *Session) Advance(ctx context.Context) (engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state.Phase
	if err := s.engine.Advance(ctx, s); err != nil {
		s.logger.Printf("session %s: advance from %s: %v", s.id, from, err)
		return s.state.Snapshot(false), err
	}
	if s.state.Phase != from {
		s.logger.Printf("session %s: %s -> %s (day %d)", s.id, from, s.state.Phase, s.state.Day)
	}
	return s.state.Snapshot(false), nil
}

// CastVote records an externally submitted vote.
func (s *Session) CastVote(actor, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.CastVote(s, actor, target)
}

// Snapshot returns a copy of the state. The admin view is unredacted.
func (s *Session) Snapshot(admin bool) engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot(admin)
}

// History returns a copy of the entries recorded so far.
func (s *Session) History() []engine.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.HistoryEntry(nil), s.history...)
}

// Abort ends a running session.
func (s *Session) Abort(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase.Terminal() {
		return fmt.Errorf("%w: session %s already %s", engine.ErrInvalidPhase, s.id, s.state.Phase)
	}
	if err := s.Emit(&engine.SessionAbortedEvent{Reason: reason}); err != nil {
		return err
	}
	s.logger.Printf("session %s: aborted: %s", s.id, reason)
	return nil
}

// Close releases the store.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

// Replay folds a history into a fresh state.
func Replay(entries []engine.HistoryEntry) (*engine.GameState, error) {
	return engine.NewProjector().Build(entries)
}
