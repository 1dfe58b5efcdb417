package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/suderio/werewolf-arena/internal/agent"
	"github.com/suderio/werewolf-arena/internal/decision"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/rules"
)

// Emitter persists an event and applies it to the live state returned by State.
type Emitter interface {
	Emit(evt engine.Event) error
	State() *engine.GameState
}

// Agents resolves the agent seated for a player.
type Agents interface {
	Agent(playerID string) agent.Agent
}

// DecisionStat describes one agent call. It is reported to observers and
// never written to the history.
type DecisionStat struct {
	SessionID string
	Actor     string
	Kind      engine.ActionKind
	Source    engine.Source
	Failure   string
	Latency   time.Duration
}

type Option func(*Engine)

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers a callback invoked after every agent decision.
func WithObserver(fn func(DecisionStat)) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}

// Engine drives the phase machine. It holds no per-session state: everything
// it needs is read from the emitter's state, so one engine can serve many sessions.
type Engine struct {
	catalog   *engine.Catalog
	builder   *decision.Builder
	validator *decision.Validator
	wins      *rules.WinEvaluator
	agents    Agents
	logger    *log.Logger
	observe   func(DecisionStat)
}

func New(catalog *engine.Catalog, wins *rules.WinEvaluator, agents Agents, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		builder:   decision.NewBuilder(catalog),
		validator: decision.NewValidator(),
		wins:      wins,
		agents:    agents,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advance runs exactly one phase step. Terminal phases are a no-op.
// A step interrupted by ctx can be resumed by calling Advance again.
func (e *Engine) Advance(ctx context.Context, em Emitter) error {
	state := em.State()
	switch state.Phase {
	case engine.PhaseLobby:
		return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseLobby, To: engine.PhaseNight})
	case engine.PhaseNight:
		return e.runNight(ctx, em)
	case engine.PhaseDayMorning:
		return e.runMorning(em)
	case engine.PhaseDayDiscussion:
		return e.runDiscussion(ctx, em)
	case engine.PhaseDayVoting:
		return e.runVoting(ctx, em)
	case engine.PhaseVoteReveal:
		return e.runReveal(em)
	case engine.PhaseEnd, engine.PhaseAborted:
		return nil
	}
	return engine.Inconsistent("unknown phase %q", state.Phase)
}

// decide asks the actor's agent under the decision timeout and validates the
// reply. Only cancellation of ctx itself is returned as an error.
func (e *Engine) decide(ctx context.Context, em Emitter, actor string, kind engine.ActionKind) (decision.Decision, error) {
	state := em.State()
	req, err := e.builder.Build(state, actor, kind)
	if err != nil {
		return decision.Decision{}, err
	}
	if len(req.AllowedActions) == 1 && req.AllowedActions[0] == engine.ActionNone {
		return decision.Decision{Response: engine.ActionResponse{Kind: engine.ActionNone}, Source: engine.SourceEngine}, nil
	}

	start := time.Now()
	raw, callErr := e.call(ctx, state, req)
	if err := ctx.Err(); err != nil {
		return decision.Decision{}, err
	}

	d := e.validator.Validate(state, req, raw, callErr)
	if d.Source == engine.SourceHeuristic {
		e.logger.Printf("session %s: heuristic %s for %s (%s)", state.SessionID, kind, actor, d.Failure)
	}
	if e.observe != nil {
		e.observe(DecisionStat{
			SessionID: state.SessionID,
			Actor:     actor,
			Kind:      kind,
			Source:    d.Source,
			Failure:   d.Failure,
			Latency:   time.Since(start),
		})
	}
	return d, nil
}

func (e *Engine) call(ctx context.Context, state *engine.GameState, req engine.ActionRequest) (string, error) {
	a := e.agents.Agent(req.ActorID)
	if a == nil {
		return "", fmt.Errorf("%w: no agent seated for %s", engine.ErrProvider, req.ActorID)
	}

	dctx := ctx
	if timeout := state.Rules.DecisionTimeout; timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type reply struct {
		raw string
		err error
	}
	done := make(chan reply, 1)
	go func() {
		raw, err := a.Decide(dctx, req)
		done <- reply{raw, err}
	}()

	var raw string
	var err error
	select {
	case r := <-done:
		raw, err = r.raw, r.err
	case <-dctx.Done():
		// agents that ignore ctx are abandoned; their late reply is dropped
		err = dctx.Err()
	}
	if err == nil && errors.Is(dctx.Err(), context.DeadlineExceeded) {
		err = dctx.Err()
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, engine.ErrTimeout) {
		err = fmt.Errorf("%w: %s after %s", engine.ErrTimeout, req.ActorID, state.Rules.DecisionTimeout)
	}
	return raw, err
}

// checkWin ends the game when a win condition holds.
func (e *Engine) checkWin(em Emitter) (bool, error) {
	winner, err := e.wins.Winner(em.State())
	if err != nil {
		return false, err
	}
	if winner == "" {
		return false, nil
	}
	return true, em.Emit(&engine.GameEndedEvent{Winner: winner})
}

// CastVote records a vote submitted from outside the engine, ahead of the
// voting step. An empty target abstains.
func (e *Engine) CastVote(em Emitter, voter, target string) error {
	state := em.State()
	if state.Phase != engine.PhaseDayVoting {
		return fmt.Errorf("%w: votes are cast during %s, not %s", engine.ErrInvalidPhase, engine.PhaseDayVoting, state.Phase)
	}
	if !state.CanVote(voter) {
		return fmt.Errorf("%w: player %q cannot vote", engine.ErrInvalidAction, voter)
	}
	if state.HasVoted(voter) {
		return fmt.Errorf("%w: player %q already voted", engine.ErrInvalidAction, voter)
	}
	if target != "" {
		if t := state.Player(target); t == nil || !t.Alive || target == voter {
			return fmt.Errorf("%w: %q is not a valid vote target", engine.ErrInvalidAction, target)
		}
	}
	return em.Emit(&engine.VoteCastEvent{Voter: voter, Target: target, Source: engine.SourceHuman})
}
