package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Agent makes decisions for one seat. Decide returns the raw reply; the
// engine validates it and falls back to a heuristic when it is unusable.
type Agent interface {
	Decide(ctx context.Context, req engine.ActionRequest) (string, error)
}

// Func adapts a function to the Agent interface.
type Func func(ctx context.Context, req engine.ActionRequest) (string, error)

func (f Func) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	return f(ctx, req)
}

// ErrSilent is returned by Silent for every request.
var ErrSilent = errors.New("silent agent")

// Silent never answers, so every decision it is asked for is heuristic.
type Silent struct{}

func (Silent) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	return "", fmt.Errorf("%w: %w", engine.ErrProvider, ErrSilent)
}

// Directory maps player ids to agents. Unmapped players get the fallback.
type Directory struct {
	mu       sync.RWMutex
	agents   map[string]Agent
	fallback Agent
}

// NewDirectory creates a directory. A nil fallback means Silent.
func NewDirectory(fallback Agent) *Directory {
	if fallback == nil {
		fallback = Silent{}
	}
	return &Directory{agents: make(map[string]Agent), fallback: fallback}
}

// Register binds an agent to a player.
func (d *Directory) Register(playerID string, a Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[playerID] = a
}

// Agent returns the agent playing playerID.
func (d *Directory) Agent(playerID string) Agent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if a, ok := d.agents[playerID]; ok {
		return a
	}
	return d.fallback
}
