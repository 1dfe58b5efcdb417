package eval

import (
	"sync"
	"time"

	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/decision"
	"github.com/suderio/werewolf-arena/internal/engine"
)

type tally struct {
	decisions      int
	heuristic      int
	timeouts       int
	providerErrors int
	latency        time.Duration
}

// Collector aggregates decision stats per session. Pass Observe to
// command.WithObserver.
type Collector struct {
	mu       sync.Mutex
	sessions map[string]*tally
}

func NewCollector() *Collector {
	return &Collector{sessions: make(map[string]*tally)}
}

func (c *Collector) Observe(stat command.DecisionStat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.sessions[stat.SessionID]
	if !ok {
		t = &tally{}
		c.sessions[stat.SessionID] = t
	}
	t.decisions++
	t.latency += stat.Latency
	if stat.Source == engine.SourceHeuristic {
		t.heuristic++
	}
	switch stat.Failure {
	case decision.FailTimeout:
		t.timeouts++
	case decision.FailProvider:
		t.providerErrors++
	}
}

// take removes and returns the tally of a session.
func (c *Collector) take(sessionID string) tally {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.sessions[sessionID]
	if !ok {
		return tally{}
	}
	delete(c.sessions, sessionID)
	return *t
}
