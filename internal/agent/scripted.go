package agent

import (
	"context"
	"sync"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Scripted replays canned replies per actor, in order. An exhausted queue
// answers with an empty reply.
type Scripted struct {
	mu      sync.Mutex
	replies map[string][]string
	asked   []engine.ActionRequest
}

func NewScripted(replies map[string][]string) *Scripted {
	s := &Scripted{replies: make(map[string][]string)}
	for actor, rs := range replies {
		s.replies[actor] = append([]string(nil), rs...)
	}
	return s
}

// Push queues more replies for an actor.
func (s *Scripted) Push(actor string, replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[actor] = append(s.replies[actor], replies...)
}

func (s *Scripted) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, req)
	queue := s.replies[req.ActorID]
	if len(queue) == 0 {
		return "", nil
	}
	s.replies[req.ActorID] = queue[1:]
	return queue[0], nil
}

// Asked returns every request received so far.
func (s *Scripted) Asked() []engine.ActionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.ActionRequest(nil), s.asked...)
}
