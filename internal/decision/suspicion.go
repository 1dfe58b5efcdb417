package decision

import (
	"github.com/suderio/werewolf-arena/internal/engine"
)

// Suspicion scores every player from the viewer's perspective: two points per
// past vote received, one per mention in someone else's speech, and plus or
// minus ten for the viewer's own seer reveals.
func Suspicion(state *engine.GameState, viewer string) map[string]int {
	score := make(map[string]int, len(state.Players))
	for _, r := range state.VoteResults {
		for _, v := range r.Votes {
			if v.Target != "" {
				score[v.Target] += 2
			}
		}
	}
	for _, t := range state.Transcripts {
		for _, s := range t.Speeches {
			for _, p := range state.Players {
				if p.ID != s.Speaker {
					score[p.ID] += mentions(s.Text, p)
				}
			}
		}
	}
	for _, r := range state.RoleState.Reveals[viewer] {
		if r.Werewolf {
			score[r.Target] += 10
		} else {
			score[r.Target] -= 10
		}
	}
	return score
}

// top returns the highest scored candidate, ties going to the earliest
// candidate, and whether the top score was shared.
func top(candidates []string, score map[string]int) (string, bool) {
	best, tie := "", false
	for _, id := range candidates {
		switch {
		case best == "" || score[id] > score[best]:
			best, tie = id, false
		case score[id] == score[best]:
			tie = true
		}
	}
	return best, tie
}
