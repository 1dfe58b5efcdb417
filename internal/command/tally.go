package command

import "github.com/suderio/werewolf-arena/internal/engine"

// plurality returns the most counted player, ties going to the lowest seat,
// and whether the top count was shared.
func plurality(state *engine.GameState, counts map[string]int) (string, bool) {
	best, tie := "", false
	for _, p := range state.Players {
		n := counts[p.ID]
		if n == 0 {
			continue
		}
		switch {
		case best == "" || n > counts[best]:
			best, tie = p.ID, false
		case n == counts[best]:
			tie = true
		}
	}
	return best, tie
}

// tally counts today's votes and applies the tie policy.
func tally(state *engine.GameState) *engine.VoteTalliedEvent {
	counts := make(map[string]int)
	for _, v := range state.Votes {
		if v.Target != "" {
			counts[v.Target]++
		}
	}
	best, tie := plurality(state, counts)
	evt := &engine.VoteTalliedEvent{Counts: counts, Tie: tie}
	if !tie || state.Rules.VoteTiePolicy == engine.TieLowestSeat {
		evt.Eliminated = best
	}
	return evt
}
