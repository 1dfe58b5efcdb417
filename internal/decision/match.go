package decision

import (
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// ResolveTarget maps a name written by an agent to one of the candidate ids.
// Ids match first, then display names: exact, contained in the text as a
// whole word, and finally the text starting with the name's first word.
// Text that exactly names a player who is not a candidate never resolves.
func ResolveTarget(state *engine.GameState, text string, candidates []string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(text))
	if low == "" {
		return "", false
	}
	for _, id := range candidates {
		if strings.ToLower(id) == low {
			return id, true
		}
	}

	labels := make([]string, len(candidates))
	for i, id := range candidates {
		labels[i] = strings.ToLower(id)
		if p := state.Player(id); p != nil && p.Name != "" {
			labels[i] = strings.ToLower(p.Name)
		}
	}
	for i, label := range labels {
		if label == low {
			return candidates[i], true
		}
	}
	for _, p := range state.Players {
		if strings.ToLower(p.ID) == low || (p.Name != "" && strings.ToLower(p.Name) == low) {
			return "", false
		}
	}
	for i, label := range labels {
		if countWord(low, label) > 0 {
			return candidates[i], true
		}
	}
	for i, label := range labels {
		first := strings.Fields(label)
		if len(first) > 0 && strings.HasPrefix(low, first[0]) &&
			(len(low) == len(first[0]) || !isWordByte(low[len(first[0])])) {
			return candidates[i], true
		}
	}
	return "", false
}
