package rules

import (
	"github.com/suderio/werewolf-arena/internal/engine"
)

// ContextFromState converts the living roster into the variables of a rule expression.
// Every role in roles is present in alive_roles, with zero when nobody holds it.
func ContextFromState(state *engine.GameState, roles []string) map[string]any {
	aliveRoles := make(map[string]int64, len(roles))
	for _, r := range roles {
		aliveRoles[r] = 0
	}

	var alive, wolves, villagers, third, lovers int64
	for _, p := range state.Alive() {
		alive++
		aliveRoles[p.Role]++
		switch state.TeamOf(p.ID) {
		case engine.TeamWerewolves:
			wolves++
		case engine.TeamVillagers:
			villagers++
		case engine.TeamThirdParty:
			third++
		}
	}
	for _, id := range state.RoleState.Lovers {
		if p := state.Player(id); p != nil && p.Alive {
			lovers++
		}
	}

	return map[string]any{
		"day":          int64(state.Day),
		"alive":        alive,
		"wolves":       wolves,
		"villagers":    villagers,
		"third_party":  third,
		"lovers_alive": lovers,
		"alive_roles":  aliveRoles,
	}
}
