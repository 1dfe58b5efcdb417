package decision

import (
	"fmt"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Fallback returns the deterministic heuristic decision for a request.
// Ties always resolve to the earlier seat.
func Fallback(state *engine.GameState, req engine.ActionRequest) engine.ActionResponse {
	none := engine.ActionResponse{Kind: engine.ActionNone}
	score := Suspicion(state, req.ActorID)
	targets := req.AvailableTargets

	switch req.ExpectedAction {
	case engine.ActionSpeak:
		others := exclude(state.Alive(), req.ActorID)
		if suspect, _ := top(others, score); suspect != "" && score[suspect] > 0 {
			return engine.ActionResponse{Kind: engine.ActionSpeak, FreeText: fmt.Sprintf("I suspect %s.", suspect)}
		}
		return engine.ActionResponse{Kind: engine.ActionSpeak, FreeText: "I have no strong read yet."}

	case engine.ActionKill:
		pool := filter(targets, func(id string) bool { return !state.IsWolf(id) })
		if len(pool) == 0 {
			pool = targets
		}
		if target, _ := top(pool, score); target != "" {
			return engine.ActionResponse{Kind: engine.ActionKill, TargetID: target}
		}

	case engine.ActionVote:
		pool := targets
		if state.IsWolf(req.ActorID) {
			pool = filter(targets, func(id string) bool { return !state.IsWolf(id) })
		}
		if target, tie := top(pool, score); target != "" && !tie {
			return engine.ActionResponse{Kind: engine.ActionVote, TargetID: target}
		}

	case engine.ActionReveal:
		seen := make(map[string]bool)
		for _, r := range state.RoleState.Reveals[req.ActorID] {
			seen[r.Target] = true
		}
		pool := filter(targets, func(id string) bool { return !seen[id] })
		if len(pool) == 0 {
			pool = targets
		}
		if target, _ := top(pool, score); target != "" {
			return engine.ActionResponse{Kind: engine.ActionReveal, TargetID: target}
		}

	case engine.ActionProtect:
		if len(targets) > 0 {
			return engine.ActionResponse{Kind: engine.ActionProtect, TargetID: targets[0]}
		}

	case engine.ActionPotion:
		kill := state.Night.KillTarget
		potions := state.RoleState.Potions[req.ActorID]
		if kill != "" && potions.Save && req.HasTarget(kill) &&
			state.Night.PotionsUsed[req.ActorID] < state.Rules.WitchPotionsPerNight {
			return engine.ActionResponse{Kind: engine.ActionSave, TargetID: kill}
		}

	case engine.ActionPair:
		if len(targets) >= 2 {
			return engine.ActionResponse{Kind: engine.ActionPair, TargetID: targets[0], SecondaryTarget: targets[1]}
		}

	case engine.ActionShoot:
		pool := filter(targets, func(id string) bool { return !state.IsWolf(req.ActorID) || !state.IsWolf(id) })
		if target, _ := top(pool, score); target != "" && score[target] > 0 {
			return engine.ActionResponse{Kind: engine.ActionShoot, TargetID: target}
		}
	}
	return none
}

func exclude(players []*engine.Player, id string) []string {
	var out []string
	for _, p := range players {
		if p.ID != id {
			out = append(out, p.ID)
		}
	}
	return out
}

func filter(ids []string, keep func(string) bool) []string {
	var out []string
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
