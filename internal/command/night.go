package command

import (
	"context"

	"github.com/suderio/werewolf-arena/internal/engine"
)

func (e *Engine) runNight(ctx context.Context, em Emitter) error {
	state := em.State()
	order := e.catalog.NightActionOrder(state.RolesPresent())

	lastKill := -1
	for i, id := range order {
		if e.catalog.MustRole(id).NightKind() == engine.ActionKill {
			lastKill = i
		}
	}

	for i, id := range order {
		role := e.catalog.MustRole(id)
		kind := role.NightKind()
		for _, p := range state.AliveWithRole(id) {
			if state.Night.Acted[p.ID] {
				continue
			}
			if kind == engine.ActionPair && len(state.RoleState.Lovers) > 0 {
				break
			}
			if err := e.nightAction(ctx, em, p, role, kind); err != nil {
				return err
			}
		}
		if i == lastKill && !state.Night.Resolved {
			if err := e.resolveKill(em); err != nil {
				return err
			}
		}
	}

	if err := e.emitDeaths(em, nightDeaths(state)); err != nil {
		return err
	}
	if err := e.resolveChain(ctx, em); err != nil {
		return err
	}
	if ended, err := e.checkWin(em); ended || err != nil {
		return err
	}
	return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseNight, To: engine.PhaseDayMorning})
}

func (e *Engine) nightAction(ctx context.Context, em Emitter, p *engine.Player, role engine.Role, kind engine.ActionKind) error {
	d, err := e.decide(ctx, em, p.ID, kind)
	if err != nil {
		return err
	}
	resp := d.Response
	evt := &engine.ActionTakenEvent{
		Actor:   p.ID,
		Role:    role.ID,
		Action:  resp.Kind,
		Target:  resp.TargetID,
		Source:  d.Source,
		Failure: d.Failure,
		Reason:  resp.FreeText,
	}

	state := em.State()
	switch resp.Kind {
	case engine.ActionReveal:
		evt.Werewolf = state.IsWolf(resp.TargetID)
	case engine.ActionPair:
		evt.Secondary = resp.SecondaryTarget
	case engine.ActionSave:
		if resp.SecondaryTarget != "" {
			if err := em.Emit(evt); err != nil {
				return err
			}
			return em.Emit(&engine.ActionTakenEvent{
				Actor:   p.ID,
				Role:    role.ID,
				Action:  engine.ActionPoison,
				Target:  resp.SecondaryTarget,
				Source:  d.Source,
				Failure: d.Failure,
			})
		}
	}
	return em.Emit(evt)
}

// resolveKill picks the werewolf team's victim by plurality of picks,
// ties going to the lowest seat.
func (e *Engine) resolveKill(em Emitter) error {
	state := em.State()
	counts := make(map[string]int)
	for _, wolf := range state.Night.WolfOrder {
		if target := state.Night.WolfPicks[wolf]; target != "" {
			counts[target]++
		}
	}
	target, _ := plurality(state, counts)
	return em.Emit(&engine.KillResolvedEvent{Target: target, Counts: counts})
}

type death struct {
	player string
	cause  string
}

// nightDeaths applies protection and potions to the night's picks. A player
// both bitten and poisoned dies of the poison.
func nightDeaths(state *engine.GameState) []death {
	night := state.Night
	var out []death
	kill := night.KillTarget
	if kill != "" && !night.Protected[kill] && night.Saved != kill && kill != night.Poisoned {
		out = append(out, death{kill, engine.CauseWerewolves})
	}
	if night.Poisoned != "" {
		out = append(out, death{night.Poisoned, engine.CausePoison})
	}
	return out
}

func (e *Engine) emitDeaths(em Emitter, deaths []death) error {
	state := em.State()
	for _, d := range deaths {
		if p := state.Player(d.player); p == nil || !p.Alive {
			continue
		}
		if err := em.Emit(&engine.DeathEvent{Player: d.player, Cause: d.cause}); err != nil {
			return err
		}
	}
	return nil
}

// resolveChain settles consequences of deaths until none are left: a lover
// dies of heartbreak, a dead hunter takes the shot.
func (e *Engine) resolveChain(ctx context.Context, em Emitter) error {
	state := em.State()
	for {
		if survivor := heartbroken(state); survivor != "" {
			if err := em.Emit(&engine.DeathEvent{Player: survivor, Cause: engine.CauseHeartbreak}); err != nil {
				return err
			}
			continue
		}

		hunter := e.pendingHunter(state)
		if hunter == nil {
			return nil
		}
		d, err := e.decide(ctx, em, hunter.ID, engine.ActionShoot)
		if err != nil {
			return err
		}
		target := ""
		if d.Response.Kind == engine.ActionShoot {
			target = d.Response.TargetID
		}
		if err := em.Emit(&engine.ActionTakenEvent{
			Actor:   hunter.ID,
			Role:    hunter.Role,
			Action:  engine.ActionShoot,
			Target:  target,
			Source:  d.Source,
			Failure: d.Failure,
		}); err != nil {
			return err
		}
		if target != "" {
			if err := em.Emit(&engine.DeathEvent{Player: target, Cause: engine.CauseHunter}); err != nil {
				return err
			}
		}
	}
}

func heartbroken(state *engine.GameState) string {
	lovers := state.RoleState.Lovers
	if len(lovers) != 2 {
		return ""
	}
	a, b := state.Player(lovers[0]), state.Player(lovers[1])
	if a == nil || b == nil || a.Alive == b.Alive {
		return ""
	}
	if a.Alive {
		return a.ID
	}
	return b.ID
}

// pendingHunter returns the first dead shooter who has not used the shot and
// is allowed to take it.
func (e *Engine) pendingHunter(state *engine.GameState) *engine.Player {
	for _, p := range state.Players {
		if p.Alive || state.RoleState.HunterShots[p.ID] {
			continue
		}
		role, ok := e.catalog.Role(p.Role)
		if !ok || !role.Can(engine.ActionShoot) {
			continue
		}
		if causeOf(state, p.ID) == engine.CausePoison && !state.Rules.PoisonedHunterCanShoot {
			continue
		}
		return p
	}
	return nil
}

func causeOf(state *engine.GameState, id string) string {
	for _, d := range state.Deaths {
		if d.Player == id {
			return d.Cause
		}
	}
	return ""
}
