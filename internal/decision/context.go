package decision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Builder assembles the decision request of one actor. It is a pure
// projection of the state.
type Builder struct {
	catalog *engine.Catalog
}

// NewBuilder creates a context builder over a role catalog.
func NewBuilder(catalog *engine.Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Build returns the request for actorID to make a decision of the given kind
// in the current phase and day.
func (b *Builder) Build(state *engine.GameState, actorID string, kind engine.ActionKind) (engine.ActionRequest, error) {
	if err := CheckHistory(state); err != nil {
		return engine.ActionRequest{}, err
	}
	actor := state.Player(actorID)
	if actor == nil {
		return engine.ActionRequest{}, engine.Inconsistent("request for unknown player %q", actorID)
	}
	if !actor.Alive && kind != engine.ActionShoot {
		return engine.ActionRequest{}, engine.Inconsistent("request for dead player %q", actorID)
	}
	role, ok := b.catalog.Role(actor.Role)
	if !ok {
		return engine.ActionRequest{}, engine.Inconsistent("player %q has unknown role %q", actorID, actor.Role)
	}

	req := engine.ActionRequest{
		SessionID:        state.SessionID,
		ActorID:          actorID,
		Phase:            state.Phase,
		Day:              state.Day,
		ExpectedAction:   kind,
		AvailableTargets: targetsFor(state, actor, kind),
	}
	req.AllowedActions = allowedFor(kind, role, len(req.AvailableTargets) > 0)

	payload := b.payload(state, actor)
	Compress(payload, state.Rules.ContextBudget, state.Day, state.Players)
	req.Context = payload
	return req, nil
}

func allowedFor(kind engine.ActionKind, role engine.Role, hasTargets bool) []engine.ActionKind {
	switch kind {
	case engine.ActionSpeak:
		return []engine.ActionKind{engine.ActionSpeak}
	case engine.ActionPotion:
		var out []engine.ActionKind
		for _, k := range []engine.ActionKind{engine.ActionSave, engine.ActionPoison} {
			if role.Can(k) && hasTargets {
				out = append(out, k)
			}
		}
		return append(out, engine.ActionNone)
	case engine.ActionVote, engine.ActionShoot:
		if !hasTargets {
			return []engine.ActionKind{engine.ActionNone}
		}
		return []engine.ActionKind{kind, engine.ActionNone}
	}
	if !hasTargets {
		return []engine.ActionKind{engine.ActionNone}
	}
	return []engine.ActionKind{kind}
}

func targetsFor(state *engine.GameState, actor *engine.Player, kind engine.ActionKind) []string {
	if kind == engine.ActionSpeak || kind == engine.ActionNone {
		return nil
	}
	var out []string
	for _, p := range state.Alive() {
		if p.ID == actor.ID {
			if kind == engine.ActionPotion && state.Night.KillTarget == actor.ID {
				out = append(out, p.ID)
			}
			continue
		}
		if kind == engine.ActionProtect && state.RoleState.LastProtected[actor.ID] == p.ID {
			continue
		}
		out = append(out, p.ID)
	}
	return out
}

func (b *Builder) payload(state *engine.GameState, actor *engine.Player) *engine.Payload {
	wolf := state.IsWolf(actor.ID)
	p := &engine.Payload{
		You: engine.PlayerView{ID: actor.ID, Name: actor.Name, Role: actor.Role},
	}

	for _, other := range state.Players {
		view := engine.PlayerView{ID: other.ID, Name: other.Name}
		if other.ID == actor.ID ||
			(wolf && state.IsWolf(other.ID)) ||
			state.RoleState.RevealedIdiots[other.ID] ||
			(!other.Alive && state.Rules.RevealRoleOnDeath) {
			view.Role = other.Role
		}
		if other.Alive {
			p.Alive = append(p.Alive, view)
		} else {
			p.Dead = append(p.Dead, view)
		}
		if wolf && other.ID != actor.ID && state.IsWolf(other.ID) {
			p.Teammates = append(p.Teammates, other.ID)
		}
		if state.RoleState.RevealedIdiots[other.ID] {
			p.RevealedIdiots = append(p.RevealedIdiots, other.ID)
		}
	}

	if wolf && state.Phase == engine.PhaseNight && len(state.Night.WolfPicks) > 0 {
		p.TeamPicks = make(map[string]string, len(state.Night.WolfPicks))
		for k, v := range state.Night.WolfPicks {
			p.TeamPicks[k] = v
		}
	}
	if reveals := state.RoleState.Reveals[actor.ID]; len(reveals) > 0 {
		p.SeerReveals = append([]engine.Reveal(nil), reveals...)
	}
	if potions, ok := state.RoleState.Potions[actor.ID]; ok {
		cp := potions
		p.Potions = &cp
		if state.Phase == engine.PhaseNight {
			p.WolfTarget = state.Night.KillTarget
		}
	}
	p.LastProtected = state.RoleState.LastProtected[actor.ID]
	p.Partner = state.LoverOf(actor.ID)
	p.Summary = Summarize(state)
	for _, t := range state.Transcripts {
		p.Transcripts = append(p.Transcripts, engine.Transcript{
			Day:      t.Day,
			Speeches: append([]engine.Speech(nil), t.Speeches...),
		})
	}
	return p
}

// Summarize renders the public history as one line per night and per day vote.
func Summarize(state *engine.GameState) []string {
	var lines []string
	for day := 1; day <= state.Day; day++ {
		if day < state.Day || state.Phase != engine.PhaseNight {
			var killed []string
			for _, d := range state.DeathsOn(day, engine.PhaseNight) {
				killed = append(killed, d.Player)
			}
			lines = append(lines, fmt.Sprintf("Night %d: killed=%s", day, listOrNone(killed)))
		}
		for _, r := range state.VoteResults {
			if r.Day != day {
				continue
			}
			line := fmt.Sprintf("Day %d: eliminated=%s", day, orNone(r.Eliminated))
			if r.Spared != "" {
				line += ", spared=" + r.Spared
			}
			if state.Rules.VoteTransparency {
				var votes []string
				for _, v := range r.Votes {
					votes = append(votes, v.Voter+"->"+orNone(v.Target))
				}
				line += ", votes=" + listOrNone(votes)
			} else {
				line += ", votes=" + countsLine(r.Counts)
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func countsLine(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return listOrNone(parts)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ",")
}

// CheckHistory verifies that every player id referenced by the state's
// records belongs to the roster.
func CheckHistory(state *engine.GameState) error {
	known := func(id string) bool { return id == "" || state.Player(id) != nil }
	check := func(what, id string) error {
		if !known(id) {
			return engine.Inconsistent("%s references unknown player %q", what, id)
		}
		return nil
	}

	for _, t := range state.Transcripts {
		for _, s := range t.Speeches {
			if err := check("transcript", s.Speaker); err != nil {
				return err
			}
		}
	}
	for _, v := range state.Votes {
		if err := firstErr(check("vote", v.Voter), check("vote", v.Target)); err != nil {
			return err
		}
	}
	for _, r := range state.VoteResults {
		for _, v := range r.Votes {
			if err := firstErr(check("vote result", v.Voter), check("vote result", v.Target)); err != nil {
				return err
			}
		}
		if err := check("vote result", r.Eliminated); err != nil {
			return err
		}
	}
	for seer, reveals := range state.RoleState.Reveals {
		if err := check("reveal", seer); err != nil {
			return err
		}
		for _, r := range reveals {
			if err := check("reveal", r.Target); err != nil {
				return err
			}
		}
	}
	for _, d := range state.Deaths {
		if err := check("death", d.Player); err != nil {
			return err
		}
	}
	for _, id := range state.RoleState.Lovers {
		if err := check("lovers", id); err != nil {
			return err
		}
	}
	for wolf, target := range state.Night.WolfPicks {
		if err := firstErr(check("wolf pick", wolf), check("wolf pick", target)); err != nil {
			return err
		}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
