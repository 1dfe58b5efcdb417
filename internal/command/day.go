package command

import (
	"context"

	"github.com/suderio/werewolf-arena/internal/engine"
)

func (e *Engine) runMorning(em Emitter) error {
	state := em.State()
	var deaths []string
	for _, d := range state.DeathsOn(state.Day, engine.PhaseNight) {
		deaths = append(deaths, d.Player)
	}
	if err := em.Emit(&engine.MorningAnnouncedEvent{Day: state.Day, Deaths: deaths}); err != nil {
		return err
	}
	return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseDayMorning, To: engine.PhaseDayDiscussion})
}

// runDiscussion gives every living player one speech per round, in seat order.
func (e *Engine) runDiscussion(ctx context.Context, em Emitter) error {
	state := em.State()
	rounds := state.Rules.Normalize().DiscussionRounds
	for round := 1; round <= rounds; round++ {
		for _, p := range state.Alive() {
			if spoke(state, p.ID, round) {
				continue
			}
			d, err := e.decide(ctx, em, p.ID, engine.ActionSpeak)
			if err != nil {
				return err
			}
			if err := em.Emit(&engine.SpeechEvent{
				Speaker: p.ID,
				Round:   round,
				Text:    d.Response.FreeText,
				Source:  d.Source,
				Failure: d.Failure,
			}); err != nil {
				return err
			}
		}
	}
	return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseDayDiscussion, To: engine.PhaseDayVoting})
}

func spoke(state *engine.GameState, id string, round int) bool {
	if len(state.Transcripts) == 0 {
		return false
	}
	for _, s := range state.Transcripts[len(state.Transcripts)-1].Speeches {
		if s.Speaker == id && s.Round == round {
			return true
		}
	}
	return false
}

// runVoting collects the missing votes, tallies them and carries out the
// elimination.
func (e *Engine) runVoting(ctx context.Context, em Emitter) error {
	state := em.State()
	for _, p := range state.Alive() {
		if !state.CanVote(p.ID) || state.HasVoted(p.ID) {
			continue
		}
		d, err := e.decide(ctx, em, p.ID, engine.ActionVote)
		if err != nil {
			return err
		}
		target := ""
		if d.Response.Kind == engine.ActionVote {
			target = d.Response.TargetID
		}
		if err := em.Emit(&engine.VoteCastEvent{Voter: p.ID, Target: target, Source: d.Source, Failure: d.Failure}); err != nil {
			return err
		}
	}

	if result := todaysResult(state); result == nil {
		if err := em.Emit(tally(state)); err != nil {
			return err
		}
	}

	if out := todaysResult(state).Eliminated; out != "" {
		p := state.Player(out)
		switch {
		case p.Role == engine.RoleIdiot && !state.RoleState.RevealedIdiots[out]:
			if err := em.Emit(&engine.IdiotRevealedEvent{Player: out}); err != nil {
				return err
			}
		case p.Alive:
			if err := em.Emit(&engine.DeathEvent{Player: out, Cause: engine.CauseVote}); err != nil {
				return err
			}
		}
	}
	if err := e.resolveChain(ctx, em); err != nil {
		return err
	}
	return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseDayVoting, To: engine.PhaseVoteReveal})
}

func todaysResult(state *engine.GameState) *engine.VoteResult {
	if n := len(state.VoteResults); n > 0 && state.VoteResults[n-1].Day == state.Day {
		return &state.VoteResults[n-1]
	}
	return nil
}

// runReveal publishes the breakdown, then either ends the game or starts the next night.
func (e *Engine) runReveal(em Emitter) error {
	state := em.State()
	result := todaysResult(state)
	if result == nil {
		return engine.Inconsistent("vote reveal without a tally on day %d", state.Day)
	}
	evt := &engine.VotesRevealedEvent{Day: state.Day, Counts: result.Counts}
	if state.Rules.VoteTransparency {
		evt.Votes = result.Votes
	}
	if err := em.Emit(evt); err != nil {
		return err
	}
	if ended, err := e.checkWin(em); ended || err != nil {
		return err
	}
	return em.Emit(&engine.PhaseChangedEvent{From: engine.PhaseVoteReveal, To: engine.PhaseNight})
}
