package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/werewolf-arena/internal/agent"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/rules"
)

// recorder is an in-memory emitter.
type recorder struct {
	state  *engine.GameState
	events []engine.Event
}

func (r *recorder) State() *engine.GameState { return r.state }

func (r *recorder) Emit(evt engine.Event) error {
	if err := engine.Apply(r.state, int64(len(r.events)+1), evt); err != nil {
		return err
	}
	r.events = append(r.events, evt)
	return nil
}

// plan answers by actor and expected action; anything missing is an empty reply.
type plan map[string]map[engine.ActionKind]string

func (p plan) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	return p[req.ActorID][req.ExpectedAction], nil
}

func act(kind engine.ActionKind, target string) string {
	return fmt.Sprintf(`{"action":%q,"target":%q}`, kind, target)
}

type game struct {
	engine *Engine
	rec    *recorder
}

func newGame(t *testing.T, roles []string, a agent.Agent, tweak ...func(*engine.Rules)) *game {
	t.Helper()
	catalog := engine.DefaultCatalog()
	r := engine.DefaultRules()
	r.DecisionTimeout = time.Second
	for _, fn := range tweak {
		fn(&r)
	}

	var seats []engine.Seat
	var assignments []engine.Assignment
	for i, role := range roles {
		id := fmt.Sprintf("p%d", i+1)
		seats = append(seats, engine.Seat{ID: id, Name: fmt.Sprintf("Name%d", i+1)})
		assignments = append(assignments, engine.Assignment{PlayerID: id, Role: role, Team: catalog.MustRole(role).Team})
	}
	rec := &recorder{state: engine.NewGameState()}
	require.NoError(t, rec.Emit(&engine.SessionCreatedEvent{SessionID: "g1", Rules: r, Seats: seats}))
	require.NoError(t, rec.Emit(&engine.RolesAssignedEvent{Assignments: assignments}))

	reg, err := rules.NewRegistry()
	require.NoError(t, err)
	wins, err := rules.NewWinEvaluator(reg, catalog.IDs(), nil)
	require.NoError(t, err)
	return &game{engine: New(catalog, wins, agent.NewDirectory(a)), rec: rec}
}

func (g *game) advance(t *testing.T) {
	t.Helper()
	require.NoError(t, g.engine.Advance(context.Background(), g.rec))
}

func (g *game) advanceTo(t *testing.T, phase engine.Phase) {
	t.Helper()
	for i := 0; i < 50 && g.rec.state.Phase != phase; i++ {
		require.False(t, g.rec.state.Phase.Terminal(), "game ended before %s", phase)
		g.advance(t)
	}
	require.Equal(t, phase, g.rec.state.Phase)
}

func eventsOf[T engine.Event](events []engine.Event) []T {
	var out []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestWolfKillResolution(t *testing.T) {
	t.Run("Plurality", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "werewolf", "werewolf", "villager", "villager", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionKill: act(engine.ActionKill, "p5")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p5")},
			"p3": {engine.ActionKill: act(engine.ActionKill, "p4")},
		})
		g.advanceTo(t, engine.PhaseDayMorning)

		resolved := eventsOf[*engine.KillResolvedEvent](g.rec.events)
		require.Len(t, resolved, 1)
		assert.Equal(t, "p5", resolved[0].Target)
		assert.Equal(t, map[string]int{"p5": 2, "p4": 1}, resolved[0].Counts)
		assert.False(t, g.rec.state.Player("p5").Alive)
	})

	t.Run("Tie Goes To Lower Seat", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "werewolf", "villager", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionKill: act(engine.ActionKill, "p5")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p4")},
		})
		g.advanceTo(t, engine.PhaseDayMorning)
		assert.False(t, g.rec.state.Player("p4").Alive)
		assert.True(t, g.rec.state.Player("p5").Alive)
	})

	t.Run("Later Wolves See Earlier Picks", func(t *testing.T) {
		var seen map[string]string
		a := agent.Func(func(ctx context.Context, req engine.ActionRequest) (string, error) {
			if req.ActorID == "p2" {
				seen = req.Context.TeamPicks
			}
			return act(engine.ActionKill, "p3"), nil
		})
		g := newGame(t, []string{"werewolf", "werewolf", "villager", "villager", "villager", "villager"}, a)
		g.advanceTo(t, engine.PhaseDayMorning)
		assert.Equal(t, map[string]string{"p1": "p3"}, seen)
	})
}

func TestNightProtection(t *testing.T) {
	t.Run("Guard Blocks Kill", func(t *testing.T) {
		g := newGame(t, []string{"guard", "werewolf", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionProtect: act(engine.ActionProtect, "p3")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p3")},
		})
		g.advanceTo(t, engine.PhaseDayMorning)
		g.advance(t)

		assert.True(t, g.rec.state.Player("p3").Alive)
		morning := eventsOf[*engine.MorningAnnouncedEvent](g.rec.events)
		require.Len(t, morning, 1)
		assert.Empty(t, morning[0].Deaths)
	})

	t.Run("Witch Saves", func(t *testing.T) {
		g := newGame(t, []string{"witch", "werewolf", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionPotion: act(engine.ActionSave, "p3")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p3")},
		})
		g.advanceTo(t, engine.PhaseDayMorning)
		assert.True(t, g.rec.state.Player("p3").Alive)
		assert.False(t, g.rec.state.RoleState.Potions["p1"].Save)
		assert.True(t, g.rec.state.RoleState.Potions["p1"].Poison)
	})

	t.Run("Witch Poisons The Last Wolf", func(t *testing.T) {
		g := newGame(t, []string{"witch", "werewolf", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionPotion: act(engine.ActionPoison, "p2")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p3")},
		})
		g.advance(t)
		g.advance(t)

		assert.Equal(t, engine.PhaseEnd, g.rec.state.Phase)
		assert.Equal(t, string(engine.TeamVillagers), g.rec.state.Winner)
		causes := map[string]string{}
		for _, d := range g.rec.state.Deaths {
			causes[d.Player] = d.Cause
		}
		assert.Equal(t, map[string]string{"p3": engine.CauseWerewolves, "p2": engine.CausePoison}, causes)
	})
}

func TestDeathChains(t *testing.T) {
	t.Run("Hunter Shoots", func(t *testing.T) {
		g := newGame(t, []string{"hunter", "werewolf", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionShoot: act(engine.ActionShoot, "p2")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p1")},
		})
		g.advance(t)
		g.advance(t)

		assert.False(t, g.rec.state.Player("p2").Alive)
		assert.Equal(t, engine.CauseHunter, g.rec.state.Deaths[1].Cause)
		assert.Equal(t, string(engine.TeamVillagers), g.rec.state.Winner)
	})

	poisoned := func(t *testing.T, canShoot bool) *game {
		g := newGame(t, []string{"witch", "werewolf", "hunter", "villager", "villager"}, plan{
			"p1": {engine.ActionPotion: act(engine.ActionPoison, "p3")},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p4")},
		}, func(r *engine.Rules) { r.PoisonedHunterCanShoot = canShoot })
		g.advanceTo(t, engine.PhaseDayMorning)
		return g
	}
	shots := func(g *game) int {
		n := 0
		for _, e := range eventsOf[*engine.ActionTakenEvent](g.rec.events) {
			if e.Action == engine.ActionShoot {
				n++
			}
		}
		return n
	}

	t.Run("Poisoned Hunter Stays Silent", func(t *testing.T) {
		assert.Zero(t, shots(poisoned(t, false)))
	})

	t.Run("Poisoned Hunter May Shoot", func(t *testing.T) {
		g := poisoned(t, true)
		assert.Equal(t, 1, shots(g))
		assert.True(t, g.rec.state.RoleState.HunterShots["p3"])
	})

	t.Run("Lovers Die Together", func(t *testing.T) {
		g := newGame(t, []string{"cupid", "werewolf", "villager", "villager", "villager"}, plan{
			"p1": {engine.ActionPair: `{"action":"pair","target":"p3","secondary_target":"p4"}`},
			"p2": {engine.ActionKill: act(engine.ActionKill, "p3")},
		})
		g.advanceTo(t, engine.PhaseDayMorning)

		require.Len(t, g.rec.state.Deaths, 2)
		assert.Equal(t, engine.Death{Player: "p3", Cause: engine.CauseWerewolves, Day: 1, Phase: engine.PhaseNight}, g.rec.state.Deaths[0])
		assert.Equal(t, engine.Death{Player: "p4", Cause: engine.CauseHeartbreak, Day: 1, Phase: engine.PhaseNight}, g.rec.state.Deaths[1])
	})
}

func votePlan(votes map[string]string, extra plan) plan {
	p := plan{}
	for voter, target := range votes {
		p[voter] = map[engine.ActionKind]string{engine.ActionVote: act(engine.ActionVote, target)}
	}
	for actor, kinds := range extra {
		if p[actor] == nil {
			p[actor] = map[engine.ActionKind]string{}
		}
		for k, v := range kinds {
			p[actor][k] = v
		}
	}
	return p
}

func TestVoting(t *testing.T) {
	wolfKillsP5 := plan{"p1": {engine.ActionKill: act(engine.ActionKill, "p5")}}

	t.Run("Idiot Survives", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "idiot", "villager", "villager", "villager"},
			votePlan(map[string]string{"p1": "p2", "p2": "p1", "p3": "p2", "p4": "p2"}, wolfKillsP5))
		g.advanceTo(t, engine.PhaseVoteReveal)

		state := g.rec.state
		assert.True(t, state.Player("p2").Alive)
		assert.True(t, state.RoleState.RevealedIdiots["p2"])
		assert.False(t, state.CanVote("p2"))
		assert.Equal(t, "p2", state.VoteResults[0].Spared)
		assert.Empty(t, state.VoteResults[0].Eliminated)
		assert.Equal(t, "idiot", state.Snapshot(false).Players[1].Role)
	})

	ties := map[string]string{"p1": "p2", "p2": "p1", "p3": "p1", "p4": "p2"}

	t.Run("Tie Spares Everyone", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "villager", "villager", "villager", "villager"}, votePlan(ties, wolfKillsP5))
		g.advanceTo(t, engine.PhaseVoteReveal)
		result := g.rec.state.VoteResults[0]
		assert.True(t, result.Tie)
		assert.Empty(t, result.Eliminated)
		assert.Len(t, g.rec.state.Alive(), 4)
	})

	t.Run("Tie Eliminates Lowest Seat", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "villager", "villager", "villager", "villager"}, votePlan(ties, wolfKillsP5),
			func(r *engine.Rules) { r.VoteTiePolicy = engine.TieLowestSeat })
		g.advanceTo(t, engine.PhaseVoteReveal)
		assert.Equal(t, "p1", g.rec.state.VoteResults[0].Eliminated)
		g.advance(t)
		assert.Equal(t, string(engine.TeamVillagers), g.rec.state.Winner)
	})

	t.Run("Malformed Vote Falls Back Once", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "villager", "villager", "villager", "villager"}, plan{
			"p3": {engine.ActionVote: "garbage"},
		})
		g.advanceTo(t, engine.PhaseVoteReveal)

		var p3 []*engine.VoteCastEvent
		for _, v := range eventsOf[*engine.VoteCastEvent](g.rec.events) {
			if v.Voter == "p3" {
				p3 = append(p3, v)
			}
		}
		require.Len(t, p3, 1)
		assert.Equal(t, engine.SourceHeuristic, p3[0].Source)
		assert.Equal(t, "not_json", p3[0].Failure)
	})

	t.Run("Reveal Hides Votes Without Transparency", func(t *testing.T) {
		g := newGame(t, []string{"werewolf", "villager", "villager", "villager", "villager"}, votePlan(ties, wolfKillsP5),
			func(r *engine.Rules) { r.VoteTransparency = false })
		g.advanceTo(t, engine.PhaseVoteReveal)
		g.advance(t)
		revealed := eventsOf[*engine.VotesRevealedEvent](g.rec.events)
		require.Len(t, revealed, 1)
		assert.Empty(t, revealed[0].Votes)
		assert.Equal(t, map[string]int{"p1": 2, "p2": 2}, revealed[0].Counts)
		assert.Equal(t, engine.PhaseNight, g.rec.state.Phase)
		assert.Equal(t, 2, g.rec.state.Day)
	})
}

func TestCastVote(t *testing.T) {
	g := newGame(t, []string{"werewolf", "villager", "villager", "villager", "villager"}, votePlan(
		map[string]string{"p3": "p2"}, plan{"p1": {engine.ActionKill: act(engine.ActionKill, "p5")}}))

	g.advanceTo(t, engine.PhaseNight)
	assert.True(t, errors.Is(g.engine.CastVote(g.rec, "p3", "p1"), engine.ErrInvalidPhase))

	g.advanceTo(t, engine.PhaseDayVoting)
	require.NoError(t, g.engine.CastVote(g.rec, "p3", "p1"))
	assert.True(t, errors.Is(g.engine.CastVote(g.rec, "p3", "p2"), engine.ErrInvalidAction), "second vote")
	assert.True(t, errors.Is(g.engine.CastVote(g.rec, "p4", "p5"), engine.ErrInvalidAction), "dead target")
	assert.True(t, errors.Is(g.engine.CastVote(g.rec, "p5", "p1"), engine.ErrInvalidAction), "dead voter")
	assert.True(t, errors.Is(g.engine.CastVote(g.rec, "p4", "p4"), engine.ErrInvalidAction), "self vote")

	g.advance(t)
	votes := g.rec.state.VoteResults[0].Votes
	require.NotEmpty(t, votes)
	assert.Equal(t, engine.Vote{Voter: "p3", Target: "p1", Source: engine.SourceHuman}, votes[0])
	for _, v := range votes[1:] {
		assert.NotEqual(t, "p3", v.Voter)
	}
}

func TestDecisionTimeout(t *testing.T) {
	slow := agent.Func(func(ctx context.Context, req engine.ActionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := newGame(t, []string{"werewolf", "villager", "villager", "villager"}, slow,
		func(r *engine.Rules) { r.DecisionTimeout = 10 * time.Millisecond })
	var stats []DecisionStat
	g.engine.observe = func(s DecisionStat) { stats = append(stats, s) }

	g.advance(t)
	g.advance(t)

	kills := eventsOf[*engine.ActionTakenEvent](g.rec.events)
	require.Len(t, kills, 1)
	assert.Equal(t, engine.SourceHeuristic, kills[0].Source)
	assert.Equal(t, "timeout", kills[0].Failure)
	assert.Equal(t, "p2", kills[0].Target)
	require.Len(t, stats, 1)
	assert.GreaterOrEqual(t, stats[0].Latency, 10*time.Millisecond)
}

func TestDecisionTimeoutAbandonsStuckAgent(t *testing.T) {
	stuck := agent.Func(func(ctx context.Context, req engine.ActionRequest) (string, error) {
		time.Sleep(2 * time.Second)
		return act(engine.ActionKill, "p3"), nil
	})
	g := newGame(t, []string{"werewolf", "villager", "villager", "villager"}, stuck,
		func(r *engine.Rules) { r.DecisionTimeout = 50 * time.Millisecond })

	g.advance(t)
	start := time.Now()
	g.advance(t)
	assert.Less(t, time.Since(start), time.Second)

	kills := eventsOf[*engine.ActionTakenEvent](g.rec.events)
	require.Len(t, kills, 1)
	assert.Equal(t, engine.SourceHeuristic, kills[0].Source)
	assert.Equal(t, "timeout", kills[0].Failure)
}

func TestCancelledAdvanceResumes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	a := agent.Func(func(c context.Context, req engine.ActionRequest) (string, error) {
		calls++
		if calls == 2 {
			cancel()
			return "", c.Err()
		}
		return act(engine.ActionKill, "p4"), nil
	})
	g := newGame(t, []string{"werewolf", "werewolf", "villager", "villager", "villager", "villager"}, a)
	g.advance(t)

	err := g.engine.Advance(ctx, g.rec)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, g.rec.state.Night.Acted["p1"])
	assert.False(t, g.rec.state.Night.Acted["p2"])

	g.advance(t)
	assert.Equal(t, engine.PhaseDayMorning, g.rec.state.Phase)
	assert.Len(t, eventsOf[*engine.KillResolvedEvent](g.rec.events), 1)
	assert.False(t, g.rec.state.Player("p4").Alive)
}

func TestWerewolvesWinAndGameStops(t *testing.T) {
	g := newGame(t, []string{"werewolf", "werewolf", "villager", "villager"}, agent.Silent{})
	g.advance(t)
	g.advance(t)

	state := g.rec.state
	assert.Equal(t, engine.PhaseEnd, state.Phase)
	assert.Equal(t, string(engine.TeamWerewolves), state.Winner)

	n := len(g.rec.events)
	g.advance(t)
	g.advance(t)
	assert.Len(t, g.rec.events, n, "advance after end is a no-op")
}

func TestHeuristicGamesAreDeterministic(t *testing.T) {
	roles := []string{"werewolf", "werewolf", "seer", "witch", "guard", "hunter", "villager", "villager"}
	run := func() []string {
		g := newGame(t, roles, agent.Silent{})
		for i := 0; i < 200 && !g.rec.state.Phase.Terminal(); i++ {
			g.advance(t)
		}
		require.True(t, g.rec.state.Phase.Terminal())
		var out []string
		for _, e := range g.rec.events {
			b, err := json.Marshal(e)
			require.NoError(t, err)
			out = append(out, string(e.Type())+" "+string(b))
		}
		return out
	}
	assert.Equal(t, run(), run())
}
