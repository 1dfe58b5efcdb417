package decision

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// testState seats players p1..pn with the given roles and applies extra events.
func testState(t *testing.T, roles []string, extra ...engine.Event) *engine.GameState {
	t.Helper()
	catalog := engine.DefaultCatalog()
	var seats []engine.Seat
	var assignments []engine.Assignment
	for i, role := range roles {
		id := fmt.Sprintf("p%d", i+1)
		seats = append(seats, engine.Seat{ID: id, Name: fmt.Sprintf("Name%d", i+1)})
		assignments = append(assignments, engine.Assignment{PlayerID: id, Role: role, Team: catalog.MustRole(role).Team})
	}
	events := append([]engine.Event{
		&engine.SessionCreatedEvent{SessionID: "s1", Rules: engine.DefaultRules(), Seats: seats},
		&engine.RolesAssignedEvent{Assignments: assignments},
	}, extra...)

	state := engine.NewGameState()
	for i, evt := range events {
		require.NoError(t, engine.Apply(state, int64(i+1), evt))
	}
	return state
}

func toNight() engine.Event { return &engine.PhaseChangedEvent{From: engine.PhaseLobby, To: engine.PhaseNight} }

func TestBuildTargets(t *testing.T) {
	builder := NewBuilder(engine.DefaultCatalog())

	t.Run("Kill Excludes Self", func(t *testing.T) {
		state := testState(t, []string{"werewolf", "werewolf", "villager", "seer"}, toNight())
		req, err := builder.Build(state, "p1", engine.ActionKill)
		require.NoError(t, err)
		assert.Equal(t, []string{"p2", "p3", "p4"}, req.AvailableTargets)
		assert.Equal(t, []engine.ActionKind{engine.ActionKill}, req.AllowedActions)
		assert.Equal(t, 1, req.Day)
		assert.Equal(t, engine.PhaseNight, req.Phase)
	})

	t.Run("Guard Cannot Repeat", func(t *testing.T) {
		state := testState(t, []string{"guard", "werewolf", "villager", "seer"}, toNight(),
			&engine.ActionTakenEvent{Actor: "p1", Role: "guard", Action: engine.ActionProtect, Target: "p3"},
		)
		req, err := builder.Build(state, "p1", engine.ActionProtect)
		require.NoError(t, err)
		assert.Equal(t, []string{"p2", "p4"}, req.AvailableTargets)
		assert.Equal(t, "p3", req.Context.LastProtected)
	})

	t.Run("Witch Sees Wolf Target And May Save Herself", func(t *testing.T) {
		state := testState(t, []string{"witch", "werewolf", "villager"}, toNight(),
			&engine.ActionTakenEvent{Actor: "p2", Role: "werewolf", Action: engine.ActionKill, Target: "p1"},
			&engine.KillResolvedEvent{Target: "p1"},
		)
		req, err := builder.Build(state, "p1", engine.ActionPotion)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, req.AvailableTargets)
		assert.Equal(t, "p1", req.Context.WolfTarget)
		assert.Equal(t, &engine.Potions{Save: true, Poison: true}, req.Context.Potions)
		assert.ElementsMatch(t, []engine.ActionKind{engine.ActionSave, engine.ActionPoison, engine.ActionNone}, req.AllowedActions)
	})

	t.Run("Speech Has No Targets", func(t *testing.T) {
		state := testState(t, []string{"werewolf", "villager"})
		req, err := builder.Build(state, "p2", engine.ActionSpeak)
		require.NoError(t, err)
		assert.Empty(t, req.AvailableTargets)
		assert.Equal(t, []engine.ActionKind{engine.ActionSpeak}, req.AllowedActions)
	})
}

func TestBuildVisibility(t *testing.T) {
	builder := NewBuilder(engine.DefaultCatalog())
	state := testState(t, []string{"werewolf", "werewolf", "seer", "villager"}, toNight(),
		&engine.ActionTakenEvent{Actor: "p1", Role: "werewolf", Action: engine.ActionKill, Target: "p4"},
		&engine.ActionTakenEvent{Actor: "p3", Role: "seer", Action: engine.ActionReveal, Target: "p2", Werewolf: true},
	)

	wolf, err := builder.Build(state, "p2", engine.ActionKill)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, wolf.Context.Teammates)
	assert.Equal(t, map[string]string{"p1": "p4"}, wolf.Context.TeamPicks)
	assert.Equal(t, "werewolf", wolf.Context.Alive[0].Role)
	assert.Empty(t, wolf.Context.Alive[2].Role)

	seer, err := builder.Build(state, "p3", engine.ActionReveal)
	require.NoError(t, err)
	assert.Empty(t, seer.Context.Teammates)
	assert.Empty(t, seer.Context.TeamPicks)
	assert.Equal(t, []engine.Reveal{{Day: 1, Target: "p2", Werewolf: true}}, seer.Context.SeerReveals)
	assert.Empty(t, seer.Context.Alive[0].Role)
	assert.Equal(t, "seer", seer.Context.You.Role)

	villager, err := builder.Build(state, "p4", engine.ActionKill)
	require.NoError(t, err)
	assert.Empty(t, villager.Context.SeerReveals)
	for _, v := range villager.Context.Alive {
		if v.ID != "p4" {
			assert.Empty(t, v.Role)
		}
	}
}

func TestBuildRejectsMalformedHistory(t *testing.T) {
	builder := NewBuilder(engine.DefaultCatalog())
	state := testState(t, []string{"werewolf", "villager", "seer"})
	state.RoleState.Reveals["p3"] = []engine.Reveal{{Day: 1, Target: "ghost"}}

	_, err := builder.Build(state, "p2", engine.ActionVote)
	assert.True(t, errors.Is(err, engine.ErrInternalConsistency))

	state = testState(t, []string{"werewolf", "villager"})
	_, err = builder.Build(state, "nobody", engine.ActionVote)
	assert.True(t, errors.Is(err, engine.ErrInternalConsistency))
}

func discussionDay(day int, speeches ...engine.Speech) engine.Transcript {
	return engine.Transcript{Day: day, Speeches: speeches}
}

func TestCompressDropsOldestDayFirst(t *testing.T) {
	roster := []*engine.Player{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	long := strings.Repeat("I really think p3 is lying. ", 20)
	payload := func() *engine.Payload {
		return &engine.Payload{
			Summary: []string{"Night 1: killed=none", "Day 1: eliminated=none, votes=none"},
			Transcripts: []engine.Transcript{
				discussionDay(1, engine.Speech{Speaker: "p1", Text: long}, engine.Speech{Speaker: "p2", Text: "p1 p1"}),
				discussionDay(2, engine.Speech{Speaker: "p2", Text: long}),
				discussionDay(3, engine.Speech{Speaker: "p3", Text: long}),
			},
		}
	}

	full := PayloadTokens(payload())
	p := payload()
	steps := Compress(p, full-10, 3, roster)
	assert.Equal(t, 1, steps)
	assert.Empty(t, p.Transcripts[0].Speeches)
	assert.Equal(t, []string{"p1 -> p3", "p2 -> p1"}, p.Transcripts[0].Summary)
	assert.NotEmpty(t, p.Transcripts[1].Speeches)
	assert.NotEmpty(t, p.Transcripts[2].Speeches)

	p = payload()
	Compress(p, 1, 3, roster)
	assert.Empty(t, p.Transcripts[0].Speeches)
	assert.Empty(t, p.Transcripts[1].Speeches)
	assert.NotEmpty(t, p.Transcripts[2].Speeches, "current day is kept")
	assert.Empty(t, p.Summary)

	a, b := payload(), payload()
	Compress(a, full/2, 3, roster)
	Compress(b, full/2, 3, roster)
	assert.Equal(t, a, b)
}

func TestSummarize(t *testing.T) {
	state := testState(t, []string{"werewolf", "villager", "villager", "seer"}, toNight(),
		&engine.DeathEvent{Player: "p2", Cause: engine.CauseWerewolves},
		&engine.PhaseChangedEvent{From: engine.PhaseNight, To: engine.PhaseDayMorning},
		&engine.PhaseChangedEvent{From: engine.PhaseDayMorning, To: engine.PhaseDayDiscussion},
		&engine.PhaseChangedEvent{From: engine.PhaseDayDiscussion, To: engine.PhaseDayVoting},
		&engine.VoteCastEvent{Voter: "p1", Target: "p3"},
		&engine.VoteCastEvent{Voter: "p3", Target: "p1"},
		&engine.VoteCastEvent{Voter: "p4"},
		&engine.VoteTalliedEvent{Counts: map[string]int{"p1": 1, "p3": 1}, Tie: true},
	)
	assert.Equal(t, []string{
		"Night 1: killed=p2",
		"Day 1: eliminated=none, votes=p1->p3,p3->p1,p4->none",
	}, Summarize(state))
}
