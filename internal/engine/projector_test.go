package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, events ...Event) []HistoryEntry {
	t.Helper()
	state := NewGameState()
	var out []HistoryEntry
	for i, evt := range events {
		entry, err := NewEntry(int64(i+1), state.Day, state.Phase, evt)
		require.NoError(t, err)
		require.NoError(t, Apply(state, entry.Seq, evt))
		out = append(out, entry)
	}
	return out
}

func lobbyEvents() []Event {
	return []Event{
		&SessionCreatedEvent{SessionID: "s1", Seed: 9, Rules: DefaultRules(), Seats: []Seat{{ID: "w"}, {ID: "a"}, {ID: "b"}}},
		&RolesAssignedEvent{Seed: 9, Assignments: []Assignment{
			{PlayerID: "w", Role: RoleWerewolf, Team: TeamWerewolves},
			{PlayerID: "a", Role: RoleWitch, Team: TeamVillagers},
			{PlayerID: "b", Role: RoleVillager, Team: TeamVillagers},
		}},
	}
}

func TestProjectorBuild(t *testing.T) {
	events := append(lobbyEvents(),
		&PhaseChangedEvent{From: PhaseLobby, To: PhaseNight},
		&ActionTakenEvent{Actor: "w", Role: RoleWerewolf, Action: ActionKill, Target: "b", Source: SourceAgent},
		&KillResolvedEvent{Target: "b", Counts: map[string]int{"b": 1}},
		&ActionTakenEvent{Actor: "a", Role: RoleWitch, Action: ActionPoison, Target: "w", Source: SourceHeuristic, Failure: "not_json"},
		&DeathEvent{Player: "b", Cause: CauseWerewolves},
	)
	log := entries(t, events...)

	state, err := NewProjector().Build(log)
	require.NoError(t, err)

	assert.Equal(t, 1, state.Day)
	assert.Equal(t, PhaseNight, state.Phase)
	assert.Equal(t, "b", state.Night.KillTarget)
	assert.False(t, state.Player("b").Alive)
	assert.Equal(t, Potions{Save: true, Poison: false}, state.RoleState.Potions["a"])
	assert.True(t, state.IsWolf("w"))
	assert.Equal(t, int64(len(log)), state.Seq)
	assert.Equal(t, SourceHeuristic, log[5].Source)
	assert.Equal(t, []Death{{Player: "b", Cause: CauseWerewolves, Day: 1, Phase: PhaseNight}}, state.Deaths)
}

func TestProjectorRejectsSequenceGap(t *testing.T) {
	log := entries(t, lobbyEvents()...)
	log[1].Seq = 5

	_, err := NewProjector().Build(log)
	assert.True(t, errors.Is(err, ErrInternalConsistency))
}

func TestEventsGuardInvariants(t *testing.T) {
	state := NewGameState()
	for i, evt := range lobbyEvents() {
		require.NoError(t, Apply(state, int64(i+1), evt))
	}
	require.NoError(t, (&DeathEvent{Player: "b", Cause: CauseVote}).Apply(state))

	err := (&ActionTakenEvent{Actor: "b", Role: RoleVillager, Action: ActionKill, Target: "a"}).Apply(state)
	assert.True(t, errors.Is(err, ErrInternalConsistency))

	err = (&DeathEvent{Player: "b", Cause: CauseVote}).Apply(state)
	assert.True(t, errors.Is(err, ErrInternalConsistency))

	err = (&ActionTakenEvent{Actor: "ghost", Action: ActionKill}).Apply(state)
	assert.True(t, errors.Is(err, ErrInternalConsistency))
}

func TestSnapshotRedaction(t *testing.T) {
	state := NewGameState()
	for i, evt := range lobbyEvents() {
		require.NoError(t, Apply(state, int64(i+1), evt))
	}

	public := state.Snapshot(false)
	for _, p := range public.Players {
		assert.Empty(t, p.Role)
	}
	admin := state.Snapshot(true)
	assert.Equal(t, RoleWerewolf, admin.Players[0].Role)

	state.Rules.RevealRoleOnDeath = true
	require.NoError(t, (&DeathEvent{Player: "b", Cause: CauseVote}).Apply(state))
	public = state.Snapshot(false)
	assert.Equal(t, RoleVillager, public.Players[2].Role)
	assert.Empty(t, public.Players[0].Role)
}
