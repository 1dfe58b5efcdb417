package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/werewolf-arena/internal/engine"
)

func historyOf(t *testing.T, reveal bool) []engine.HistoryEntry {
	t.Helper()
	rules := engine.DefaultRules()
	rules.RevealRoleOnDeath = reveal
	events := []engine.Event{
		&engine.SessionCreatedEvent{SessionID: "g1", Rules: rules},
		&engine.DeathEvent{Player: "p2", Cause: engine.CausePoison},
		&engine.MorningAnnouncedEvent{Day: 1, Deaths: []string{"p2"}},
	}
	var out []engine.HistoryEntry
	for i, evt := range events {
		entry, err := engine.NewEntry(int64(i+1), 1, engine.PhaseNight, evt)
		require.NoError(t, err)
		out = append(out, entry)
	}
	return out
}

func TestMessageHidesDeathCause(t *testing.T) {
	t.Run("Hidden By Default", func(t *testing.T) {
		history := historyOf(t, false)
		reveal := deathsPublic(history)
		assert.False(t, reveal)
		assert.True(t, public(history[1]))
		msg, ok := message(history[1], reveal)
		require.True(t, ok)
		assert.Equal(t, "p2 died.", msg)
		assert.NotContains(t, msg, engine.CausePoison)
	})

	t.Run("Shown When Roles Are Revealed", func(t *testing.T) {
		history := historyOf(t, true)
		reveal := deathsPublic(history)
		assert.True(t, reveal)
		msg, ok := message(history[1], reveal)
		require.True(t, ok)
		assert.Contains(t, msg, engine.CausePoison)
	})

	t.Run("Private Entries", func(t *testing.T) {
		entry, err := engine.NewEntry(4, 1, engine.PhaseNight, &engine.KillResolvedEvent{Target: "p2"})
		require.NoError(t, err)
		assert.False(t, public(entry))
		assert.False(t, deathsPublic(nil))
	})
}
