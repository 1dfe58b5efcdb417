package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/rules"
)

func TestLoaderEmbeddedFallback(t *testing.T) {
	l := NewLoader(nil)

	game, err := l.LoadGame()
	require.NoError(t, err)
	assert.Len(t, game.Players, 8)
	assert.Equal(t, engine.DefaultRules(), game.Rules)
	assert.Equal(t, rules.DefaultWinConditions(), game.WinConditions)
	require.NoError(t, game.Validate())

	catalog, err := l.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCatalog().IDs(), catalog.IDs())
	for _, id := range catalog.IDs() {
		assert.Equal(t, engine.DefaultCatalog().MustRole(id), catalog.MustRole(id), id)
	}
}

func TestDefaultDistributionsAreBalanced(t *testing.T) {
	game, err := NewLoader(nil).LoadGame()
	require.NoError(t, err)
	catalog := engine.DefaultCatalog()

	for n := 4; n <= 12; n++ {
		d, err := game.DistributionFor(n)
		require.NoError(t, err, "%d players", n)
		total, wolves := 0, 0
		for role, count := range d {
			total += count
			if catalog.MustRole(role).Team == engine.TeamWerewolves {
				wolves += count
			}
		}
		assert.Equal(t, n, total, "%d players", n)
		assert.Positive(t, wolves)
		assert.Less(t, wolves*2, n, "%d players", n)
	}

	_, err = game.DistributionFor(13)
	assert.True(t, errors.Is(err, engine.ErrConfig))
}

func TestLoaderPrefersDataDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GameFile), []byte(`
seed: 5
players:
  - {id: a, name: Ann, preferred_role: seer}
  - {id: b}
  - {id: c, agent: console}
  - {id: d, agent: gpt}
distribution: {werewolf: 1, seer: 1, villager: 2}
rules:
  discussion_rounds: 9
  decision_timeout: 5s
providers:
  - {name: gpt, provider: openai, api_key: "${WEREWOLF_TEST_KEY}", model: m, enabled: true}
`), 0644))
	t.Setenv("WEREWOLF_TEST_KEY", "sk-test")

	game, err := NewLoader([]string{dir}).LoadGame()
	require.NoError(t, err)
	require.NoError(t, game.Validate())

	assert.Equal(t, int64(5), game.Seed)
	assert.Equal(t, 3, game.Rules.DiscussionRounds, "clamped")
	assert.Equal(t, 5*time.Second, game.Rules.DecisionTimeout)
	assert.True(t, game.Rules.VoteTransparency, "default kept")
	assert.Equal(t, map[string]string{"a": "seer"}, game.Preferences())
	assert.Equal(t, engine.Seat{ID: "b", Name: "b"}, game.Seats()[1])

	prof, ok := game.Provider("GPT")
	require.True(t, ok)
	assert.Equal(t, "sk-test", prof.Key())

	_, err = NewLoader([]string{dir}).LoadCatalog()
	require.NoError(t, err, "roles fall back to the embedded file")
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 1\nplayerz: []\n"), 0644))
	_, err := LoadGameFile(path)
	assert.True(t, errors.Is(err, engine.ErrConfig))
}

func TestValidate(t *testing.T) {
	base := func() *GameConfig {
		return &GameConfig{
			Players: []PlayerConfig{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
			RoleDistributions: map[int]map[string]int{
				4: {"werewolf": 1, "villager": 3},
			},
			Providers: []ProviderProfile{{Name: "off", Provider: "openai"}},
		}
	}

	tests := []struct {
		name  string
		tweak func(*GameConfig)
	}{
		{"Missing ID", func(c *GameConfig) { c.Players[0].ID = "" }},
		{"Duplicate ID", func(c *GameConfig) { c.Players[1].ID = "a" }},
		{"Unknown Provider", func(c *GameConfig) { c.Players[0].Agent = "nope" }},
		{"Disabled Provider", func(c *GameConfig) { c.Players[0].Agent = "off" }},
		{"Telegram Without Chat", func(c *GameConfig) { c.Players[0].Agent = AgentTelegram }},
		{"No Distribution", func(c *GameConfig) { c.Players = append(c.Players, PlayerConfig{ID: "e"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.tweak(c)
			assert.True(t, errors.Is(c.Validate(), engine.ErrConfig))
		})
	}
	assert.NoError(t, base().Validate())
}
