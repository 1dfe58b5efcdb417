package eval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/werewolf-arena/internal/agent"
	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/persistence"
	"github.com/suderio/werewolf-arena/internal/rules"
	"github.com/suderio/werewolf-arena/internal/session"
)

func table() session.Config {
	var seats []engine.Seat
	for i := 1; i <= 8; i++ {
		seats = append(seats, engine.Seat{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)})
	}
	return session.Config{
		Seats:        seats,
		Distribution: map[string]int{"werewolf": 2, "seer": 1, "witch": 1, "hunter": 1, "villager": 3},
		Seed:         100,
		Rules:        engine.DefaultRules(),
	}
}

func newRunner(t *testing.T, cfg session.Config, opts ...Option) *Runner {
	t.Helper()
	catalog := engine.DefaultCatalog()
	reg, err := rules.NewRegistry()
	require.NoError(t, err)
	wins, err := rules.NewWinEvaluator(reg, catalog.IDs(), nil)
	require.NoError(t, err)

	stats := NewCollector()
	eng := command.New(catalog, wins, agent.NewDirectory(agent.Silent{}), command.WithObserver(stats.Observe))
	return NewRunner(session.NewRegistry(catalog, eng), stats, cfg, opts...)
}

func TestRunnerPlaysEveryGame(t *testing.T) {
	var finished atomic.Int32
	r := newRunner(t, table(), WithWorkers(3), WithProgress(func(Row) { finished.Add(1) }))

	rows, err := r.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, int32(5), finished.Load())

	for i, row := range rows {
		assert.Equal(t, int64(100+i), row.Seed)
		assert.NotEmpty(t, row.Game)
		assert.Contains(t, []string{"villagers", "werewolves", "lovers"}, row.Winner)
		assert.Positive(t, row.Days)
		assert.Positive(t, row.Decisions)
		assert.Equal(t, row.Decisions, row.Heuristic, "silent seats always fall back")
		assert.Equal(t, row.Decisions, row.ProviderErrors)
		assert.Zero(t, row.Timeouts)
	}
	assert.Empty(t, r.registry.List(), "finished games are removed")

	again, err := newRunner(t, table()).Run(context.Background(), 5)
	require.NoError(t, err)
	for i := range rows {
		assert.Equal(t, rows[i].Winner, again[i].Winner)
		assert.Equal(t, rows[i].Days, again[i].Days)
		assert.Equal(t, rows[i].Decisions, again[i].Decisions)
	}

	s := Summarize(rows)
	assert.Equal(t, 5, s.Games)
	assert.Equal(t, 1.0, s.HeuristicRate)
	total := 0
	for _, n := range s.Wins {
		total += n
	}
	assert.Equal(t, 5, total)
}

func TestRunnerSavesResults(t *testing.T) {
	db, err := persistence.OpenGorm("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, persistence.Migrate(db))
	store := persistence.NewResultStore(db)

	rows, err := newRunner(t, table(), WithWorkers(2), WithResults(store)).Run(context.Background(), 3)
	require.NoError(t, err)

	saved, err := store.List()
	require.NoError(t, err)
	require.Len(t, saved, 3)
	seeds := map[int64]bool{}
	for _, r := range saved {
		seeds[r.Seed] = true
	}
	for _, r := range rows {
		assert.True(t, seeds[r.Seed])
	}
}

func TestRunnerStopsOnError(t *testing.T) {
	cfg := table()
	cfg.Distribution = map[string]int{"werewolf": 1}
	_, err := newRunner(t, cfg, WithWorkers(2)).Run(context.Background(), 4)
	assert.True(t, errors.Is(err, engine.ErrConfig))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newRunner(t, table()).Run(ctx, 2)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWriters(t *testing.T) {
	rows := []Row{
		{Game: "g1", Seed: 1, Winner: "villagers", Days: 3, Decisions: 20, Heuristic: 2, Timeouts: 1, ProviderErrors: 1, AvgLatencyMs: 12.5},
		{Game: "g2", Seed: 2, Winner: "werewolves", Days: 2},
	}

	var csvOut bytes.Buffer
	require.NoError(t, WriteCSV(&csvOut, rows))
	assert.Equal(t, strings.Join([]string{
		"game,seed,winner,days,decisions,heuristic,timeouts,provider_errors,avg_latency_ms",
		"g1,1,villagers,3,20,2,1,1,12.50",
		"g2,2,werewolves,2,0,0,0,0,0.00",
		"",
	}, "\n"), csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, WriteJSONL(&jsonOut, rows))
	lines := strings.Split(strings.TrimSpace(jsonOut.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"game":"g2","seed":2,"winner":"werewolves","days":2,"decisions":0,"heuristic":0,"timeouts":0,"provider_errors":0,"avg_latency_ms":0}`, lines[1])
}
