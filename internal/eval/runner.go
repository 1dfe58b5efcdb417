package eval

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/suderio/werewolf-arena/internal/persistence"
	"github.com/suderio/werewolf-arena/internal/session"
)

// Row is the outcome of one evaluated game.
type Row struct {
	Game           string  `json:"game"`
	Seed           int64   `json:"seed"`
	Winner         string  `json:"winner"`
	Days           int     `json:"days"`
	Decisions      int     `json:"decisions"`
	Heuristic      int     `json:"heuristic"`
	Timeouts       int     `json:"timeouts"`
	ProviderErrors int     `json:"provider_errors"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
}

func (r Row) result(at time.Time) persistence.Result {
	return persistence.Result{
		SessionID:      r.Game,
		Seed:           r.Seed,
		Winner:         r.Winner,
		Days:           r.Days,
		Decisions:      r.Decisions,
		Heuristic:      r.Heuristic,
		Timeouts:       r.Timeouts,
		ProviderErrors: r.ProviderErrors,
		AvgLatencyMs:   r.AvgLatencyMs,
		FinishedAt:     at,
	}
}

type Option func(*Runner)

func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResults saves every finished game to the results table.
func WithResults(store *persistence.ResultStore) Option {
	return func(r *Runner) {
		r.results = store
	}
}

// WithProgress is called once per finished game, from worker goroutines.
func WithProgress(fn func(Row)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// Runner plays many games of the same table with consecutive seeds.
type Runner struct {
	registry *session.Registry
	stats    *Collector
	table    session.Config
	workers  int
	logger   *log.Logger
	results  *persistence.ResultStore
	progress func(Row)
	now      func() time.Time
}

// NewRunner binds a runner to a registry whose engine reports to stats.
func NewRunner(registry *session.Registry, stats *Collector, table session.Config, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		stats:    stats,
		table:    table,
		workers:  1,
		logger:   log.New(io.Discard, "", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays n games with seeds table.Seed+i and returns the rows in seed order.
// On the first error the remaining games are skipped.
func (r *Runner) Run(ctx context.Context, n int) ([]Row, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make([]Row, n)
	sem := make(chan struct{}, r.workers)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i := 0; i < n; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			row, err := r.play(ctx, r.table.Seed+int64(i))
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			rows[i] = row
			if r.progress != nil {
				r.progress(row)
			}
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Runner) play(ctx context.Context, seed int64) (Row, error) {
	cfg := r.table
	cfg.Seed = seed
	id, err := r.registry.Create(cfg)
	if err != nil {
		return Row{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	defer r.registry.Remove(id)

	snap, err := r.registry.Run(ctx, id)
	t := r.stats.take(id)
	if err != nil {
		return Row{}, fmt.Errorf("game %s (seed %d): %w", id, seed, err)
	}

	row := Row{
		Game:           id,
		Seed:           seed,
		Winner:         snap.Winner,
		Days:           snap.Day,
		Decisions:      t.decisions,
		Heuristic:      t.heuristic,
		Timeouts:       t.timeouts,
		ProviderErrors: t.providerErrors,
	}
	if t.decisions > 0 {
		row.AvgLatencyMs = float64(t.latency.Microseconds()) / 1000 / float64(t.decisions)
	}
	if r.results != nil {
		if err := r.results.Save(row.result(r.now())); err != nil {
			return Row{}, err
		}
	}
	r.logger.Printf("eval: game %s seed %d: %s after %d days", id, seed, row.Winner, row.Days)
	return row, nil
}

// Summary aggregates rows.
type Summary struct {
	Games         int
	Wins          map[string]int
	AvgDays       float64
	HeuristicRate float64
}

func Summarize(rows []Row) Summary {
	s := Summary{Games: len(rows), Wins: make(map[string]int)}
	days, decisions, heuristic := 0, 0, 0
	for _, r := range rows {
		s.Wins[r.Winner]++
		days += r.Days
		decisions += r.Decisions
		heuristic += r.Heuristic
	}
	if len(rows) > 0 {
		s.AvgDays = float64(days) / float64(len(rows))
	}
	if decisions > 0 {
		s.HeuristicRate = float64(heuristic) / float64(decisions)
	}
	return s
}
