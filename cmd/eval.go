/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/suderio/werewolf-arena/internal/arena"
	"github.com/suderio/werewolf-arena/internal/eval"
)

var evalCmd = &cobra.Command{
	Use:   "eval [game_file]",
	Short: "Play a batch of games and report win rates",
	Long: `Plays n games of the same table with consecutive seeds starting at the
seed of the game file. Every decision is counted, and games that fell back to
the heuristic are reported per game.

Usage:
	werewolf-arena eval -n 50 --workers 4 --csv results.csv`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		game, catalog, err := loadGame(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		n, _ := cmd.Flags().GetInt("games")
		workers, _ := cmd.Flags().GetInt("workers")
		csvPath, _ := cmd.Flags().GetString("csv")
		jsonlPath, _ := cmd.Flags().GetString("jsonl")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger := newLogger()

		b, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		stats := eval.NewCollector()
		a, err := arena.New(game, catalog, arena.Options{
			Logger:   logger,
			Stores:   b.stores,
			Observer: stats.Observe,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		table, err := a.Table()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		bar := progressbar.Default(int64(n), "Playing games")
		opts := []eval.Option{
			eval.WithWorkers(workers),
			eval.WithLogger(logger),
			eval.WithProgress(func(eval.Row) { _ = bar.Add(1) }),
		}
		if b.results != nil {
			opts = append(opts, eval.WithResults(b.results))
		}

		rows, err := eval.NewRunner(a.Registry, stats, table, opts...).Run(ctx, n)
		_ = bar.Finish()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if csvPath != "" {
			if err := writeRows(csvPath, rows, eval.WriteCSV); err != nil {
				fmt.Printf("Error writing %s: %v\n", csvPath, err)
				os.Exit(1)
			}
		}
		if jsonlPath != "" {
			if err := writeRows(jsonlPath, rows, eval.WriteJSONL); err != nil {
				fmt.Printf("Error writing %s: %v\n", jsonlPath, err)
				os.Exit(1)
			}
		}

		summary := eval.Summarize(rows)
		fmt.Printf("\n%d games, %.1f days on average, %.1f%% heuristic decisions\n",
			summary.Games, summary.AvgDays, summary.HeuristicRate*100)
		winners := make([]string, 0, len(summary.Wins))
		for w := range summary.Wins {
			winners = append(winners, w)
		}
		sort.Strings(winners)
		for _, w := range winners {
			fmt.Printf("  %-12s %d\n", w, summary.Wins[w])
		}
	},
}

func writeRows(path string, rows []eval.Row, write func(io.Writer, []eval.Row) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().IntP("games", "n", 10, "number of games to play")
	evalCmd.Flags().Int("workers", 1, "games played in parallel")
	evalCmd.Flags().String("csv", "", "write one row per game to a CSV file")
	evalCmd.Flags().String("jsonl", "", "write one row per game to a JSON lines file")
}
