/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/suderio/werewolf-arena/internal/arena"
	"github.com/suderio/werewolf-arena/internal/session"
)

// gamesCmd represents the games command
var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Inspect and resume stored games",
	Long: `The games command works on the stored histories, either the JSONL files
under --games_dir or the history table of the configured database.`,
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored games",
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		ids, err := b.list()
		if err != nil {
			fmt.Printf("Error listing games: %v\n", err)
			os.Exit(1)
		}
		for _, id := range ids {
			entries, err := b.history(id)
			if err != nil {
				fmt.Printf("%s  unreadable: %v\n", id, err)
				continue
			}
			state, err := session.Replay(entries)
			if err != nil {
				fmt.Printf("%s  corrupt: %v\n", id, err)
				continue
			}
			fmt.Printf("%s  %-9s day %-2d %s\n", id, state.Phase, state.Day, state.Winner)
		}
	},
}

var gamesShowCmd = &cobra.Command{
	Use:   "show [game_id]",
	Short: "Print the snapshot of a stored game as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		entries, err := b.history(args[0])
		if err != nil {
			fmt.Printf("Error finding game: %v\n", err)
			os.Exit(1)
		}
		state, err := session.Replay(entries)
		if err != nil {
			fmt.Printf("Error building state: %v\n", err)
			os.Exit(1)
		}
		admin, _ := cmd.Flags().GetBool("admin")
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(state.Snapshot(admin))
	},
}

var gamesResumeCmd = &cobra.Command{
	Use:   "resume [game_id] [game_file]",
	Short: "Continue an unfinished game with the seats of the game file",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		game, catalog, err := loadGame(args[1:])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		b, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger := newLogger()

		a, err := arena.New(game, catalog, arena.Options{Logger: logger, Telegram: maybeStartBot(ctx, game, logger), Stores: b.stores})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		s, err := a.Registry.Resume(args[0])
		if err != nil {
			fmt.Printf("Error resuming game: %v\n", err)
			os.Exit(1)
		}
		printed := len(s.History())
		fmt.Printf("Resuming %s at %s, day %d.\n", s.ID(), s.Snapshot(false).Phase, s.Snapshot(false).Day)

		for {
			snap, err := s.Advance(ctx)
			printed = printEntries(s.History(), printed, false)
			if err != nil {
				fmt.Printf("Stopped: %v\n", err)
				os.Exit(1)
			}
			if snap.Phase.Terminal() {
				fmt.Printf("Winner: %s\n", snap.Winner)
				return
			}
		}
	},
}

var gamesResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print the win rates recorded by eval runs (database only)",
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		if b.results == nil {
			fmt.Println("Results are only recorded when --db_driver is set.")
			return
		}
		rates, err := b.results.WinRates()
		if err != nil {
			fmt.Printf("Error reading results: %v\n", err)
			os.Exit(1)
		}
		winners := make([]string, 0, len(rates))
		for w := range rates {
			winners = append(winners, w)
		}
		sort.Strings(winners)
		for _, w := range winners {
			fmt.Printf("%-12s %5.1f%%\n", w, rates[w]*100)
		}
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd)
	gamesCmd.AddCommand(gamesListCmd, gamesShowCmd, gamesResumeCmd, gamesResultsCmd)
	gamesShowCmd.Flags().Bool("admin", false, "include hidden roles")
}
