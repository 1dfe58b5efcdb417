/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/suderio/werewolf-arena/internal/arena"
	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/data"
	"github.com/suderio/werewolf-arena/internal/engine"
)

var playCmd = &cobra.Command{
	Use:   "play [game_file]",
	Short: "Play one game to the end",
	Long: `Seats the players of the game file, deals the roles and runs phases
until a side wins. Seats with agent: console are played on this terminal;
seats with agent: telegram are played in the configured Telegram chat.

Usage:
	werewolf-arena play --seed 7 --human p3`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		game, catalog, err := loadGame(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("seed") {
			game.Seed, _ = cmd.Flags().GetInt64("seed")
		}
		humans, _ := cmd.Flags().GetStringSlice("human")
		for _, id := range humans {
			for i := range game.Players {
				if game.Players[i].ID == id {
					game.Players[i].Agent = data.AgentConsole
				}
			}
		}
		admin, _ := cmd.Flags().GetBool("admin")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger()
		store, err := openBackend()
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		bot := maybeStartBot(ctx, game, logger)

		a, err := arena.New(game, catalog, arena.Options{
			Logger:   logger,
			Telegram: bot,
			Stores:   store.stores,
			Observer: func(s command.DecisionStat) {
				if s.Source == engine.SourceHeuristic {
					logger.Printf("%s %s: heuristic (%s) in %s", s.Actor, s.Kind, s.Failure, s.Latency)
				}
			},
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
		id, err := a.Registry.Create(table)
		if err != nil {
			fmt.Printf("Error creating game: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Game %s (seed %d), %d players.\n", id, table.Seed, len(table.Seats))

		printed := 0
		for {
			snap, err := a.Registry.Advance(ctx, id)
			history, _ := a.Registry.History(id)
			if bot != nil {
				announce(ctx, bot, history[printed:], deathsPublic(history))
			}
			printed = printEntries(history, printed, admin)
			if err != nil {
				fmt.Printf("Stopped: %v\n", err)
				_ = a.Registry.Abort(id, err.Error())
				os.Exit(1)
			}
			if snap.Phase.Terminal() {
				break
			}
		}

		final, _ := a.Registry.Snapshot(id, true)
		fmt.Printf("\nWinner: %s after %d days.\n", final.Winner, final.Day)
		for _, p := range final.Players {
			status := "alive"
			if !p.Alive {
				status = "dead"
			}
			fmt.Printf("  %-4s %-12s %-9s %s\n", p.ID, p.Name, p.Role, status)
		}
	},
}

// printEntries prints the entries after from and returns the new count.
// Private entries are only shown in admin mode.
func printEntries(history []engine.HistoryEntry, from int, admin bool) int {
	reveal := admin || deathsPublic(history)
	for _, entry := range history[from:] {
		if !admin && !public(entry) {
			continue
		}
		if msg, ok := message(entry, reveal); ok {
			fmt.Printf("[%03d day %d %s] %s\n", entry.Seq, entry.Day, entry.Phase, msg)
		}
	}
	return len(history)
}

func public(entry engine.HistoryEntry) bool {
	switch entry.Type {
	case engine.EventRolesAssigned, engine.EventActionTaken, engine.EventKillResolved, engine.EventVoteCast, engine.EventVoteTallied:
		return false
	}
	return true
}

// message renders an entry. The cause of a death names the witch's poison or
// the lovers, so it is left out unless roles are revealed on death.
func message(entry engine.HistoryEntry, revealDeaths bool) (string, bool) {
	evt, err := entry.Event()
	if err != nil {
		return "", false
	}
	if d, ok := evt.(*engine.DeathEvent); ok && !revealDeaths {
		return fmt.Sprintf("%s died.", d.Player), true
	}
	return evt.Message(), true
}

// deathsPublic reads the reveal_role_on_death rule from the opening entry.
func deathsPublic(history []engine.HistoryEntry) bool {
	if len(history) == 0 {
		return false
	}
	evt, err := history[0].Event()
	if err != nil {
		return false
	}
	created, ok := evt.(*engine.SessionCreatedEvent)
	return ok && created.Rules.RevealRoleOnDeath
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Int64("seed", 0, "override the seed of the game file")
	playCmd.Flags().StringSlice("human", nil, "player ids to play on this terminal")
	playCmd.Flags().Bool("admin", false, "show private events (roles, night actions, individual votes)")
}
