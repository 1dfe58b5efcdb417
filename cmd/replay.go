/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suderio/werewolf-arena/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay [game_id]",
	Short: "Replay a stored game and print its history",
	Long: `Reads the history of a stored game, folds it back into the game state
through the projector and prints every event with the resulting outcome.`,
	Args: cobra.ExactArgs(1),
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

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				_ = enc.Encode(e)
			}
			return
		}

		state, err := session.Replay(entries)
		if err != nil {
			fmt.Printf("Error building state: %v\n", err)
			os.Exit(1)
		}
		printEntries(entries, 0, true)

		fmt.Printf("\nProcessed %d events.\n", len(entries))
		fmt.Printf("Phase: %s, day %d", state.Phase, state.Day)
		if state.Winner != "" {
			fmt.Printf(", winner: %s", state.Winner)
		}
		fmt.Println()
		for _, p := range state.Snapshot(true).Players {
			status := "alive"
			if !p.Alive {
				status = "dead"
			}
			fmt.Printf("- %s (%s, %s)\n", p.Name, p.Role, status)
		}
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("json", false, "print the raw history as JSON lines")
}
