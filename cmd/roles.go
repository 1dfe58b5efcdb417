/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the role catalog and the night action order",
	Run: func(cmd *cobra.Command, args []string) {
		game, catalog, err := loadGame(nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, id := range catalog.IDs() {
			r := catalog.MustRole(id)
			caps := make([]string, 0, len(r.Capabilities))
			for _, c := range r.Capabilities {
				caps = append(caps, string(c))
			}
			night := "-"
			if r.HasNightAction {
				night = fmt.Sprintf("%d", r.ActionPriority)
			}
			fmt.Printf("%-10s %-11s night %-4s %s\n", r.ID, r.Team, night, strings.Join(caps, ", "))
		}

		fmt.Printf("\nNight order: %s\n", strings.Join(catalog.NightActionOrder(catalog.IDs()), " -> "))
		if dist, err := game.DistributionFor(len(game.Players)); err == nil {
			fmt.Printf("Table of %d: %v\n", len(game.Players), dist)
		}
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}
