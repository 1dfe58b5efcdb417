package rules

import "github.com/suderio/werewolf-arena/internal/engine"

// WinCondition binds a winner to a boolean CEL expression. Conditions are
// checked in order and the first one that holds ends the game.
type WinCondition struct {
	Winner string `yaml:"winner" json:"winner"`
	When   string `yaml:"when" json:"when"`
}

// DefaultWinConditions returns the standard lovers, villagers, werewolves checks.
func DefaultWinConditions() []WinCondition {
	return []WinCondition{
		{Winner: engine.WinnerLovers, When: "lovers_alive == 2 && alive - lovers_alive <= alive_roles['cupid']"},
		{Winner: string(engine.TeamVillagers), When: "wolves == 0"},
		{Winner: string(engine.TeamWerewolves), When: "wolves >= alive - wolves"},
	}
}
