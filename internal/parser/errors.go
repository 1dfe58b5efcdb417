package parser

import (
	"fmt"
	"strings"
)

// MapError takes a raw input and a participle error, and returns a human-friendly guidance message.
func MapError(input string, err error) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand your action")
	}

	parts := strings.Fields(strings.ToLower(input))
	cmd := strings.TrimSuffix(parts[0], ":")

	switch cmd {
	case "vote", "lynch":
		return fmt.Errorf("The action vote must be: vote [by: Actor] [to:] Target")
	case "kill", "bite", "reveal", "check", "inspect", "save", "heal", "poison", "protect", "guard", "shoot":
		return fmt.Errorf("The action %s must be: %s [by: Actor] [to:] Target", cmd, cmd)
	case "pair", "link":
		return fmt.Errorf("The action %s must be: %s [by: Actor] Target1 and Target2", cmd, cmd)
	case "say", "speak":
		return fmt.Errorf("The action %s must be: %s [by: Actor] \"text\"", cmd, cmd)
	case "none", "pass", "skip", "abstain":
		return fmt.Errorf("The action %s takes no arguments", cmd)
	}

	return fmt.Errorf("I wasn't able to understand your action: %v", err)
}
