package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

const systemPrompt = `You are a player in a game of Werewolf. Stay in character, keep your role secret unless revealing it helps your team, and play to win.
You will receive the game state as JSON. Reply with a single JSON object and nothing else.`

var examples = map[engine.ActionKind]string{
	engine.ActionKill:    `{"action":"kill","target":"<player id>"}`,
	engine.ActionReveal:  `{"action":"reveal","target":"<player id>"}`,
	engine.ActionProtect: `{"action":"protect","target":"<player id>"}`,
	engine.ActionPair:    `{"action":"pair","target":"<player id>","secondary_target":"<player id>"}`,
	engine.ActionPotion:  `{"action":"save","target":"<player id>"} or {"action":"poison","target":"<player id>"} or {"action":"none"}`,
	engine.ActionShoot:   `{"action":"shoot","target":"<player id>"} or {"action":"none"}`,
	engine.ActionVote:    `{"action":"vote","target":"<player id>"} or {"action":"none"}`,
	engine.ActionSpeak:   `{"action":"speak","speech":"<what you say to the table>"}`,
}

// Prompt renders the user message for a request: the request as JSON
// followed by the expected reply shape.
func Prompt(req engine.ActionRequest) (string, error) {
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	var b strings.Builder
	b.WriteString("INPUT_JSON:\n")
	b.Write(body)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Expected action: %s. Allowed: %s.\n", req.ExpectedAction, joinKinds(req.AllowedActions))
	if len(req.AvailableTargets) > 0 {
		fmt.Fprintf(&b, "Valid targets: %s.\n", strings.Join(req.AvailableTargets, ", "))
	}
	if ex, ok := examples[req.ExpectedAction]; ok {
		fmt.Fprintf(&b, "Reply with a single JSON object, for example: %s\n", ex)
	}
	return b.String(), nil
}

func joinKinds(kinds []engine.ActionKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
