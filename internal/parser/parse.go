package parser

import (
	"fmt"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

var verbs = map[string]engine.ActionKind{
	"vote":    engine.ActionVote,
	"lynch":   engine.ActionVote,
	"kill":    engine.ActionKill,
	"bite":    engine.ActionKill,
	"reveal":  engine.ActionReveal,
	"check":   engine.ActionReveal,
	"inspect": engine.ActionReveal,
	"save":    engine.ActionSave,
	"heal":    engine.ActionSave,
	"poison":  engine.ActionPoison,
	"protect": engine.ActionProtect,
	"guard":   engine.ActionProtect,
	"pair":    engine.ActionPair,
	"link":    engine.ActionPair,
	"shoot":   engine.ActionShoot,
	"say":     engine.ActionSpeak,
	"speak":   engine.ActionSpeak,
	"none":    engine.ActionNone,
	"pass":    engine.ActionNone,
	"skip":    engine.ActionNone,
	"abstain": engine.ActionNone,
}

var actionParser = Build()

// Action is a parsed plain text action. Actor is set when the text carried a "by:" block.
type Action struct {
	Actor    string
	Response engine.ActionResponse
}

// ParseAction parses one line of the action language into a response.
// Target names are returned as written; resolving them is up to the caller.
func ParseAction(input string) (Action, error) {
	input = strings.TrimSpace(input)
	cmd, err := actionParser.ParseString("", input)
	if err != nil {
		return Action{}, MapError(input, err)
	}

	kind, ok := verbs[strings.ToLower(cmd.Verb)]
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", cmd.Verb)
	}

	var out Action
	if cmd.Actor != nil {
		out.Actor = cmd.Actor.Name
	}
	out.Response.Kind = kind
	if cmd.Targets != nil {
		names := cmd.Targets.Names
		if len(names) > 2 {
			return Action{}, fmt.Errorf("at most two targets, got %d", len(names))
		}
		out.Response.TargetID = names[0]
		if len(names) == 2 {
			out.Response.SecondaryTarget = names[1]
		}
	}
	if cmd.Speech != nil {
		out.Response.FreeText = *cmd.Speech
	}
	return out, nil
}
