package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/parser"
)

// Failure codes recorded with heuristic decisions.
const (
	FailTimeout       = "timeout"
	FailProvider      = "provider_error"
	FailEmpty         = "empty_response"
	FailNotJSON       = "not_json"
	FailWrongAction   = "wrong_action"
	FailMissingTarget = "missing_target"
	FailInvalidTarget = "invalid_target"
	FailCapability    = "capability"
	FailMissingSpeech = "missing_speech"
)

// Decision is the outcome of validating one agent reply.
type Decision struct {
	Response engine.ActionResponse
	Source   engine.Source
	Failure  string
}

// Validator turns raw agent output into a decision, falling back to the
// heuristic whenever the output cannot be used.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks raw against the request. callErr is the error returned by
// the agent call, if any; timeouts and provider errors fall back like any
// other failure.
func (v *Validator) Validate(state *engine.GameState, req engine.ActionRequest, raw string, callErr error) Decision {
	if callErr != nil {
		code := FailProvider
		if errors.Is(callErr, engine.ErrTimeout) {
			code = FailTimeout
		}
		return v.fallback(state, req, code)
	}

	resp, code := parseResponse(raw, req)
	if code != "" {
		return v.fallback(state, req, code)
	}
	resp, code = check(state, req, resp)
	if code != "" {
		return v.fallback(state, req, code)
	}
	resp.FreeText = Truncate(resp.FreeText, state.Rules.MaxFreeText)
	return Decision{Response: resp, Source: engine.SourceAgent}
}

func (v *Validator) fallback(state *engine.GameState, req engine.ActionRequest, code string) Decision {
	resp := Fallback(state, req)
	resp.FreeText = Truncate(resp.FreeText, state.Rules.MaxFreeText)
	return Decision{Response: resp, Source: engine.SourceHeuristic, Failure: code}
}

// Truncate trims whitespace and cuts text to at most max runes.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max]))
}

type wireResponse struct {
	Action       string `json:"action"`
	Target       any    `json:"target"`
	Vote         any    `json:"vote"`
	Secondary    any    `json:"secondary_target"`
	SaveTarget   any    `json:"save_target"`
	PoisonTarget any    `json:"poison_target"`
	Speech       string `json:"speech"`
	Text         string `json:"text"`
	Reason       string `json:"reason"`
}

func parseResponse(raw string, req engine.ActionRequest) (engine.ActionResponse, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return engine.ActionResponse{}, FailEmpty
	}

	if obj, ok := extractJSON(raw); ok {
		var w wireResponse
		if err := json.Unmarshal([]byte(obj), &w); err == nil {
			return fromWire(w, req), ""
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		act, err := parser.ParseAction(line)
		if err != nil {
			break
		}
		return act.Response, ""
	}
	return engine.ActionResponse{}, FailNotJSON
}

// extractJSON returns the outermost object in text, tolerating code fences and prose.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func fromWire(w wireResponse, req engine.ActionRequest) engine.ActionResponse {
	resp := engine.ActionResponse{
		Kind:            engine.ActionKind(strings.ToLower(strings.TrimSpace(w.Action))),
		TargetID:        stringify(w.Target),
		SecondaryTarget: stringify(w.Secondary),
		FreeText:        w.Speech,
	}
	if resp.FreeText == "" {
		resp.FreeText = w.Text
	}
	if resp.FreeText == "" {
		resp.FreeText = w.Reason
	}
	if resp.TargetID == "" {
		resp.TargetID = stringify(w.Vote)
	}

	save, poison := stringify(w.SaveTarget), stringify(w.PoisonTarget)
	if resp.Kind == "witch_action" || resp.Kind == engine.ActionPotion || (resp.Kind == "" && (save != "" || poison != "")) {
		switch {
		case save != "" && poison != "":
			resp.Kind, resp.TargetID, resp.SecondaryTarget = engine.ActionSave, save, poison
		case save != "":
			resp.Kind, resp.TargetID = engine.ActionSave, save
		case poison != "":
			resp.Kind, resp.TargetID = engine.ActionPoison, poison
		default:
			resp.Kind = engine.ActionNone
		}
	}

	if resp.Kind == "" {
		switch {
		case req.ExpectedAction == engine.ActionSpeak && resp.FreeText != "":
			resp.Kind = engine.ActionSpeak
		case req.ExpectedAction == engine.ActionVote && resp.TargetID != "":
			resp.Kind = engine.ActionVote
		}
	}
	if resp.Kind == "abstain" || resp.Kind == "pass" {
		resp.Kind = engine.ActionNone
	}
	return resp
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%v", t)
	}
	return ""
}

func check(state *engine.GameState, req engine.ActionRequest, resp engine.ActionResponse) (engine.ActionResponse, string) {
	if !req.Allows(resp.Kind) {
		return resp, FailWrongAction
	}

	switch resp.Kind {
	case engine.ActionNone:
		return engine.ActionResponse{Kind: engine.ActionNone, FreeText: resp.FreeText}, ""
	case engine.ActionSpeak:
		if strings.TrimSpace(resp.FreeText) == "" {
			return resp, FailMissingSpeech
		}
		return engine.ActionResponse{Kind: engine.ActionSpeak, FreeText: resp.FreeText}, ""
	}

	if resp.TargetID == "" {
		return resp, FailMissingTarget
	}
	target, ok := ResolveTarget(state, resp.TargetID, req.AvailableTargets)
	if !ok {
		return resp, FailInvalidTarget
	}
	resp.TargetID = target

	switch resp.Kind {
	case engine.ActionPair:
		if resp.SecondaryTarget == "" {
			return resp, FailMissingTarget
		}
		second, ok := ResolveTarget(state, resp.SecondaryTarget, req.AvailableTargets)
		if !ok || second == target {
			return resp, FailInvalidTarget
		}
		resp.SecondaryTarget = second
		return resp, ""
	case engine.ActionSave, engine.ActionPoison:
		return checkPotions(state, req, resp)
	}
	resp.SecondaryTarget = ""
	return resp, ""
}

// checkPotions enforces the witch's limits: potions left, the per night
// allowance, saving only the werewolves' target, and never poisoning oneself.
func checkPotions(state *engine.GameState, req engine.ActionRequest, resp engine.ActionResponse) (engine.ActionResponse, string) {
	potions := state.RoleState.Potions[req.ActorID]
	used := state.Night.PotionsUsed[req.ActorID]
	limit := state.Rules.WitchPotionsPerNight

	save, poison := "", ""
	if resp.Kind == engine.ActionSave {
		save = resp.TargetID
		if resp.SecondaryTarget != "" {
			second, ok := ResolveTarget(state, resp.SecondaryTarget, req.AvailableTargets)
			if !ok {
				return resp, FailInvalidTarget
			}
			poison = second
			resp.SecondaryTarget = second
		}
	} else {
		poison = resp.TargetID
		resp.SecondaryTarget = ""
	}

	n := 0
	if save != "" {
		if !potions.Save || save != state.Night.KillTarget {
			return resp, FailCapability
		}
		n++
	}
	if poison != "" {
		if !potions.Poison || poison == req.ActorID {
			return resp, FailCapability
		}
		n++
	}
	if used+n > limit {
		return resp, FailCapability
	}
	return resp, ""
}
