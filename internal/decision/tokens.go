package decision

import (
	"encoding/json"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// ApproxTokens estimates tokens as ceil(len(text)/4).
func ApproxTokens(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

// PayloadTokens estimates the size of a payload once serialized.
func PayloadTokens(p *engine.Payload) int {
	data, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return ApproxTokens(string(data))
}
