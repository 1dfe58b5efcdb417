package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/model"
)

// LLMConfig selects the model behind an LLM seat.
type LLMConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// LLM asks a language model for every decision.
type LLM struct {
	provider model.Provider
	cfg      LLMConfig
}

func NewLLM(provider model.Provider, cfg LLMConfig) *LLM {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	return &LLM{provider: provider, cfg: cfg}
}

func (a *LLM) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return "", err
	}
	resp, err := a.provider.Complete(ctx, model.CompletionRequest{
		Model:        a.cfg.Model,
		SystemPrompt: systemPrompt,
		Messages:     []model.Message{{Role: model.RoleUser, Content: prompt}},
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", engine.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", engine.ErrProvider, err)
	}
	return resp.Content, nil
}
