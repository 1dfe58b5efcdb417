// Package arena wires a game file into a running registry: role catalog,
// win conditions, one agent per seat and the phase engine.
package arena

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/suderio/werewolf-arena/internal/agent"
	"github.com/suderio/werewolf-arena/internal/command"
	"github.com/suderio/werewolf-arena/internal/data"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/model"
	"github.com/suderio/werewolf-arena/internal/rules"
	"github.com/suderio/werewolf-arena/internal/session"
	"github.com/suderio/werewolf-arena/internal/telegram"
)

// Options are the runtime dependencies that do not come from the game file.
type Options struct {
	Logger    *log.Logger
	Console   agent.Agent
	Telegram  *telegram.Bot
	Providers *model.Registry
	Stores    session.StoreFactory
	Observer  func(command.DecisionStat)
}

// Arena is a wired game table.
type Arena struct {
	Game     *data.GameConfig
	Catalog  *engine.Catalog
	Agents   *agent.Directory
	Engine   *command.Engine
	Registry *session.Registry
}

func New(game *data.GameConfig, catalog *engine.Catalog, opts Options) (*Arena, error) {
	if err := game.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Providers == nil {
		opts.Providers = model.DefaultRegistry()
	}

	reg, err := rules.NewRegistry()
	if err != nil {
		return nil, err
	}
	wins, err := rules.NewWinEvaluator(reg, catalog.IDs(), game.WinConditions)
	if err != nil {
		return nil, err
	}

	agents, err := seatAgents(game, opts)
	if err != nil {
		return nil, err
	}

	engineOpts := []command.Option{command.WithLogger(opts.Logger)}
	if opts.Observer != nil {
		engineOpts = append(engineOpts, command.WithObserver(opts.Observer))
	}
	eng := command.New(catalog, wins, agents, engineOpts...)

	return &Arena{
		Game:     game,
		Catalog:  catalog,
		Agents:   agents,
		Engine:   eng,
		Registry: session.NewRegistry(catalog, eng, session.WithLogger(opts.Logger), session.WithStores(opts.Stores)),
	}, nil
}

// Table returns the session config described by the game file.
func (a *Arena) Table() (session.Config, error) {
	seats := a.Game.Seats()
	dist, err := a.Game.DistributionFor(len(seats))
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Seats:        seats,
		Distribution: dist,
		Preferences:  a.Game.Preferences(),
		Seed:         a.Game.Seed,
		Rules:        a.Game.Rules,
	}, nil
}

func seatAgents(game *data.GameConfig, opts Options) (*agent.Directory, error) {
	dir := agent.NewDirectory(agent.Silent{})
	llms := make(map[string]agent.Agent)

	for _, p := range game.Players {
		switch p.Agent {
		case "", data.AgentSilent:
			dir.Register(p.ID, agent.Silent{})
		case data.AgentConsole:
			if opts.Console == nil {
				opts.Console = agent.NewConsole(os.Stdin, os.Stdout)
			}
			dir.Register(p.ID, opts.Console)
		case data.AgentTelegram:
			if opts.Telegram == nil {
				return nil, fmt.Errorf("%w: player %s sits on telegram but no bot is configured", engine.ErrConfig, p.ID)
			}
			dir.Register(p.ID, opts.Telegram.Seat(p.ID))
		default:
			key := strings.ToLower(p.Agent)
			a, ok := llms[key]
			if !ok {
				prof, _ := game.Provider(p.Agent)
				provider, err := newProvider(opts.Providers, prof)
				if err != nil {
					return nil, err
				}
				a = agent.NewLLM(provider, agent.LLMConfig{
					Model:       prof.Model,
					Temperature: prof.Temperature,
					MaxTokens:   prof.MaxTokens,
				})
				llms[key] = a
			}
			dir.Register(p.ID, a)
		}
	}
	return dir, nil
}

func newProvider(reg *model.Registry, prof data.ProviderProfile) (model.Provider, error) {
	if prof.Endpoint != "" {
		switch strings.ToLower(prof.Provider) {
		case "openai":
			return model.NewOpenAIProvider(prof.Key(), model.WithOpenAIEndpoint(prof.Endpoint)), nil
		case "anthropic":
			return model.NewAnthropicProvider(prof.Key(), model.WithAnthropicEndpoint(prof.Endpoint)), nil
		}
	}
	provider, ok := reg.Resolve(prof.Provider, prof.Key())
	if !ok {
		return nil, fmt.Errorf("%w: profile %s uses unknown provider %q", engine.ErrConfig, prof.Name, prof.Provider)
	}
	return provider, nil
}
