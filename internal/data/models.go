package data

import (
	"fmt"
	"os"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/rules"
)

// Agent kinds a seat can be driven by. Any other value names a provider profile.
const (
	AgentSilent   = "silent"
	AgentConsole  = "console"
	AgentTelegram = "telegram"
)

// PlayerConfig is one seat of the roster.
type PlayerConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Agent         string `yaml:"agent"`
	PreferredRole string `yaml:"preferred_role"`
	TelegramUser  int64  `yaml:"telegram_user"`
}

// ProviderProfile configures one model backend.
type ProviderProfile struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Enabled     bool    `yaml:"enabled"`
}

// Key returns the API key with environment references expanded.
func (p ProviderProfile) Key() string {
	return os.ExpandEnv(p.APIKey)
}

// GameConfig is a complete match description.
type GameConfig struct {
	Seed              int64                  `yaml:"seed"`
	Players           []PlayerConfig         `yaml:"players"`
	Distribution      map[string]int         `yaml:"distribution"`
	RoleDistributions map[int]map[string]int `yaml:"role_distributions"`
	Rules             engine.Rules           `yaml:"rules"`
	WinConditions     []rules.WinCondition   `yaml:"win_conditions"`
	Providers         []ProviderProfile      `yaml:"providers"`
	Telegram          TelegramConfig         `yaml:"telegram"`
}

// TelegramConfig names the group chat human seats play in. The bot token is
// read from the CLI configuration.
type TelegramConfig struct {
	ChatID int64 `yaml:"chat_id"`
}

// TelegramUsers maps telegram user ids to the players they control.
func (c *GameConfig) TelegramUsers() map[int64]string {
	users := make(map[int64]string)
	for _, p := range c.Players {
		if p.Agent == AgentTelegram {
			users[p.TelegramUser] = p.ID
		}
	}
	return users
}

// Seats returns the roster in seating order.
func (c *GameConfig) Seats() []engine.Seat {
	seats := make([]engine.Seat, 0, len(c.Players))
	for _, p := range c.Players {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		seats = append(seats, engine.Seat{ID: p.ID, Name: name, Controller: p.Agent})
	}
	return seats
}

// Preferences maps player ids to their requested roles.
func (c *GameConfig) Preferences() map[string]string {
	prefs := make(map[string]string)
	for _, p := range c.Players {
		if p.PreferredRole != "" {
			prefs[p.ID] = p.PreferredRole
		}
	}
	return prefs
}

// DistributionFor returns the explicit distribution if one is set, otherwise
// the bucket for n players.
func (c *GameConfig) DistributionFor(n int) (map[string]int, error) {
	if len(c.Distribution) > 0 {
		return c.Distribution, nil
	}
	d, ok := c.RoleDistributions[n]
	if !ok {
		return nil, fmt.Errorf("%w: no role distribution for %d players", engine.ErrConfig, n)
	}
	return d, nil
}

// Provider returns the named profile.
func (c *GameConfig) Provider(name string) (ProviderProfile, bool) {
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ProviderProfile{}, false
}

// Validate checks the roster and every agent reference.
func (c *GameConfig) Validate() error {
	seen := make(map[string]bool, len(c.Players))
	for i, p := range c.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: player %d has no id", engine.ErrConfig, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate player id %q", engine.ErrConfig, p.ID)
		}
		seen[p.ID] = true

		switch p.Agent {
		case "", AgentSilent, AgentConsole:
		case AgentTelegram:
			if p.TelegramUser == 0 || c.Telegram.ChatID == 0 {
				return fmt.Errorf("%w: telegram seat %s needs telegram_user and telegram.chat_id", engine.ErrConfig, p.ID)
			}
		default:
			prof, ok := c.Provider(p.Agent)
			if !ok {
				return fmt.Errorf("%w: player %s uses unknown provider %q", engine.ErrConfig, p.ID, p.Agent)
			}
			if !prof.Enabled {
				return fmt.Errorf("%w: player %s uses disabled provider %q", engine.ErrConfig, p.ID, p.Agent)
			}
		}
	}
	if _, err := c.DistributionFor(len(c.Players)); err != nil {
		return err
	}
	return nil
}
