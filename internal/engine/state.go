package engine

import (
	"sort"
	"time"
)

// Vote tie policies.
const (
	TieNoElimination = "no_elimination"
	TieLowestSeat    = "lowest_seat"
)

// Death causes.
const (
	CauseWerewolves = "werewolves"
	CausePoison     = "poison"
	CauseVote       = "vote"
	CauseHunter     = "hunter"
	CauseHeartbreak = "heartbreak"
)

// Rules are the gameplay switches fixed at session creation.
type Rules struct {
	DiscussionRounds       int           `yaml:"discussion_rounds" json:"discussion_rounds"`
	VoteTiePolicy          string        `yaml:"vote_tie_policy" json:"vote_tie_policy"`
	VoteTransparency       bool          `yaml:"vote_transparency" json:"vote_transparency"`
	RevealRoleOnDeath      bool          `yaml:"reveal_role_on_death" json:"reveal_role_on_death"`
	PoisonedHunterCanShoot bool          `yaml:"poisoned_hunter_can_shoot" json:"poisoned_hunter_can_shoot"`
	WitchPotionsPerNight   int           `yaml:"witch_potions_per_night" json:"witch_potions_per_night"`
	DecisionTimeout        time.Duration `yaml:"decision_timeout" json:"decision_timeout"`
	ContextBudget          int           `yaml:"context_budget_tokens" json:"context_budget_tokens"`
	MaxFreeText            int           `yaml:"max_free_text" json:"max_free_text"`
}

// DefaultRules returns the documented defaults.
func DefaultRules() Rules {
	return Rules{
		DiscussionRounds:     1,
		VoteTiePolicy:        TieNoElimination,
		VoteTransparency:     true,
		WitchPotionsPerNight: 1,
		DecisionTimeout:      30 * time.Second,
		ContextBudget:        2000,
		MaxFreeText:          500,
	}
}

// Normalize clamps out of range values and fills zero values with defaults.
func (r Rules) Normalize() Rules {
	def := DefaultRules()
	if r.DiscussionRounds < 1 {
		r.DiscussionRounds = 1
	}
	if r.DiscussionRounds > 3 {
		r.DiscussionRounds = 3
	}
	if r.VoteTiePolicy != TieLowestSeat {
		r.VoteTiePolicy = TieNoElimination
	}
	if r.WitchPotionsPerNight < 1 {
		r.WitchPotionsPerNight = def.WitchPotionsPerNight
	}
	if r.DecisionTimeout <= 0 {
		r.DecisionTimeout = def.DecisionTimeout
	}
	if r.ContextBudget <= 0 {
		r.ContextBudget = def.ContextBudget
	}
	if r.MaxFreeText <= 0 {
		r.MaxFreeText = def.MaxFreeText
	}
	return r
}

// Vote is one day vote. An empty Target is an abstention.
type Vote struct {
	Voter  string `json:"voter"`
	Target string `json:"target,omitempty"`
	Source Source `json:"source"`
}

// Death records when and how a player died.
type Death struct {
	Player string `json:"player"`
	Cause  string `json:"cause"`
	Day    int    `json:"day"`
	Phase  Phase  `json:"phase"`
}

// VoteResult is the outcome of one day vote.
type VoteResult struct {
	Day        int            `json:"day"`
	Votes      []Vote         `json:"votes"`
	Counts     map[string]int `json:"counts"`
	Eliminated string         `json:"eliminated,omitempty"`
	Tie        bool           `json:"tie"`
	Spared     string         `json:"spared,omitempty"`
}

// RoleState holds per-role resources that persist across nights.
type RoleState struct {
	Potions        map[string]Potions  `json:"potions"`
	LastProtected  map[string]string   `json:"last_protected"`
	Reveals        map[string][]Reveal `json:"reveals"`
	Lovers         []string            `json:"lovers,omitempty"`
	RevealedIdiots map[string]bool     `json:"revealed_idiots"`
	HunterShots    map[string]bool     `json:"hunter_shots"`
}

// NightState is scratch state reset on entering each night.
type NightState struct {
	WolfPicks   map[string]string `json:"wolf_picks"`
	WolfOrder   []string          `json:"wolf_order"`
	KillTarget  string            `json:"kill_target,omitempty"`
	Protected   map[string]bool   `json:"protected"`
	Saved       string            `json:"saved,omitempty"`
	Poisoned    string            `json:"poisoned,omitempty"`
	PotionsUsed map[string]int    `json:"potions_used"`
	Acted       map[string]bool   `json:"acted"`
	Resolved    bool              `json:"resolved"`
}

// GameState is the projection of a session's history.
type GameState struct {
	SessionID   string       `json:"session_id"`
	Seed        int64        `json:"seed"`
	Rules       Rules        `json:"rules"`
	Players     []*Player    `json:"players"`
	Day         int          `json:"day"`
	Phase       Phase        `json:"phase"`
	Winner      string       `json:"winner,omitempty"`
	AbortReason string       `json:"abort_reason,omitempty"`
	RoleState   RoleState    `json:"role_state"`
	Night       NightState   `json:"night"`
	Votes       []Vote       `json:"votes"`
	Deaths      []Death      `json:"deaths"`
	VoteResults []VoteResult `json:"vote_results"`
	Transcripts []Transcript `json:"transcripts"`
	Seq         int64        `json:"seq"`

	teams map[string]Team
}

// NewGameState creates an empty lobby state.
func NewGameState() *GameState {
	return &GameState{
		Phase: PhaseLobby,
		RoleState: RoleState{
			Potions:        make(map[string]Potions),
			LastProtected:  make(map[string]string),
			Reveals:        make(map[string][]Reveal),
			RevealedIdiots: make(map[string]bool),
			HunterShots:    make(map[string]bool),
		},
		Night: newNightState(),
		teams: make(map[string]Team),
	}
}

func newNightState() NightState {
	return NightState{
		WolfPicks:   make(map[string]string),
		Protected:   make(map[string]bool),
		PotionsUsed: make(map[string]int),
		Acted:       make(map[string]bool),
	}
}

// Player returns the player with the given id, or nil.
func (s *GameState) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Alive returns living players in seating order.
func (s *GameState) Alive() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveWithRole returns living holders of a role in seating order.
func (s *GameState) AliveWithRole(role string) []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Alive && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// TeamOf returns the team of a player's role.
func (s *GameState) TeamOf(id string) Team {
	return s.teams[id]
}

// IsWolf reports whether the player is on the werewolf team.
func (s *GameState) IsWolf(id string) bool {
	return s.teams[id] == TeamWerewolves
}

// SeatOf returns the seating index of a player, or -1.
func (s *GameState) SeatOf(id string) int {
	if p := s.Player(id); p != nil {
		return p.Seat
	}
	return -1
}

// LoverOf returns the partner of a lover, or "".
func (s *GameState) LoverOf(id string) string {
	if len(s.RoleState.Lovers) != 2 {
		return ""
	}
	switch id {
	case s.RoleState.Lovers[0]:
		return s.RoleState.Lovers[1]
	case s.RoleState.Lovers[1]:
		return s.RoleState.Lovers[0]
	}
	return ""
}

// HasVoted reports whether the voter already voted today.
func (s *GameState) HasVoted(id string) bool {
	for _, v := range s.Votes {
		if v.Voter == id {
			return true
		}
	}
	return false
}

// CanVote reports whether a player may vote today.
func (s *GameState) CanVote(id string) bool {
	p := s.Player(id)
	return p != nil && p.Alive && !s.RoleState.RevealedIdiots[id]
}

// RolesPresent returns the distinct roles of living players.
func (s *GameState) RolesPresent() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.Alive() {
		if !seen[p.Role] {
			seen[p.Role] = true
			out = append(out, p.Role)
		}
	}
	sort.Strings(out)
	return out
}

// DeathsOn returns deaths recorded for a day and phase in order.
func (s *GameState) DeathsOn(day int, phase Phase) []Death {
	var out []Death
	for _, d := range s.Deaths {
		if d.Day == day && d.Phase == phase {
			out = append(out, d)
		}
	}
	return out
}

// Snapshot is the read-only view handed to the outer layers.
type Snapshot struct {
	SessionID   string       `json:"session_id"`
	Day         int          `json:"day"`
	Phase       Phase        `json:"phase"`
	Winner      string       `json:"winner,omitempty"`
	AbortReason string       `json:"abort_reason,omitempty"`
	Players     []Player     `json:"players"`
	VoteResults []VoteResult `json:"vote_results,omitempty"`
	Seq         int64        `json:"seq"`
}

// Snapshot copies the state. Unless admin is set, roles are redacted except
// for revealed idiots and, when the rules allow it, dead players.
func (s *GameState) Snapshot(admin bool) Snapshot {
	snap := Snapshot{
		SessionID:   s.SessionID,
		Day:         s.Day,
		Phase:       s.Phase,
		Winner:      s.Winner,
		AbortReason: s.AbortReason,
		Seq:         s.Seq,
	}
	for _, p := range s.Players {
		cp := *p
		if !admin && !s.roleVisible(p) {
			cp.Role = ""
		}
		if !admin {
			cp.Controller = ""
		}
		snap.Players = append(snap.Players, cp)
	}
	for _, r := range s.VoteResults {
		cp := r
		if !admin && !s.Rules.VoteTransparency {
			cp.Votes = nil
		}
		snap.VoteResults = append(snap.VoteResults, cp)
	}
	return snap
}

func (s *GameState) roleVisible(p *Player) bool {
	if s.Phase == PhaseEnd {
		return true
	}
	if s.RoleState.RevealedIdiots[p.ID] {
		return true
	}
	return !p.Alive && s.Rules.RevealRoleOnDeath
}
