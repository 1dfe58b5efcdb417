package engine

// Team is the win-condition faction a role belongs to.
type Team string

const (
	TeamWerewolves Team = "werewolves"
	TeamVillagers  Team = "villagers"
	TeamThirdParty Team = "third_party"
)

// Winner values recorded at the end of a game. Team values are used directly
// except for the lovers sub-game.
const (
	WinnerLovers = "lovers"
)

// Phase is a state of the phase engine.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseNight         Phase = "night"
	PhaseDayMorning    Phase = "day_morning"
	PhaseDayDiscussion Phase = "day_discussion"
	PhaseDayVoting     Phase = "day_voting"
	PhaseVoteReveal    Phase = "vote_reveal"
	PhaseEnd           Phase = "end"
	PhaseAborted       Phase = "aborted"
)

// Terminal reports whether no further transitions leave the phase.
func (p Phase) Terminal() bool {
	return p == PhaseEnd || p == PhaseAborted
}

// ActionKind is the discriminant of an ActionResponse.
type ActionKind string

const (
	ActionKill    ActionKind = "kill"
	ActionReveal  ActionKind = "reveal"
	ActionSave    ActionKind = "save"
	ActionPoison  ActionKind = "poison"
	ActionProtect ActionKind = "protect"
	ActionPair    ActionKind = "pair"
	ActionShoot   ActionKind = "shoot"
	ActionVote    ActionKind = "vote"
	ActionSpeak   ActionKind = "speak"
	// ActionPotion is the request kind for the witch; responses use save, poison or none.
	ActionPotion ActionKind = "potion"
	ActionNone   ActionKind = "none"
)

// Source tells who produced a recorded decision.
type Source string

const (
	SourceAgent     Source = "agent"
	SourceHeuristic Source = "heuristic"
	SourceHuman     Source = "human"
	SourceEngine    Source = "engine"
)

// Role is an immutable role definition from the catalog.
type Role struct {
	ID             string       `yaml:"id" json:"id"`
	Team           Team         `yaml:"team" json:"team"`
	HasNightAction bool         `yaml:"night_action" json:"has_night_action"`
	ActionPriority int          `yaml:"priority" json:"action_priority"`
	Capabilities   []ActionKind `yaml:"capabilities" json:"capabilities"`
}

// Can reports whether the role is allowed to perform the action kind.
func (r Role) Can(kind ActionKind) bool {
	for _, c := range r.Capabilities {
		if c == kind {
			return true
		}
	}
	return false
}

// NightKind is the kind of decision the role makes at night.
func (r Role) NightKind() ActionKind {
	if !r.HasNightAction {
		return ActionNone
	}
	if r.Can(ActionSave) || r.Can(ActionPoison) {
		return ActionPotion
	}
	for _, k := range []ActionKind{ActionKill, ActionReveal, ActionProtect, ActionPair} {
		if r.Can(k) {
			return k
		}
	}
	return ActionNone
}

// Seat is a roster entry before roles are assigned.
type Seat struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Controller string `yaml:"controller" json:"controller"`
}

// Player is a seated participant of a session.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Alive      bool   `json:"alive"`
	Controller string `json:"controller,omitempty"`
	Seat       int    `json:"seat"`
}

// ActionRequest is the bounded decision request handed to one agent.
type ActionRequest struct {
	SessionID        string       `json:"session_id"`
	ActorID          string       `json:"actor_id"`
	Phase            Phase        `json:"phase"`
	Day              int          `json:"day"`
	ExpectedAction   ActionKind   `json:"expected_action"`
	AllowedActions   []ActionKind `json:"allowed_actions"`
	AvailableTargets []string     `json:"available_targets"`
	Context          *Payload     `json:"context"`
}

// Allows reports whether kind is an acceptable answer to the request.
func (r ActionRequest) Allows(kind ActionKind) bool {
	for _, k := range r.AllowedActions {
		if k == kind {
			return true
		}
	}
	return false
}

// HasTarget reports whether id is one of the available targets.
func (r ActionRequest) HasTarget(id string) bool {
	for _, t := range r.AvailableTargets {
		if t == id {
			return true
		}
	}
	return false
}

// ActionResponse is the validated decision of an agent.
type ActionResponse struct {
	Kind            ActionKind `json:"action"`
	TargetID        string     `json:"target,omitempty"`
	SecondaryTarget string     `json:"secondary_target,omitempty"`
	FreeText        string     `json:"free_text,omitempty"`
}

// Payload is the role-aware view of the game given to an actor.
type Payload struct {
	You            PlayerView        `json:"you"`
	Alive          []PlayerView      `json:"alive_players"`
	Dead           []PlayerView      `json:"dead_players"`
	Teammates      []string          `json:"werewolf_teammates,omitempty"`
	TeamPicks      map[string]string `json:"team_picks,omitempty"`
	SeerReveals    []Reveal          `json:"seer_reveals,omitempty"`
	Potions        *Potions          `json:"witch_potions,omitempty"`
	WolfTarget     string            `json:"werewolf_target,omitempty"`
	LastProtected  string            `json:"last_protected,omitempty"`
	Partner        string            `json:"lover_partner,omitempty"`
	RevealedIdiots []string          `json:"revealed_idiots,omitempty"`
	Summary        []string          `json:"history_summary"`
	Transcripts    []Transcript      `json:"transcripts"`
}

// PlayerView is a redacted player entry.
type PlayerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Reveal is one seer inspection result.
type Reveal struct {
	Day      int    `json:"day"`
	Target   string `json:"target"`
	Werewolf bool   `json:"werewolf"`
}

// Potions tracks the witch's single-use potions.
type Potions struct {
	Save   bool `json:"save"`
	Poison bool `json:"poison"`
}

// Speech is one utterance of the day discussion.
type Speech struct {
	Speaker string `json:"speaker"`
	Round   int    `json:"round"`
	Text    string `json:"text"`
}

// Transcript holds one day of discussion. Compressed transcripts keep only Summary.
type Transcript struct {
	Day      int      `json:"day"`
	Speeches []Speech `json:"speeches,omitempty"`
	Summary  []string `json:"summary,omitempty"`
}
