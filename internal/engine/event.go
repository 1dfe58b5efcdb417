package engine

import (
	"fmt"
	"sort"
	"strings"
)

type EventType string

const (
	EventSessionCreated  EventType = "SessionCreated"
	EventRolesAssigned   EventType = "RolesAssigned"
	EventPhaseChanged    EventType = "PhaseChanged"
	EventActionTaken     EventType = "ActionTaken"
	EventKillResolved    EventType = "KillResolved"
	EventDeath           EventType = "Death"
	EventMorningAnnounce EventType = "MorningAnnounced"
	EventSpeech          EventType = "Speech"
	EventVoteCast        EventType = "VoteCast"
	EventVoteTallied     EventType = "VoteTallied"
	EventIdiotRevealed   EventType = "IdiotRevealed"
	EventVotesRevealed   EventType = "VotesRevealed"
	EventGameEnded       EventType = "GameEnded"
	EventSessionAborted  EventType = "SessionAborted"
)

// Event is the building block of the event sourced session.
type Event interface {
	Type() EventType
	Apply(state *GameState) error
	Message() string
}

// Sourced is implemented by events that record a decision.
type Sourced interface {
	DecisionSource() Source
}

// SessionCreatedEvent seats the roster and fixes the rules.
type SessionCreatedEvent struct {
	SessionID string `json:"session_id"`
	Seed      int64  `json:"seed"`
	Rules     Rules  `json:"rules"`
	Seats     []Seat `json:"seats"`
}

func (e *SessionCreatedEvent) Type() EventType { return EventSessionCreated }
func (e *SessionCreatedEvent) Apply(state *GameState) error {
	if len(state.Players) > 0 {
		return Inconsistent("session %s created twice", e.SessionID)
	}
	state.SessionID = e.SessionID
	state.Seed = e.Seed
	state.Rules = e.Rules
	for i, s := range e.Seats {
		state.Players = append(state.Players, &Player{
			ID:         s.ID,
			Name:       s.Name,
			Alive:      true,
			Controller: s.Controller,
			Seat:       i,
		})
	}
	return nil
}
func (e *SessionCreatedEvent) Message() string {
	return fmt.Sprintf("Session %s created with %d players.", e.SessionID, len(e.Seats))
}

// Assignment binds a player to a role.
type Assignment struct {
	PlayerID string `json:"player"`
	Role     string `json:"role"`
	Team     Team   `json:"team"`
}

// RolesAssignedEvent records the deal and the seed that shuffled it.
type RolesAssignedEvent struct {
	Seed        int64        `json:"seed"`
	Assignments []Assignment `json:"assignments"`
}

func (e *RolesAssignedEvent) Type() EventType { return EventRolesAssigned }
func (e *RolesAssignedEvent) Apply(state *GameState) error {
	if len(e.Assignments) != len(state.Players) {
		return Inconsistent("%d assignments for %d players", len(e.Assignments), len(state.Players))
	}
	for _, a := range e.Assignments {
		p := state.Player(a.PlayerID)
		if p == nil {
			return Inconsistent("assignment for unknown player %q", a.PlayerID)
		}
		if p.Role != "" {
			return Inconsistent("player %q assigned twice", a.PlayerID)
		}
		p.Role = a.Role
		state.teams[p.ID] = a.Team
		if a.Role == RoleWitch {
			state.RoleState.Potions[p.ID] = Potions{Save: true, Poison: true}
		}
	}
	state.Seed = e.Seed
	return nil
}
func (e *RolesAssignedEvent) Message() string { return "Roles have been dealt." }

// PhaseChangedEvent moves the phase pointer. Entering night starts a new day.
type PhaseChangedEvent struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

func (e *PhaseChangedEvent) Type() EventType { return EventPhaseChanged }
func (e *PhaseChangedEvent) Apply(state *GameState) error {
	if state.Phase != e.From {
		return Inconsistent("phase change from %s while in %s", e.From, state.Phase)
	}
	if state.Phase.Terminal() {
		return Inconsistent("phase change out of terminal %s", state.Phase)
	}
	state.Phase = e.To
	switch e.To {
	case PhaseNight:
		state.Day++
		state.Night = newNightState()
	case PhaseDayDiscussion:
		state.Transcripts = append(state.Transcripts, Transcript{Day: state.Day})
	case PhaseDayVoting:
		state.Votes = nil
	}
	return nil
}
func (e *PhaseChangedEvent) Message() string {
	return fmt.Sprintf("Phase: %s -> %s", e.From, e.To)
}

// ActionTakenEvent records a role action: night actions and the hunter's shot.
// A shot without target means the hunter held fire; either way the shot is spent.
type ActionTakenEvent struct {
	Actor     string     `json:"actor"`
	Role      string     `json:"role"`
	Action    ActionKind `json:"action"`
	Target    string     `json:"target,omitempty"`
	Secondary string     `json:"secondary,omitempty"`
	Werewolf  bool       `json:"werewolf,omitempty"`
	Source    Source     `json:"source"`
	Failure   string     `json:"failure,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

func (e *ActionTakenEvent) Type() EventType         { return EventActionTaken }
func (e *ActionTakenEvent) DecisionSource() Source { return e.Source }
func (e *ActionTakenEvent) Apply(state *GameState) error {
	actor := state.Player(e.Actor)
	if actor == nil {
		return Inconsistent("action by unknown player %q", e.Actor)
	}
	if !actor.Alive && e.Action != ActionShoot {
		return Inconsistent("dead player %q acting", e.Actor)
	}
	for _, id := range []string{e.Target, e.Secondary} {
		if id != "" && state.Player(id) == nil {
			return Inconsistent("action targets unknown player %q", id)
		}
	}
	if state.Phase == PhaseNight && e.Action != ActionShoot {
		state.Night.Acted[e.Actor] = true
	}
	switch e.Action {
	case ActionKill:
		if _, seen := state.Night.WolfPicks[e.Actor]; !seen {
			state.Night.WolfOrder = append(state.Night.WolfOrder, e.Actor)
		}
		state.Night.WolfPicks[e.Actor] = e.Target
	case ActionProtect:
		state.Night.Protected[e.Target] = true
		state.RoleState.LastProtected[e.Actor] = e.Target
	case ActionReveal:
		state.RoleState.Reveals[e.Actor] = append(state.RoleState.Reveals[e.Actor], Reveal{
			Day:      state.Day,
			Target:   e.Target,
			Werewolf: e.Werewolf,
		})
	case ActionSave, ActionPoison:
		potions := state.RoleState.Potions[e.Actor]
		if e.Action == ActionSave {
			if !potions.Save {
				return Inconsistent("witch %q has no save potion", e.Actor)
			}
			potions.Save = false
			state.Night.Saved = e.Target
		} else {
			if !potions.Poison {
				return Inconsistent("witch %q has no poison potion", e.Actor)
			}
			potions.Poison = false
			state.Night.Poisoned = e.Target
		}
		state.RoleState.Potions[e.Actor] = potions
		state.Night.PotionsUsed[e.Actor]++
	case ActionPair:
		state.RoleState.Lovers = []string{e.Target, e.Secondary}
	case ActionShoot:
		if state.RoleState.HunterShots[e.Actor] {
			return Inconsistent("hunter %q shot twice", e.Actor)
		}
		state.RoleState.HunterShots[e.Actor] = true
	}
	return nil
}
func (e *ActionTakenEvent) Message() string {
	if e.Action == ActionNone {
		return fmt.Sprintf("%s (%s) does nothing.", e.Actor, e.Role)
	}
	if e.Action == ActionShoot && e.Target == "" {
		return fmt.Sprintf("%s (%s) holds fire.", e.Actor, e.Role)
	}
	msg := fmt.Sprintf("%s (%s) %s %s", e.Actor, e.Role, e.Action, e.Target)
	if e.Secondary != "" {
		msg += " and " + e.Secondary
	}
	if e.Source == SourceHeuristic {
		msg += " [heuristic: " + e.Failure + "]"
	}
	return msg
}

// KillResolvedEvent fixes the werewolf team's target for the night.
type KillResolvedEvent struct {
	Target string         `json:"target,omitempty"`
	Counts map[string]int `json:"counts"`
}

func (e *KillResolvedEvent) Type() EventType { return EventKillResolved }
func (e *KillResolvedEvent) Apply(state *GameState) error {
	if e.Target != "" && state.Player(e.Target) == nil {
		return Inconsistent("kill target %q is not seated", e.Target)
	}
	state.Night.KillTarget = e.Target
	state.Night.Resolved = true
	return nil
}
func (e *KillResolvedEvent) Message() string {
	if e.Target == "" {
		return "The werewolves chose no victim."
	}
	return fmt.Sprintf("The werewolves chose %s.", e.Target)
}

// DeathEvent marks a player dead.
type DeathEvent struct {
	Player string `json:"player"`
	Cause  string `json:"cause"`
}

func (e *DeathEvent) Type() EventType { return EventDeath }
func (e *DeathEvent) Apply(state *GameState) error {
	p := state.Player(e.Player)
	if p == nil {
		return Inconsistent("death of unknown player %q", e.Player)
	}
	if !p.Alive {
		return Inconsistent("player %q died twice", e.Player)
	}
	p.Alive = false
	state.Deaths = append(state.Deaths, Death{Player: e.Player, Cause: e.Cause, Day: state.Day, Phase: state.Phase})
	return nil
}
func (e *DeathEvent) Message() string { return fmt.Sprintf("%s died (%s).", e.Player, e.Cause) }

// MorningAnnouncedEvent publishes the night's outcome.
type MorningAnnouncedEvent struct {
	Day    int      `json:"day"`
	Deaths []string `json:"deaths"`
}

func (e *MorningAnnouncedEvent) Type() EventType              { return EventMorningAnnounce }
func (e *MorningAnnouncedEvent) Apply(state *GameState) error { return nil }
func (e *MorningAnnouncedEvent) Message() string {
	if len(e.Deaths) == 0 {
		return fmt.Sprintf("Day %d: nobody died last night.", e.Day)
	}
	return fmt.Sprintf("Day %d: %s died last night.", e.Day, strings.Join(e.Deaths, ", "))
}

// SpeechEvent appends one speech to today's transcript.
type SpeechEvent struct {
	Speaker string `json:"speaker"`
	Round   int    `json:"round"`
	Text    string `json:"text"`
	Source  Source `json:"source"`
	Failure string `json:"failure,omitempty"`
}

func (e *SpeechEvent) Type() EventType         { return EventSpeech }
func (e *SpeechEvent) DecisionSource() Source { return e.Source }
func (e *SpeechEvent) Apply(state *GameState) error {
	p := state.Player(e.Speaker)
	if p == nil || !p.Alive {
		return Inconsistent("speech by absent player %q", e.Speaker)
	}
	if len(state.Transcripts) == 0 || state.Transcripts[len(state.Transcripts)-1].Day != state.Day {
		return Inconsistent("speech outside a discussion")
	}
	t := &state.Transcripts[len(state.Transcripts)-1]
	t.Speeches = append(t.Speeches, Speech{Speaker: e.Speaker, Round: e.Round, Text: e.Text})
	return nil
}
func (e *SpeechEvent) Message() string { return fmt.Sprintf("%s: %s", e.Speaker, e.Text) }

// VoteCastEvent records one vote. An empty target is an abstention.
type VoteCastEvent struct {
	Voter   string `json:"voter"`
	Target  string `json:"target,omitempty"`
	Source  Source `json:"source"`
	Failure string `json:"failure,omitempty"`
}

func (e *VoteCastEvent) Type() EventType         { return EventVoteCast }
func (e *VoteCastEvent) DecisionSource() Source { return e.Source }
func (e *VoteCastEvent) Apply(state *GameState) error {
	if !state.CanVote(e.Voter) {
		return Inconsistent("ineligible voter %q", e.Voter)
	}
	if state.HasVoted(e.Voter) {
		return Inconsistent("player %q voted twice", e.Voter)
	}
	if e.Target != "" {
		if t := state.Player(e.Target); t == nil || !t.Alive {
			return Inconsistent("vote for absent player %q", e.Target)
		}
	}
	state.Votes = append(state.Votes, Vote{Voter: e.Voter, Target: e.Target, Source: e.Source})
	return nil
}
func (e *VoteCastEvent) Message() string {
	if e.Target == "" {
		return fmt.Sprintf("%s abstains.", e.Voter)
	}
	return fmt.Sprintf("%s votes for %s.", e.Voter, e.Target)
}

// VoteTalliedEvent records the counted vote and who, if anyone, is eliminated.
type VoteTalliedEvent struct {
	Counts     map[string]int `json:"counts"`
	Eliminated string         `json:"eliminated,omitempty"`
	Tie        bool           `json:"tie"`
}

func (e *VoteTalliedEvent) Type() EventType { return EventVoteTallied }
func (e *VoteTalliedEvent) Apply(state *GameState) error {
	state.VoteResults = append(state.VoteResults, VoteResult{
		Day:        state.Day,
		Votes:      append([]Vote(nil), state.Votes...),
		Counts:     e.Counts,
		Eliminated: e.Eliminated,
		Tie:        e.Tie,
	})
	return nil
}
func (e *VoteTalliedEvent) Message() string {
	switch {
	case e.Tie:
		return "The vote is tied."
	case e.Eliminated == "":
		return "Nobody is eliminated."
	}
	return fmt.Sprintf("%s is voted out.", e.Eliminated)
}

// IdiotRevealedEvent spares an idiot from elimination and takes away their vote.
type IdiotRevealedEvent struct {
	Player string `json:"player"`
}

func (e *IdiotRevealedEvent) Type() EventType { return EventIdiotRevealed }
func (e *IdiotRevealedEvent) Apply(state *GameState) error {
	p := state.Player(e.Player)
	if p == nil || p.Role != RoleIdiot {
		return Inconsistent("idiot reveal for %q", e.Player)
	}
	state.RoleState.RevealedIdiots[e.Player] = true
	if n := len(state.VoteResults); n > 0 && state.VoteResults[n-1].Eliminated == e.Player {
		state.VoteResults[n-1].Eliminated = ""
		state.VoteResults[n-1].Spared = e.Player
	}
	return nil
}
func (e *IdiotRevealedEvent) Message() string {
	return fmt.Sprintf("%s is revealed as the idiot and survives.", e.Player)
}

// VotesRevealedEvent publishes the vote breakdown. Votes is empty when transparency is off.
type VotesRevealedEvent struct {
	Day    int            `json:"day"`
	Votes  []Vote         `json:"votes,omitempty"`
	Counts map[string]int `json:"counts"`
}

func (e *VotesRevealedEvent) Type() EventType              { return EventVotesRevealed }
func (e *VotesRevealedEvent) Apply(state *GameState) error { return nil }
func (e *VotesRevealedEvent) Message() string {
	var parts []string
	if len(e.Votes) > 0 {
		for _, v := range e.Votes {
			target := v.Target
			if target == "" {
				target = "abstain"
			}
			parts = append(parts, v.Voter+"->"+target)
		}
	} else {
		keys := make([]string, 0, len(e.Counts))
		for k := range e.Counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s:%d", k, e.Counts[k]))
		}
	}
	return fmt.Sprintf("Day %d votes: %s", e.Day, strings.Join(parts, ", "))
}

// GameEndedEvent records the winner and ends the session.
type GameEndedEvent struct {
	Winner string `json:"winner"`
}

func (e *GameEndedEvent) Type() EventType { return EventGameEnded }
func (e *GameEndedEvent) Apply(state *GameState) error {
	if state.Phase.Terminal() {
		return Inconsistent("game ended twice")
	}
	state.Winner = e.Winner
	state.Phase = PhaseEnd
	return nil
}
func (e *GameEndedEvent) Message() string { return fmt.Sprintf("Game over: %s win.", e.Winner) }

// SessionAbortedEvent stops a session between phases.
type SessionAbortedEvent struct {
	Reason string `json:"reason"`
}

func (e *SessionAbortedEvent) Type() EventType { return EventSessionAborted }
func (e *SessionAbortedEvent) Apply(state *GameState) error {
	if state.Phase.Terminal() {
		return Inconsistent("abort of finished session")
	}
	state.AbortReason = e.Reason
	state.Phase = PhaseAborted
	return nil
}
func (e *SessionAbortedEvent) Message() string { return "Session aborted: " + e.Reason }
