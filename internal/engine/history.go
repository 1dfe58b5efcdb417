package engine

import (
	"encoding/json"
	"fmt"
)

// HistoryEntry is the append-only envelope of an applied event. Seq is a
// monotonic ordinal, not wall clock, so replays are byte for byte identical.
type HistoryEntry struct {
	Seq    int64           `json:"seq"`
	Day    int             `json:"day"`
	Phase  Phase           `json:"phase"`
	Type   EventType       `json:"type"`
	Source Source          `json:"source,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// NewEntry wraps an event at the given position of the log.
func NewEntry(seq int64, day int, phase Phase, evt Event) (HistoryEntry, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	entry := HistoryEntry{
		Seq:   seq,
		Day:   day,
		Phase: phase,
		Type:  evt.Type(),
		Data:  data,
	}
	if s, ok := evt.(Sourced); ok {
		entry.Source = s.DecisionSource()
	}
	return entry, nil
}

// Event reconstructs the concrete event from its type discriminator and JSON data.
func (h HistoryEntry) Event() (Event, error) {
	var evt Event

	switch h.Type {
	case EventSessionCreated:
		evt = &SessionCreatedEvent{}
	case EventRolesAssigned:
		evt = &RolesAssignedEvent{}
	case EventPhaseChanged:
		evt = &PhaseChangedEvent{}
	case EventActionTaken:
		evt = &ActionTakenEvent{}
	case EventKillResolved:
		evt = &KillResolvedEvent{}
	case EventDeath:
		evt = &DeathEvent{}
	case EventMorningAnnounce:
		evt = &MorningAnnouncedEvent{}
	case EventSpeech:
		evt = &SpeechEvent{}
	case EventVoteCast:
		evt = &VoteCastEvent{}
	case EventVoteTallied:
		evt = &VoteTalliedEvent{}
	case EventIdiotRevealed:
		evt = &IdiotRevealedEvent{}
	case EventVotesRevealed:
		evt = &VotesRevealedEvent{}
	case EventGameEnded:
		evt = &GameEndedEvent{}
	case EventSessionAborted:
		evt = &SessionAbortedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", h.Type)
	}

	if err := json.Unmarshal(h.Data, evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", h.Type, err)
	}
	return evt, nil
}
