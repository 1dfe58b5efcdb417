package engine

import "fmt"

// Projector computes GameState from a history.
type Projector struct{}

// NewProjector creates a standard projector.
func NewProjector() *Projector {
	return &Projector{}
}

// Build folds every entry into a fresh state. Entries must be numbered 1..n
// without gaps.
func (p *Projector) Build(entries []HistoryEntry) (*GameState, error) {
	state := NewGameState()

	for i, entry := range entries {
		if entry.Seq != int64(i+1) {
			return nil, Inconsistent("history entry %d has sequence %d", i+1, entry.Seq)
		}
		evt, err := entry.Event()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternalConsistency, err)
		}
		if err := Apply(state, entry.Seq, evt); err != nil {
			return nil, err
		}
	}

	return state, nil
}

// Apply applies one event and advances the state's sequence number.
func Apply(state *GameState, seq int64, evt Event) error {
	if err := evt.Apply(state); err != nil {
		return err
	}
	state.Seq = seq
	return nil
}
