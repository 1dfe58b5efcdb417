package decision

import (
	"fmt"
	"strings"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Compress shrinks the payload until it fits budget tokens. Full transcripts
// of past days are replaced by per-speaker one-liners, oldest day first; then
// the oldest summary lines are dropped. Today's transcript and role info are
// never touched. It returns the number of reductions applied.
func Compress(p *engine.Payload, budget int, today int, roster []*engine.Player) int {
	steps := 0
	for PayloadTokens(p) > budget {
		if i := oldestFullTranscript(p.Transcripts, today); i >= 0 {
			p.Transcripts[i] = summarizeTranscript(p.Transcripts[i], roster)
			steps++
			continue
		}
		if len(p.Summary) > 0 {
			p.Summary = p.Summary[1:]
			steps++
			continue
		}
		break
	}
	return steps
}

func oldestFullTranscript(ts []engine.Transcript, today int) int {
	for i, t := range ts {
		if t.Day != today && len(t.Speeches) > 0 {
			return i
		}
	}
	return -1
}

// summarizeTranscript keeps one line per speaker, in order of first speech:
// "speaker -> suspect", where suspect is the player the speaker mentioned most.
func summarizeTranscript(t engine.Transcript, roster []*engine.Player) engine.Transcript {
	var speakers []string
	texts := make(map[string][]string)
	for _, s := range t.Speeches {
		if _, seen := texts[s.Speaker]; !seen {
			speakers = append(speakers, s.Speaker)
		}
		texts[s.Speaker] = append(texts[s.Speaker], s.Text)
	}

	out := engine.Transcript{Day: t.Day}
	for _, speaker := range speakers {
		suspect := mostMentioned(strings.Join(texts[speaker], " "), speaker, roster)
		if suspect == "" {
			suspect = "?"
		}
		out.Summary = append(out.Summary, fmt.Sprintf("%s -> %s", speaker, suspect))
	}
	return out
}

// mostMentioned returns the player other than self mentioned most often in
// text, ties going to the lower seat.
func mostMentioned(text, self string, roster []*engine.Player) string {
	best, bestCount := "", 0
	for _, p := range roster {
		if p.ID == self {
			continue
		}
		if n := mentions(text, p); n > bestCount {
			best, bestCount = p.ID, n
		}
	}
	return best
}

func mentions(text string, p *engine.Player) int {
	low := strings.ToLower(text)
	n := countWord(low, strings.ToLower(p.ID))
	if p.Name != "" && !strings.EqualFold(p.Name, p.ID) {
		n += countWord(low, strings.ToLower(p.Name))
	}
	return n
}

// countWord counts occurrences of word not glued to other letters or digits.
func countWord(text, word string) int {
	if word == "" {
		return 0
	}
	n := 0
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return n
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			n++
		}
		i = end
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z'
}
