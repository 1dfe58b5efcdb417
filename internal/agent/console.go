package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/suderio/werewolf-arena/internal/engine"
)

// Console is a human seat on a terminal. Replies use the plain action
// language ("vote Alice", "say \"I trust Bob\"") or JSON.
type Console struct {
	out   io.Writer
	lines chan consoleLine
	once  sync.Once
	in    io.Reader
	// stale is set after a timed out prompt: lines typed before the next
	// prompt answered the old one and are dropped.
	stale bool
}

type consoleLine struct {
	text string
	at   time.Time
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, lines: make(chan consoleLine)}
}

func (c *Console) start() {
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			c.lines <- consoleLine{text: scanner.Text(), at: time.Now()}
		}
		close(c.lines)
	}()
}

func (c *Console) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	c.once.Do(c.start)
	prompted := time.Now()

	fmt.Fprintf(c.out, "\n[%s day %d] %s, your move: %s\n", req.Phase, req.Day, req.ActorID, req.ExpectedAction)
	if req.Context != nil {
		for _, line := range req.Context.Summary {
			fmt.Fprintf(c.out, "  %s\n", line)
		}
	}
	if len(req.AvailableTargets) > 0 {
		fmt.Fprintf(c.out, "  targets: %s\n", strings.Join(req.AvailableTargets, ", "))
	}
	fmt.Fprint(c.out, "> ")

	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return "", fmt.Errorf("%w: console closed", engine.ErrProvider)
			}
			if c.stale && line.at.Before(prompted) {
				continue
			}
			c.stale = false
			return line.text, nil
		case <-ctx.Done():
			c.stale = true
			return "", fmt.Errorf("%w: %v", engine.ErrTimeout, ctx.Err())
		}
	}
}
