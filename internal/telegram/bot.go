package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/suderio/werewolf-arena/internal/engine"
)

const inboxSize = 8

// Bot long polls one group chat and routes messages from registered users to
// the seat of the player they control.
type Bot struct {
	client       *Client
	chatID       int64
	userMap      map[int64]string // telegram_user_id -> player id
	lastUpdateID int
	pollTimeout  int
	retryDelay   time.Duration
	logger       *log.Logger

	mu      sync.Mutex
	inboxes map[string]chan string
}

type BotOption func(*Bot)

func WithLogger(logger *log.Logger) BotOption {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPolling sets the long poll timeout in seconds and the delay after a failed poll.
func WithPolling(timeout int, retry time.Duration) BotOption {
	return func(b *Bot) {
		b.pollTimeout = timeout
		b.retryDelay = retry
	}
}

func NewBot(client *Client, chatID int64, userMap map[int64]string, opts ...BotOption) *Bot {
	b := &Bot{
		client:      client,
		chatID:      chatID,
		userMap:     userMap,
		pollTimeout: 25,
		retryDelay:  5 * time.Second,
		logger:      log.New(io.Discard, "", 0),
		inboxes:     make(map[string]chan string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start runs the long polling loop until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Printf("telegram: polling chat %d", b.chatID)
	for {
		updates, err := b.client.GetUpdates(ctx, b.lastUpdateID+1, b.pollTimeout)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			b.logger.Printf("telegram: fetching updates: %v", err)
			select {
			case <-time.After(b.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID > b.lastUpdateID {
				b.lastUpdateID = update.UpdateID
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.chatID {
		return
	}
	text := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/"))
	if text == "" {
		return
	}

	playerID, ok := b.userMap[msg.From.ID]
	if !ok {
		_ = b.client.SendMessage(ctx, b.chatID, fmt.Sprintf("User %s (%d) has no seat in this game.", msg.From.FirstName, msg.From.ID))
		return
	}

	select {
	case b.inbox(playerID) <- text:
	default:
		b.logger.Printf("telegram: inbox of %s full, dropped message", playerID)
	}
}

func (b *Bot) inbox(playerID string) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.inboxes[playerID]
	if !ok {
		ch = make(chan string, inboxSize)
		b.inboxes[playerID] = ch
	}
	return ch
}

// Announce posts a public message to the game chat.
func (b *Bot) Announce(ctx context.Context, text string) error {
	return b.client.SendMessage(ctx, b.chatID, text)
}

// Seat returns the agent for a player. The player must be in the user map.
func (b *Bot) Seat(playerID string) *Seat {
	return &Seat{bot: b, playerID: playerID}
}

// Seat is a human player answering through the game chat.
type Seat struct {
	bot      *Bot
	playerID string
}

// Decide posts the request and waits for the player's next message.
// Messages sent before the request are discarded.
func (s *Seat) Decide(ctx context.Context, req engine.ActionRequest) (string, error) {
	inbox := s.bot.inbox(s.playerID)
	for drained := false; !drained; {
		select {
		case <-inbox:
		default:
			drained = true
		}
	}

	if err := s.bot.client.SendMessage(ctx, s.bot.chatID, Render(req)); err != nil {
		return "", fmt.Errorf("%w: telegram: %v", engine.ErrProvider, err)
	}

	select {
	case text := <-inbox:
		return text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", engine.ErrTimeout, ctx.Err())
	}
}

// Render formats a request as a chat message.
func Render(req engine.ActionRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, day %d %s: your move is %s.\n", req.ActorID, req.Day, req.Phase, req.ExpectedAction)
	if req.Context != nil {
		for _, line := range req.Context.Summary {
			sb.WriteString(line + "\n")
		}
	}
	if len(req.AvailableTargets) > 0 {
		sb.WriteString("Targets: " + strings.Join(req.AvailableTargets, ", ") + "\n")
	}
	switch req.ExpectedAction {
	case engine.ActionSpeak:
		sb.WriteString(`Reply: say "your speech"`)
	case engine.ActionPotion:
		sb.WriteString("Reply: save <player>, poison <player> or pass")
	case engine.ActionPair:
		sb.WriteString("Reply: pair <player> <player>")
	default:
		fmt.Fprintf(&sb, "Reply: %s <player> or pass", req.ExpectedAction)
	}
	return sb.String()
}
