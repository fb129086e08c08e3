package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

// Channel names accepted by New
const (
	ChannelNone     = "none"
	ChannelStdout   = "stdout"
	ChannelTwitter  = "twitter"
	ChannelTelegram = "telegram"
)

// DefaultChanges are the change types announced when none are configured
var DefaultChanges = []string{event.ChangeCancelled, event.ChangeReinstated}

// Notifier defines the interface for posting change notifications
type Notifier interface {
	// Notify posts notifications for the given changes
	Notify(ctx context.Context, changes []*event.EventChange) error
}

// Options configures New
type Options struct {
	Channel string
	// TelegramChatID is used when TELEGRAM_CHAT_ID is not set
	TelegramChatID string
	// Stdout receives messages for the stdout channel
	Stdout io.Writer
}

// New creates the notifier for a channel. It returns nil for ChannelNone.
// Credentials are read from the environment.
func New(opts Options) (Notifier, error) {
	switch strings.ToLower(opts.Channel) {
	case "", ChannelNone:
		return nil, nil
	case ChannelStdout:
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		return NewWriterNotifier(out), nil
	case ChannelTwitter:
		n, err := NewTwitterNotifier()
		if err != nil {
			return nil, err
		}
		return n, nil
	case ChannelTelegram:
		chatID := os.Getenv("TELEGRAM_CHAT_ID")
		if chatID == "" {
			chatID = opts.TelegramChatID
		}
		n, err := NewTelegramNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), chatID)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notify channel: %s (must be 'none', 'stdout', 'twitter' or 'telegram')", opts.Channel)
	}
}

// Select returns the changes whose type is listed in types. Empty types selects all.
func Select(changes []*event.EventChange, types []string) []*event.EventChange {
	if len(types) == 0 {
		return changes
	}

	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}

	var selected []*event.EventChange
	for _, c := range changes {
		if wanted[c.ChangeType] {
			selected = append(selected, c)
		}
	}
	return selected
}
