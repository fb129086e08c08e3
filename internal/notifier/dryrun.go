package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

// WriterNotifier prints what would be posted without actually posting
type WriterNotifier struct {
	w io.Writer
}

// NewWriterNotifier creates a notifier that writes messages to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify prints the messages that would be posted
func (n *WriterNotifier) Notify(ctx context.Context, changes []*event.EventChange) error {
	messages := FormatMessages(changes, TweetLimit)
	for i, msg := range messages {
		fmt.Fprintf(n.w, "--- Message %d/%d ---\n", i+1, len(messages))
		fmt.Fprintln(n.w, msg)
		fmt.Fprintln(n.w)
	}
	return nil
}
