package bot

import (
	"context"
	"time"

	"github.com/climatenet/sensor-bot/internal/metrics"
)

// Event is one incoming chat message.
type Event struct {
	ChatID int64
	UserID int64
	Text   string
}

// HandlerFunc handles a single chat event.
type HandlerFunc func(ctx context.Context, ev Event) error

// WithMetrics wraps a handler so that every invocation records its outcome
// and latency to the sink, preserving the handler's error.
func WithMetrics(sink metrics.Sink, command string, next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev Event) error {
		start := time.Now()
		err := next(ctx, ev)
		sink.Record(ev.UserID, command, err == nil, time.Since(start))
		return err
	}
}
