package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
)

// HandleEvent returns a kafka.MessageHandler that replays search events
// published by KafkaSink into sinks. Undecodable messages are logged and
// acknowledged. A sink failure is returned so the offset is not committed
// for that message.
func HandleEvent(sinks ...Sink) kafka.MessageHandler {
	logger := slog.Default().With("component", "analytics-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			logger.Warn("dropping undecodable search event", "key", string(key), "error", err)
			return nil
		}
		batch := []SearchEvent{event}
		var errs []error
		for _, sink := range sinks {
			if err := sink.Write(ctx, batch); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("storing search event %q: %w", event.Query, err)
		}
		return nil
	}
}
