package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Sink receives flushed batches of search events.
type Sink interface {
	Write(ctx context.Context, events []SearchEvent) error
}

// Collector buffers search events and flushes them to every sink when the
// buffer reaches batchSize or every flushInterval, whichever comes first.
type Collector struct {
	sinks         []Sink
	mu            sync.Mutex
	buffer        []SearchEvent
	batchSize     int
	flushInterval time.Duration
	flushMu       sync.Mutex
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(batchSize int, flushInterval time.Duration, sinks ...Sink) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		sinks:         sinks,
		buffer:        make([]SearchEvent, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the background flush loop. The loop exits, after a final
// flush, once ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.Flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
		"sinks", len(c.sinks),
	)
}

// Track buffers event. A full buffer triggers an asynchronous flush.
func (c *Collector) Track(event SearchEvent) {
	c.mu.Lock()
	c.buffer = append(c.buffer, event)
	shouldFlush := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if shouldFlush {
		go c.Flush(context.Background())
	}
}

// Close waits for the flush loop started by Start to finish.
func (c *Collector) Close() {
	<-c.done
}

func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Flush writes the buffered events to every sink. Events are dropped only
// when every sink failed; a partial failure is logged.
func (c *Collector) Flush(ctx context.Context) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]SearchEvent, 0, c.batchSize)
	c.mu.Unlock()

	var errs []error
	for _, sink := range c.sinks {
		if err := sink.Write(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		c.logger.Debug("batch flushed", "events", len(batch))
		return
	}
	c.logger.Error("analytics flush failed",
		"batch_size", len(batch),
		"failed_sinks", len(errs),
		"error", errors.Join(errs...),
	)
	if len(errs) < len(c.sinks) {
		return
	}

	c.mu.Lock()
	c.buffer = append(batch, c.buffer...)
	if limit := c.batchSize * 3; len(c.buffer) > limit {
		dropped := len(c.buffer) - limit
		c.buffer = c.buffer[:limit]
		c.logger.Warn("buffer overflow, events dropped", "dropped", dropped)
	}
	c.mu.Unlock()
}
