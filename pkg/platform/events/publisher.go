package events

import (
	"context"
	"sync"

	"attache/pkg/requestcontext"
)

// Sink receives published events. Implementations must be safe for concurrent use.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher forwards events to a sink, synchronously by default or through a
// buffered channel when constructed with WithAsyncBuffer. Async mode drops
// events when the buffer is full rather than blocking the emitting operation;
// notification delivery is best-effort by contract.
type Publisher struct {
	sink   Sink
	inbox  chan Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*publisherConfig)

type publisherConfig struct {
	bufferSize int
}

// WithAsyncBuffer enables asynchronous publishing with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(cfg *publisherConfig) {
		cfg.bufferSize = size
	}
}

// NewPublisher constructs a Publisher over the given sink.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	cfg := &publisherConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Publisher{sink: sink}
	if cfg.bufferSize > 0 {
		p.inbox = make(chan Event, cfg.bufferSize)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit publishes an event. The timestamp defaults to the request-scoped time
// when unset. In async mode a full buffer drops the event silently.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if p.inbox == nil {
		return p.sink.Publish(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		// Buffer full: drop. The case record itself remains the source of truth.
	}
	return nil
}

// Close drains any buffered events and stops the background worker.
// Safe to call multiple times.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		_ = p.sink.Publish(context.Background(), event)
	}
}
