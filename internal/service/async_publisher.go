package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

var (
	// ErrPublishQueueFull is returned when the hand-off buffer is full and
	// the entry was dropped.
	ErrPublishQueueFull = errors.New("activity publish queue full")
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("activity publisher closed")
)

// Publisher is the sink an AsyncPublisher forwards to.
type Publisher interface {
	PublishActivity(ctx context.Context, entry model.ActivityEntry) error
}

// AsyncPublisher hands entries to a background goroutine so callers never
// wait on the broker.  Entries are forwarded in order, one at a time.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.ActivityEntry
	done   chan struct{}
}

// NewAsyncPublisher starts the forwarding goroutine.  buffer bounds the
// number of pending entries; each forward gets its own timeout.
func NewAsyncPublisher(next Publisher, buffer int, timeout time.Duration, logger *zap.Logger) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan model.ActivityEntry, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for entry := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.PublishActivity(ctx, entry)
		cancel()
		if err != nil {
			p.logger.Warn("activity publish failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}
}

// PublishActivity enqueues entry without blocking.
func (p *AsyncPublisher) PublishActivity(_ context.Context, entry model.ActivityEntry) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- entry:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Close stops accepting entries and waits until the pending ones are
// forwarded or ctx is done.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
