// Package eventbus delivers transfer lifecycle events to subscribers on a
// bounded pool of goroutines. Delivery can be suspended; events published
// while suspended are held in order and released on resume.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers bounds concurrent handler invocations when Config.Workers is unset.
const DefaultWorkers = 32

// Config configures a Bus.
type Config struct {
	Workers   int
	Suspended bool
}

// Bus is an in-process ports.EventBus.
type Bus struct {
	log     zerolog.Logger
	workers int

	mu        sync.Mutex
	handlers  map[domain.EventKind][]ports.EventHandler
	mailbox   []domain.TransferEvent
	pending   []domain.TransferEvent
	suspended bool
	closed    bool

	// events in the mailbox plus handler invocations not yet finished
	inflight atomic.Int64

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a Bus. Call Start before expecting deliveries.
func New(cfg Config, log zerolog.Logger) *Bus {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Bus{
		log:       log,
		workers:   workers,
		handlers:  make(map[domain.EventKind][]ports.EventHandler),
		suspended: cfg.Suspended,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Subscribe registers handler for events of kind.
func (b *Bus) Subscribe(kind domain.EventKind, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish enqueues evt and returns immediately. Events published after Close
// has finished draining are logged and discarded.
func (b *Bus) Publish(evt domain.TransferEvent) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.log.Warn().Str("event", string(evt.Kind)).Str("transfer_id", evt.Transfer.ID.String()).Msg("event published after bus closed, dropped")
		return
	}
	if b.suspended {
		b.pending = append(b.pending, evt)
		b.mu.Unlock()
		b.log.Debug().Str("event", string(evt.Kind)).Str("transfer_id", evt.Transfer.ID.String()).Msg("event queued while suspended")
		return
	}
	b.enqueueLocked(evt)
	b.mu.Unlock()
	b.signal()
}

func (b *Bus) enqueueLocked(evt domain.TransferEvent) {
	b.inflight.Add(1)
	b.mailbox = append(b.mailbox, evt)
}

func (b *Bus) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// SetSuspended pauses or resumes delivery. On resume the held events move to
// the mailbox oldest first; if delivery is suspended again midway the rest
// stay held.
func (b *Bus) SetSuspended(suspended bool) {
	b.mu.Lock()
	b.suspended = suspended
	b.mu.Unlock()

	b.log.Info().Bool("suspended", suspended).Msg("event delivery toggled")
	if suspended {
		return
	}

	released := 0
	for {
		b.mu.Lock()
		if b.suspended || b.closed || len(b.pending) == 0 {
			b.mu.Unlock()
			break
		}
		evt := b.pending[0]
		b.pending[0] = domain.TransferEvent{}
		b.pending = b.pending[1:]
		b.enqueueLocked(evt)
		b.mu.Unlock()
		released++
	}

	if released > 0 {
		b.log.Debug().Int("released", released).Msg("held events released")
		b.signal()
	}
}

// Suspended reports whether delivery is paused.
func (b *Bus) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended
}

// Pending is the number of events held back by suspension.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Idle reports whether every released event has been fully handled.
// Held events do not count.
func (b *Bus) Idle() bool {
	return b.inflight.Load() == 0
}

// Start launches the dispatcher. Subsequent calls are no-ops.
func (b *Bus) Start() {
	b.startOnce.Do(func() {
		go b.run()
	})
}

// Close stops the dispatcher once the mailbox is empty and no handler is
// running, including events those handlers publish on the way out. Events
// still held by suspension are dropped.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		// never started: nothing to wait for
		b.startOnce.Do(func() { close(b.stopped) })
		<-b.stopped

		b.mu.Lock()
		b.closed = true
		held, undelivered := len(b.pending), len(b.mailbox)
		b.mu.Unlock()

		if held > 0 || undelivered > 0 {
			b.log.Warn().Int("held", held).Int("undelivered", undelivered).Msg("event bus closed with events left, dropped")
		}
	})
}

func (b *Bus) run() {
	defer close(b.stopped)

	p := pool.New().WithMaxGoroutines(b.workers)
	for {
		select {
		case <-b.wake:
			b.dispatch(p, b.take())
		case <-b.done:
			b.drain(p)
			return
		}
	}
}

// drain dispatches until a round of handlers finishes without publishing
// anything new. A conc pool is not reusable after Wait, so each round gets
// a fresh one.
func (b *Bus) drain(p *pool.Pool) {
	batch := b.take()
	for {
		b.dispatch(p, batch)
		p.Wait()

		batch = b.take()
		if len(batch) == 0 {
			return
		}
		p = pool.New().WithMaxGoroutines(b.workers)
	}
}

func (b *Bus) take() []domain.TransferEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := b.mailbox
	b.mailbox = nil
	return batch
}

func (b *Bus) dispatch(p *pool.Pool, batch []domain.TransferEvent) {
	for _, evt := range batch {
		b.mu.Lock()
		handlers := append([]ports.EventHandler(nil), b.handlers[evt.Kind]...)
		b.mu.Unlock()

		// the mailbox slot becomes len(handlers) tasks
		b.inflight.Add(int64(len(handlers)) - 1)

		if len(handlers) == 0 {
			b.log.Debug().Str("event", string(evt.Kind)).Msg("no subscribers")
			continue
		}
		for _, h := range handlers {
			evt, h := evt, h
			p.Go(func() {
				defer b.inflight.Add(-1)
				b.invoke(h, evt)
			})
		}
	}
}

func (b *Bus) invoke(h ports.EventHandler, evt domain.TransferEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", string(evt.Kind)).
				Str("transfer_id", evt.Transfer.ID.String()).
				Str("panic", fmt.Sprint(r)).
				Msg("event handler panicked")
		}
	}()
	h(context.Background(), evt)
}
