package aisleauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples flow execution from sink latency: events are
// queued on a buffered channel and delivered by a single worker goroutine.
// Close drains whatever is queued before returning.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	stop       chan struct{}
	flushed    chan struct{}
	dropIfFull bool
	dropped    atomic.Uint64
	stopping   atomic.Bool
	stopOnce   sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, buffer),
		stop:       make(chan struct{}),
		flushed:    make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}
	go d.deliver()
	return d
}

func (d *auditDispatcher) deliver() {
	defer close(d.flushed)

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			// Drain the remainder, then exit.
			for {
				select {
				case event := <-d.queue:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues event for delivery. With DropIfFull set a full queue increments
// the drop counter instead of blocking; otherwise Emit blocks until the queue
// accepts the event, ctx is done, or the dispatcher closes.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stopping.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops intake and waits for the worker to flush the queue. Safe to
// call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopping.Store(true)
		close(d.stop)
		<-d.flushed
	})
}

// Dropped reports how many events were discarded on a full queue.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
