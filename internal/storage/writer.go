package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/fitslotdev/fitslot/internal/domain"
)

const saveTimeout = 10 * time.Second

// Writer serializes best-effort snapshot flushes behind the services. A
// single goroutine drains the queue, so snapshots hit the store in the
// order they were enqueued and a write never reorders relative to the
// in-memory commit that produced it. Failures are logged and swallowed:
// in-memory success is still returned to the caller, and a crash between
// commit and flush is an accepted durability gap.
type Writer struct {
	store  Store
	logger *slog.Logger
	ch     chan domain.Snapshot
}

func NewWriter(store Store, logger *slog.Logger) *Writer {
	return &Writer{
		store:  store,
		logger: logger,
		ch:     make(chan domain.Snapshot, 64),
	}
}

// Enqueue hands a snapshot to the background writer without blocking.
// When the queue is full the oldest pending snapshot is dropped; a newer
// one supersedes it anyway.
func (w *Writer) Enqueue(snap domain.Snapshot) {
	for {
		select {
		case w.ch <- snap:
			return
		default:
		}

		select {
		case <-w.ch:
		default:
		}
	}
}

// Run drains the queue until ctx is cancelled, then writes whatever is
// still pending before returning.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case snap := <-w.ch:
			w.save(snap)
		}
	}
}

func (w *Writer) drain() {
	for {
		select {
		case snap := <-w.ch:
			w.save(snap)
		default:
			return
		}
	}
}

func (w *Writer) save(snap domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := w.store.Save(ctx, snap); err != nil {
		w.logger.Error("snapshot save failed", "error", err)
	}
}
