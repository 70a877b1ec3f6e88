package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"bankflow/pkg/requestcontext"
)

const defaultInboxSize = 256

// Recorder accepts audit entries from the request path and persists them
// from a background worker, so the hot path never waits on the trail's
// storage. A nil *Recorder is a valid no-op (dev mode without a trail).
type Recorder struct {
	store  Store
	inbox  chan Entry
	logger *slog.Logger
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	if store == nil {
		return nil
	}
	r := &Recorder{
		store:  store,
		inbox:  make(chan Entry, defaultInboxSize),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record queues an entry, filling ID, timestamp, actor, and request ID from
// the context when absent. Non-blocking: if the inbox is full the entry is
// dropped and the drop is logged, trading completeness for request latency.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.ActorID == "" {
		entry.ActorID = requestcontext.Actor(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	select {
	case r.inbox <- entry:
	default:
		r.logger.Error("audit inbox full, entry dropped",
			"action", entry.Action,
			"customer_id", entry.CustomerID,
		)
	}
}

// Run persists queued entries until ctx is cancelled, then drains whatever
// is still queued before returning. Append failures are logged; the worker
// keeps going so one bad write does not stall the trail.
func (r *Recorder) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case entry := <-r.inbox:
			r.append(entry)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case entry := <-r.inbox:
			r.append(entry)
		default:
			return
		}
	}
}

func (r *Recorder) append(entry Entry) {
	// Fresh context: the originating request is long gone by now.
	if err := r.store.Append(context.Background(), entry); err != nil {
		r.logger.Error("failed to append audit entry",
			"action", entry.Action,
			"customer_id", entry.CustomerID,
			"error", err,
		)
	}
}
