package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// Engine materializes notifications for published events on background workers
type Engine struct {
	notifications repositories.NotificationRepository
	eventLog      repositories.EventLogRepository
	logger        *slog.Logger

	workers   int
	chunkSize int

	queue    chan job
	mu       sync.RWMutex
	closed   bool
	started  bool
	workerWG sync.WaitGroup
	extraWG  sync.WaitGroup
}

type job struct {
	ctx context.Context
	evt Event
}

// Option configures an Engine
type Option func(*Engine)

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.queue = make(chan job, n)
		}
	}
}

// WithChunkSize bounds how many rows go into a single insert
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEventLog records every handled event. Log failures never fail the event.
func WithEventLog(log repositories.EventLogRepository) Option {
	return func(e *Engine) { e.eventLog = log }
}

// NewEngine creates an Engine. Call Start before publishing to get asynchronous delivery.
func NewEngine(notifications repositories.NotificationRepository, opts ...Option) *Engine {
	e := &Engine{
		notifications: notifications,
		logger:        slog.Default(),
		workers:       4,
		chunkSize:     repositories.DefaultBatchSize,
		queue:         make(chan job, 1024),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the worker goroutines
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.work()
	}
}

func (e *Engine) work() {
	defer e.workerWG.Done()
	for j := range e.queue {
		e.run(j.ctx, j.evt)
	}
}

// Publish hands the event to the workers without blocking the caller.
// The caller's cancellation does not reach the fan-out.
func (e *Engine) Publish(ctx context.Context, evt Event) {
	ctx = context.WithoutCancel(ctx)

	e.mu.RLock()
	if e.closed || !e.started {
		e.mu.RUnlock()
		e.run(ctx, evt)
		return
	}
	select {
	case e.queue <- job{ctx: ctx, evt: evt}:
		e.mu.RUnlock()
		return
	default:
	}
	// Queue full: handle on a detached goroutine so the triggering request returns.
	e.extraWG.Add(1)
	e.mu.RUnlock()
	go func() {
		defer e.extraWG.Done()
		e.run(ctx, evt)
	}()
}

// Close stops accepting queued work, drains the queue and waits for in-flight events
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.workerWG.Wait()
	e.extraWG.Wait()
}

func (e *Engine) run(ctx context.Context, evt Event) {
	n, err := e.Handle(ctx, evt)
	if err != nil {
		e.logger.Error("fan-out failed",
			slog.String("event_id", evt.ID.String()),
			slog.String("type", string(evt.Type)),
			slog.Any("error", err))
		return
	}
	e.logger.Debug("fan-out done",
		slog.String("event_id", evt.ID.String()),
		slog.String("type", string(evt.Type)),
		slog.Int("written", n))
}

// Handle writes one notification per distinct recipient other than the actor
// and returns the number of rows written.
// An event whose post was deleted before it was handled is dropped without error.
func (e *Engine) Handle(ctx context.Context, evt Event) (int, error) {
	recipients := evt.recipients()
	written := 0
	var err error
	if len(recipients) > 0 {
		written, err = e.write(ctx, evt, recipients)
	}
	dropped := errors.Is(err, repositories.ErrMissingReference)
	e.record(ctx, evt, len(recipients), written, dropped, err)
	if dropped {
		e.logger.Info("fan-out dropped, post no longer exists",
			slog.String("event_id", evt.ID.String()),
			slog.String("type", string(evt.Type)))
		return written, nil
	}
	return written, err
}

func (e *Engine) write(ctx context.Context, evt Event, recipients []uint) (int, error) {
	msg := evt.Message()
	if msg == "" {
		return 0, fmt.Errorf("unknown event type %q", evt.Type)
	}
	actorID := evt.Actor.ID
	written := 0
	for start := 0; start < len(recipients); start += e.chunkSize {
		end := min(start+e.chunkSize, len(recipients))
		rows := make([]models.Notification, 0, end-start)
		for _, uid := range recipients[start:end] {
			rows = append(rows, models.Notification{
				UserID:        uid,
				Message:       msg,
				Type:          evt.Type,
				RelatedPostID: evt.PostID,
				RelatedUserID: &actorID,
				CreatedAt:     evt.OccurredAt,
			})
		}
		if err := e.notifications.CreateNotifications(ctx, rows, e.chunkSize); err != nil {
			return written, fmt.Errorf("insert notifications %d..%d: %w", start, end, err)
		}
		written += len(rows)
	}
	return written, nil
}

func (e *Engine) record(ctx context.Context, evt Event, recipients, written int, dropped bool, handleErr error) {
	if e.eventLog == nil {
		return
	}
	entry := repositories.EventLogEntry{
		EventID:    evt.ID.String(),
		Type:       string(evt.Type),
		ActorID:    evt.Actor.ID,
		PostID:     evt.PostID,
		Recipients: recipients,
		Written:    written,
		Dropped:    dropped,
		OccurredAt: evt.OccurredAt,
		HandledAt:  time.Now().UTC(),
	}
	if handleErr != nil {
		entry.Error = handleErr.Error()
	}
	if err := e.eventLog.AppendEvent(ctx, entry); err != nil {
		e.logger.Warn("event log append failed",
			slog.String("event_id", entry.EventID),
			slog.Any("error", err))
	}
}
