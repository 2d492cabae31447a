// Package worker provides an asynchronous worker pool for persisting
// completed conversation turns using the provided storage.Driver and
// publishing turn events through the provided eventstream.Publisher.
//
// The pool decouples persistence from the orchestrator's streaming hot path
// so transcript updates and speech playback are never blocked on storage.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/eventstream"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Turn is the completed exchange to persist.
	Turn *storage.Turn

	// StartedAt is when the turn's stream was opened.
	StartedAt time.Time

	// Suppressed reports that the assistant's reply was fully filtered out.
	Suppressed bool
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver storage.Driver

	// Publisher is the optional event stream for turn-completed events.
	Publisher eventstream.Publisher

	// Project tags emitted events with the deployment name.
	Project string

	// BotID and UserID identify the event source.
	BotID  string
	UserID string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes persistence jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Turn == nil {
		p.logger.Error("job not queued, nil turn")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("turn_id", job.Turn.ID),
			zap.String("conversation_id", job.Turn.ConversationID),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("turn_id", job.Turn.ID),
			zap.String("conversation_id", job.Turn.ConversationID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the orchestrator has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("persistence worker stopped", zap.Uint("worker_id", id))
}

// processJob persists the turn and, if an event stream is configured,
// publishes the matching turn-completed event.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	if err := p.config.Driver.Append(ctx, job.Turn); err != nil {
		p.logger.Error("async turn persistence failed",
			zap.String("turn_id", job.Turn.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("turn persisted",
		zap.String("turn_id", job.Turn.ID),
		zap.String("conversation_id", job.Turn.ConversationID),
	)

	if p.config.Publisher == nil {
		return
	}

	event := p.buildEvent(job)
	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("failed to publish turn event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("turn event published", zap.String("event_id", event.EventID))
}

func (p *Pool) buildEvent(job Job) *eventstream.TurnCompletedEvent {
	completed := job.Turn.CreatedAt
	started := job.StartedAt
	if started.IsZero() {
		started = completed
	}

	return &eventstream.TurnCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Project: p.config.Project,
			BotID:   p.config.BotID,
			UserID:  p.config.UserID,
		},
		TurnMeta: eventstream.TurnMeta{
			StartedAt:   started,
			CompletedAt: completed,
			DurationMs:  completed.Sub(started).Milliseconds(),
			Suppressed:  job.Suppressed,
		},
		Turn: *job.Turn,
	}
}
