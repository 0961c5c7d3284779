// Package pipeline runs the asynchronous AI tasks: summary generation,
// review moderation and recommendation computation. Tasks run off the
// synchronous request path on a pool of workers, each kind with its own
// bounded retry policy, and a task failure never rolls back the business
// operation that triggered it.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"booklend/ai"
	"booklend/cache"
	"booklend/log"
	"booklend/model"
	"booklend/store"
)

const (
	summaryTTL        = 7 * 24 * time.Hour
	recommendationTTL = time.Hour
	historyLimit      = 10
	popularLimit      = 5
)

type policy struct {
	attempts int
	backoff  time.Duration
}

func defaultPolicies() map[model.TaskKind]policy {
	return map[model.TaskKind]policy{
		model.TaskSummary:        {attempts: 3, backoff: 10 * time.Second},
		model.TaskModeration:     {attempts: 2, backoff: 5 * time.Second},
		model.TaskRecommendation: {attempts: 3, backoff: 15 * time.Second},
	}
}

// MonitorFunc receives task failures that exhausted their retries and have no
// silent-failure policy (currently only recommendation tasks).
type MonitorFunc func(kind model.TaskKind, entityID int, err error)

type Pipeline struct {
	store      *store.Store
	cache      cache.Cache
	capability ai.Capability
	monitor    MonitorFunc
	policies   map[model.TaskKind]policy

	queue    chan model.Task
	inflight sync.Map // "kind:entityID" -> struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

type Option func(*Pipeline)

// WithMonitor replaces the default monitoring sink (an error log entry).
func WithMonitor(fn MonitorFunc) Option {
	return func(p *Pipeline) {
		p.monitor = fn
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(p *Pipeline) {
		p.queue = make(chan model.Task, n)
	}
}

func New(s *store.Store, c cache.Cache, capability ai.Capability, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      s,
		cache:      c,
		capability: capability,
		policies:   defaultPolicies(),
		queue:      make(chan model.Task, 256),
		done:       make(chan struct{}),
	}
	p.monitor = func(kind model.TaskKind, entityID int, err error) {
		log.Error("Task failed permanently",
			zap.String("kind", string(kind)),
			zap.Int("entity_id", entityID),
			zap.Error(err))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches size workers. Handlers inherit ctx, cancelling it aborts
// in-flight AI calls but does not stop the workers, use Stop for that.
func (p *Pipeline) Start(ctx context.Context, size int) {
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	log.Info("Pipeline started", zap.Int("workers", size))
}

// Stop terminates the workers. Queued tasks are dropped, redelivery on the
// next trigger is safe because every handler is idempotent.
func (p *Pipeline) Stop() {
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

// Enqueue submits a task without blocking. It reports false when the same
// (kind, entity) is already queued or running, or when the queue is full; in
// both cases the caller's business operation has already succeeded and a
// later trigger will recompute.
func (p *Pipeline) Enqueue(kind model.TaskKind, entityID int) bool {
	key := taskKey(kind, entityID)
	if _, loaded := p.inflight.LoadOrStore(key, struct{}{}); loaded {
		log.Debug("Task already in flight",
			zap.String("kind", string(kind)),
			zap.Int("entity_id", entityID))
		return false
	}

	task := model.Task{
		ID:       uuid.NewString(),
		Kind:     kind,
		EntityID: entityID,
	}
	select {
	case p.queue <- task:
		return true
	default:
		p.inflight.Delete(key)
		log.Warn("Task queue full, dropping task",
			zap.String("kind", string(kind)),
			zap.Int("entity_id", entityID))
		return false
	}
}

func (p *Pipeline) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	log.Debug("Pipeline worker running", zap.Int("worker_id", id))

	for {
		select {
		case <-p.done:
			return
		case task := <-p.queue:
			p.run(ctx, task)
		}
	}
}

func (p *Pipeline) run(ctx context.Context, task model.Task) {
	err := p.process(ctx, task)
	if err == nil {
		p.inflight.Delete(taskKey(task.Kind, task.EntityID))
		return
	}

	pol := p.policies[task.Kind]
	log.Error("Task attempt failed",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.Int("entity_id", task.EntityID),
		zap.Int("attempt", task.Attempt+1),
		zap.Int("max_attempts", pol.attempts),
		zap.Error(err))

	if task.Attempt+1 < pol.attempts {
		task.Attempt++
		p.requeue(task, pol.backoff)
		return
	}

	p.inflight.Delete(taskKey(task.Kind, task.EntityID))
	p.exhaust(task, err)
}

// requeue re-submits the task after the kind's fixed backoff.
func (p *Pipeline) requeue(task model.Task, backoff time.Duration) {
	time.AfterFunc(backoff, func() {
		select {
		case p.queue <- task:
		case <-p.done:
			p.inflight.Delete(taskKey(task.Kind, task.EntityID))
		}
	})
}

// exhaust applies the kind-specific policy after the final failed attempt.
func (p *Pipeline) exhaust(task model.Task, err error) {
	switch task.Kind {
	case model.TaskSummary:
		// Cosmetic: the book stays usable without a summary.
		log.Error("Giving up on summary generation",
			zap.Int("book_id", task.EntityID),
			zap.Error(err))
	case model.TaskModeration:
		// Fail open: a broken moderator must never flag a review.
		log.Warn("Moderation abandoned, review stays unflagged",
			zap.Int("review_id", task.EntityID),
			zap.Error(err))
	case model.TaskRecommendation:
		p.monitor(task.Kind, task.EntityID, err)
	}
}

func (p *Pipeline) process(ctx context.Context, task model.Task) error {
	switch task.Kind {
	case model.TaskSummary:
		return p.processSummary(ctx, task.EntityID)
	case model.TaskModeration:
		return p.processModeration(ctx, task.EntityID)
	case model.TaskRecommendation:
		return p.processRecommendation(ctx, task.EntityID)
	default:
		log.Error("Unknown task kind", zap.String("kind", string(task.Kind)))
		return nil
	}
}

func taskKey(kind model.TaskKind, entityID int) string {
	return fmt.Sprintf("%s:%d", kind, entityID)
}

func summaryKey(bookID int) string {
	return fmt.Sprintf("summary:%d", bookID)
}

func recommendationKey(userID int) string {
	return fmt.Sprintf("recommendations:%d", userID)
}
