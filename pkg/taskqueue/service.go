// Package taskqueue provides an ordered execution context for connection
// work: setup, outbound transmission, and inbound dispatch are submitted
// as tasks to per-connection FIFO queues. Each queue is served by a
// dedicated worker, so tasks on one queue never run concurrently with
// each other, while independent queues proceed in parallel.
package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harunnryd/uplink/pkg/errorsx"
)

// Task is a unit of work. The context is canceled when the service is
// force-terminated; long-running tasks must observe it.
type Task func(ctx context.Context)

// ErrTerminated is returned for submissions during or after Term.
var ErrTerminated = errorsx.New(errorsx.ReasonShutdown, "task service terminated")

// ErrWaitTimeout is returned by SubmitWait when the bounded wait expires
// before the task completes. The task itself keeps its queue slot.
var ErrWaitTimeout = errors.New("task wait timed out")

// ErrQueueFull is returned by TrySubmit when the queue has no free slot.
var ErrQueueFull = errors.New("task queue full")

type Stats struct {
	Submitted int64
	Completed int64
	Rejected  int64
}

type Service struct {
	mu       sync.Mutex
	queues   []*Queue
	ctx      context.Context
	cancel   context.CancelFunc
	draining chan struct{}
	inited   bool
	term     bool
	termOnce sync.Once
	termErr  error
	wg       sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
}

func New() *Service {
	return &Service{}
}

// Init allocates the worker context. Idempotent; NewQueue calls it lazily.
func (s *Service) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
}

func (s *Service) initLocked() {
	if s.inited {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.draining = make(chan struct{})
	s.inited = true
}

// NewQueue creates a logically independent FIFO queue served by its own
// worker. depth bounds the number of queued tasks; submitters block when
// it is reached.
func (s *Service) NewQueue(name string, depth int) (*Queue, error) {
	if depth <= 0 {
		depth = 64
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.term {
		return nil, ErrTerminated
	}
	s.initLocked()
	q := &Queue{name: name, tasks: make(chan Task, depth), svc: s}
	s.queues = append(s.queues, q)
	s.wg.Add(1)
	go q.loop()
	return q, nil
}

// Submit enqueues a fire-and-forget task. Blocks for backpressure when
// the queue is full; unblocks with ErrTerminated if the service drains.
func (s *Service) Submit(q *Queue, t Task) error {
	if q == nil || t == nil {
		return errors.New("nil queue or task")
	}
	if s.terminated() {
		s.rejected.Add(1)
		return ErrTerminated
	}
	select {
	case q.tasks <- t:
		s.submitted.Add(1)
		return nil
	case <-s.draining:
		s.rejected.Add(1)
		return ErrTerminated
	}
}

// TrySubmit enqueues a task without blocking. Callers that must not
// stall (e.g. error dispatch from a worker) use this instead of Submit.
func (s *Service) TrySubmit(q *Queue, t Task) error {
	if q == nil || t == nil {
		return errors.New("nil queue or task")
	}
	if s.terminated() {
		s.rejected.Add(1)
		return ErrTerminated
	}
	select {
	case q.tasks <- t:
		s.submitted.Add(1)
		return nil
	default:
		s.rejected.Add(1)
		return ErrQueueFull
	}
}

// SubmitWait enqueues fn and waits up to timeout for it to complete,
// returning its error. A timed-out task still runs; only the wait is
// abandoned.
func (s *Service) SubmitWait(q *Queue, timeout time.Duration, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	if err := s.Submit(q, func(ctx context.Context) {
		done <- fn(ctx)
	}); err != nil {
		return err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrWaitTimeout
	case <-s.draining:
		return ErrTerminated
	}
}

// Term drains queued tasks up to timeout, then cancels the worker context
// so abandoned tasks fail fast instead of hanging. Idempotent.
func (s *Service) Term(timeout time.Duration) error {
	s.termOnce.Do(func() {
		s.mu.Lock()
		s.term = true
		if !s.inited {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		close(s.draining)
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			s.termErr = errorsx.New(errorsx.ReasonShutdown, "drain timeout")
		}
		s.cancel()
	})
	return s.termErr
}

func (s *Service) Stats() Stats {
	return Stats{
		Submitted: s.submitted.Load(),
		Completed: s.completed.Load(),
		Rejected:  s.rejected.Load(),
	}
}

func (s *Service) terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Queue is a FIFO task lane owned by a Service.
type Queue struct {
	name  string
	tasks chan Task
	svc   *Service
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) loop() {
	defer q.svc.wg.Done()
	for {
		select {
		case t := <-q.tasks:
			t(q.svc.ctx)
			q.svc.completed.Add(1)
		case <-q.svc.draining:
			for {
				select {
				case t := <-q.tasks:
					t(q.svc.ctx)
					q.svc.completed.Add(1)
				default:
					return
				}
			}
		}
	}
}
