package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Task is one unit of work run by the pool.
type Task func(ctx context.Context) error

var ErrPoolStopped = errors.New("worker pool stopped")

// Pool keeps one FIFO queue per active key. Tasks of one key run one at a
// time in submission order; a slow task only holds back its own key. At most
// `workers` keys are drained at once.
type Pool struct {
	mu        sync.Mutex
	queues    map[int64]*keyQueue
	queueSize int
	sem       *semaphore.Weighted
	ctx       context.Context // set by Start; nil until then

	wg   sync.WaitGroup
	quit chan struct{}
	once sync.Once
	log  *zerolog.Logger
}

type keyQueue struct {
	tasks []Task
	freed chan struct{} // closed whenever a task leaves the queue
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		queues:    make(map[int64]*keyQueue),
		queueSize: queueSize,
		sem:       semaphore.NewWeighted(int64(workers)),
		quit:      make(chan struct{}),
		log:       &l,
	}
}

// Start begins draining. Tasks submitted earlier start running now.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return
	}
	p.ctx = ctx
	for key, q := range p.queues {
		p.spawn(key, q)
	}
}

// spawn starts the drain goroutine of one queue. Callers hold p.mu.
func (p *Pool) spawn(key int64, q *keyQueue) {
	p.wg.Add(1)
	go p.drain(key, q)
}

// drain runs the queue of key until it is empty, then forgets the key.
func (p *Pool) drain(key int64, q *keyQueue) {
	defer p.wg.Done()
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return
	}
	defer p.sem.Release(1)

	for {
		select {
		case <-p.quit:
			return
		case <-p.ctx.Done():
			return
		default:
		}

		p.mu.Lock()
		if len(q.tasks) == 0 {
			delete(p.queues, key)
			p.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		close(q.freed)
		q.freed = make(chan struct{})
		p.mu.Unlock()

		p.run(p.ctx, key, task)
	}
}

func (p *Pool) run(ctx context.Context, key int64, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int64("key", key).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Debug().Int64("key", key).Err(err).Msg("task error")
	}
}

// Stop tells the drainers to exit and waits for the tasks in flight.
// Tasks still queued are discarded.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues task behind the earlier tasks of key, waiting while that
// key's queue is full.
func (p *Pool) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	for {
		select {
		case <-p.quit:
			return ErrPoolStopped
		default:
		}

		p.mu.Lock()
		q, ok := p.queues[key]
		if !ok {
			q = &keyQueue{freed: make(chan struct{})}
			p.queues[key] = q
			if p.ctx != nil {
				p.spawn(key, q)
			}
		}
		if len(q.tasks) < p.queueSize {
			q.tasks = append(q.tasks, task)
			p.mu.Unlock()
			return nil
		}
		freed := q.freed
		p.mu.Unlock()

		select {
		case <-freed:
		case <-p.quit:
			return ErrPoolStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Active reports how many keys have queued or running work.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues)
}
