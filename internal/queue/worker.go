package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// WorkerConfig bounds job execution. SoftTimeout warns and asks the job to
// wind down; HardTimeout cancels its context outright, after which the job is
// retried like any other failure. MaxJobsPerWorker recycles a worker loop
// after a bounded number of jobs so state accumulation stays bounded.
type WorkerConfig struct {
	Concurrency      int
	MaxAttempts      int
	RetryDelay       time.Duration
	SoftTimeout      time.Duration
	HardTimeout      time.Duration
	MaxJobsPerWorker int
	DequeueWait      time.Duration
	MoverInterval    time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Concurrency:      4,
		MaxAttempts:      3,
		RetryDelay:       60 * time.Second,
		SoftTimeout:      25 * time.Minute,
		HardTimeout:      30 * time.Minute,
		MaxJobsPerWorker: 1000,
		DequeueWait:      2 * time.Second,
		MoverInterval:    time.Second,
	}
}

// source is the consuming side of a durable queue.
type source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	EnqueueIn(ctx context.Context, job Job, delay time.Duration) error
	RunMover(ctx context.Context, interval time.Duration)
}

// Pool drains a queue with a fixed set of workers, dispatching jobs to
// registered handlers by name.
type Pool struct {
	src      source
	cfg      WorkerConfig
	log      zerolog.Logger
	handlers map[string]Handler
}

func NewPool(src source, cfg WorkerConfig, log zerolog.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pool{
		src:      src,
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job name. Not safe to call after Run.
func (p *Pool) Register(name string, h Handler) {
	p.handlers[name] = h
}

// Run processes jobs until the context is cancelled.
func (p *Pool) Run(ctx context.Context) {
	go p.src.RunMover(ctx, p.cfg.MoverInterval)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for ctx.Err() == nil {
				// Each loop iteration is one worker incarnation; it exits
				// after MaxJobsPerWorker and a fresh one takes over.
				p.workerLoop(ctx, id)
			}
		}(i)
	}
	wg.Wait()
}

func (p *Pool) workerLoop(ctx context.Context, id int) {
	for processed := 0; p.cfg.MaxJobsPerWorker <= 0 || processed < p.cfg.MaxJobsPerWorker; {
		if ctx.Err() != nil {
			return
		}
		job, err := p.src.Dequeue(ctx, p.cfg.DequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error().Err(err).Int("worker", id).Msg("dequeue failed")
			continue
		}
		if job == nil {
			continue
		}
		processed++
		p.process(ctx, *job)
	}
	p.log.Debug().Int("worker", id).Msg("worker recycling")
}

func (p *Pool) process(ctx context.Context, job Job) {
	handler, ok := p.handlers[job.Name]
	if !ok {
		p.log.Error().Str("job", job.Name).Str("id", job.ID).Msg("no handler registered")
		return
	}

	logger := p.log.With().Str("job", job.Name).Str("id", job.ID).Int("attempt", job.Attempt+1).Logger()
	logger.Debug().Str("status", string(StatusRunning)).Msg("job started")

	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.HardTimeout)
	defer cancel()

	soft := time.AfterFunc(p.cfg.SoftTimeout, func() {
		logger.Warn().Dur("soft_timeout", p.cfg.SoftTimeout).Msg("job exceeded soft time budget")
	})
	defer soft.Stop()

	err := handler(jobCtx, job)
	if err == nil {
		logger.Debug().Str("status", string(StatusDelivered)).Msg("job done")
		return
	}

	if errors.Is(err, ErrTerminal) {
		logger.Error().Err(err).Str("status", string(StatusFailed)).Msg("job failed permanently")
		return
	}

	job.Attempt++
	if job.Attempt >= p.cfg.MaxAttempts {
		logger.Error().Err(err).Str("status", string(StatusFailed)).Msg("job failed after exhausting retries")
		return
	}

	logger.Warn().Err(err).Str("status", string(StatusRetryScheduled)).
		Dur("delay", p.cfg.RetryDelay).Msg("job retry scheduled")
	if reqErr := p.src.EnqueueIn(ctx, job, p.cfg.RetryDelay); reqErr != nil {
		logger.Error().Err(reqErr).Str("status", string(StatusFailed)).Msg("re-enqueue failed, job lost")
	}
}
