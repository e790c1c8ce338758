// Package workerpool runs document jobs on a bounded goroutine pool.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ErrClosed is returned by Submit after Release.
var ErrClosed = errors.New("worker pool closed")

// Pool wraps an ants pool. Submit blocks while every worker is busy, which
// pushes back on the message consumer.
type Pool struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

func New(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(rec any) {
		slog.Error("worker_job_panic", "panic", fmt.Sprint(rec))
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Submit schedules job. The context is handed to the job unchanged.
func (p *Pool) Submit(ctx context.Context, job func(context.Context)) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		job(ctx)
	})
	if err != nil {
		p.wg.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrClosed
		}
		return fmt.Errorf("submit job: %w", err)
	}
	return nil
}

func (p *Pool) Running() int {
	return p.pool.Running()
}

func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release waits for submitted jobs and stops the workers.
func (p *Pool) Release() {
	p.wg.Wait()
	p.pool.Release()
}
