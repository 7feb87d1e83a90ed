// Package pool provides a bounded worker pool built on ants. The retrieval
// service uses it to cap concurrent per-paragraph sub-pipelines so document
// fan-out cannot overwhelm the embedding, vector store and LLM backends.
package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent workers.
	Capacity int
	// ExpiryDuration is how long an idle worker is kept alive.
	ExpiryDuration time.Duration
	// Nonblocking makes Submit return an error when the pool is full
	// instead of blocking.
	Nonblocking bool
	// PanicHandler handles panics raised by submitted tasks.
	PanicHandler func(interface{})
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() *Config {
	return &Config{
		Capacity:       16,
		ExpiryDuration: 10 * time.Second,
	}
}

// Pool represents a bounded worker pool.
type Pool struct {
	name string
	pool *ants.Pool
}

// New creates a new worker pool with the given configuration.
func New(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
	}
	if config.PanicHandler != nil {
		opts = append(opts, ants.WithPanicHandler(config.PanicHandler))
	} else {
		opts = append(opts, ants.WithPanicHandler(func(p interface{}) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", p)
		}))
	}

	p, err := ants.NewPool(config.Capacity, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}

	return &Pool{name: name, pool: p}, nil
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Running returns the number of currently running workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Submit submits a task to the pool.
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// SubmitWait submits every task and blocks until all of them finish.
// Tasks that cannot be submitted are executed inline so a saturated pool
// degrades to sequential execution instead of dropping work.
func (p *Pool) SubmitWait(tasks []func()) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		wrapped := func() {
			defer wg.Done()
			task()
		}
		if err := p.Submit(wrapped); err != nil {
			logger.Warnw("pool submit failed, running task inline",
				"pool", p.name,
				"error", err.Error(),
			)
			wrapped()
		}
	}
	wg.Wait()
}

// Release shuts the pool down and releases its workers.
func (p *Pool) Release() {
	p.pool.Release()
}
