package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog/log"

	"rahhal_engine/internal/adapters/observability"
	"rahhal_engine/internal/domain"
)

// Conn is the slice of *pgx.Conn the pool and repository need. Tests inject
// fake connections through DialFunc.
type Conn interface {
	Ping(ctx context.Context) error
	IsClosed() bool
	Close(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DialFunc func(ctx context.Context) (Conn, error)

var ErrPoolClosed = errors.New("postgres: pool closed")

const acquireAttempts = 3

type Config struct {
	DSN      string
	MinConns int // clamped to [1,5]
	MaxConns int // clamped to [MinConns,20], default 10

	// RetryBaseWait is the first retry delay; it doubles per attempt.
	// Zero means 1s.
	RetryBaseWait time.Duration
}

// Pool is a bounded pool of validated connections. It is the only shared
// mutable state between requests; all accounting happens under mu. A
// connection belongs to the generation it was accounted under; Reset bumps
// the generation so stale in-flight connections are discarded on release.
type Pool struct {
	dial     DialFunc
	min, max int
	baseWait time.Duration

	mu      sync.Mutex
	idle    []Conn
	numOpen int           // idle + checked out, current generation
	gen     uint64        // bumped by Reset
	space   chan struct{} // closed and replaced whenever capacity frees up
	closed  bool
}

// Open builds the pool and pre-dials MinConns connections, failing fast when
// the store is unreachable at startup.
func Open(ctx context.Context, cfg Config, dial DialFunc) (*Pool, error) {
	if dial == nil {
		dial = pgxDial(cfg.DSN)
	}
	min, max := clampSize(cfg.MinConns, cfg.MaxConns)
	p := &Pool{
		dial:     dial,
		min:      min,
		max:      max,
		baseWait: cfg.RetryBaseWait,
		space:    make(chan struct{}),
	}
	if p.baseWait <= 0 {
		p.baseWait = time.Second
	}
	for i := 0; i < p.min; i++ {
		c, err := dial(ctx)
		if err != nil {
			p.Close(ctx)
			return nil, fmt.Errorf("postgres: warm connection %d: %w", i+1, err)
		}
		p.mu.Lock()
		p.idle = append(p.idle, c)
		p.numOpen++
		p.mu.Unlock()
	}
	return p, nil
}

func clampSize(min, max int) (int, int) {
	if min < 1 {
		min = 1
	}
	if min > 5 {
		min = 5
	}
	if max <= 0 {
		max = 10
	}
	if max > 20 {
		max = 20
	}
	if max < min {
		max = min
	}
	return min, max
}

// pgxDial connects and registers the pgvector types every connection needs
// for vector query parameters.
func pgxDial(dsn string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		observability.ObservePool("dial")
		c, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := pgxvec.RegisterTypes(ctx, c); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		return c, nil
	}
}

// WithConn is the scoped acquire shared by every store-touching component:
// acquire (with retry and backoff), validate, run fn, release on every exit
// path. Exhausted retries reset the pool and surface domain.ErrUnavailable.
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, c Conn) error) error {
	c, gen, err := p.acquireRetry(ctx)
	if err != nil {
		return err
	}
	defer func() { p.release(c, gen) }()
	return fn(ctx, c)
}

type leased struct {
	conn Conn
	gen  uint64
}

func (p *Pool) acquireRetry(ctx context.Context) (Conn, uint64, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.baseWait
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	op := func() (leased, error) {
		l, err := p.acquire(ctx)
		if err != nil {
			if errors.Is(err, ErrPoolClosed) || ctx.Err() != nil {
				return leased{}, backoff.Permanent(err)
			}
			observability.ObservePool("retry")
			log.Warn().Err(err).Msg("db connection acquire failed, will retry")
			return leased{}, err
		}
		return l, nil
	}

	l, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(acquireAttempts),
	)
	if err != nil {
		if errors.Is(err, ErrPoolClosed) || errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		// Pool-wide failure: tear down idle state so the next request starts
		// from fresh connections.
		p.Reset()
		return nil, 0, fmt.Errorf("%w: db connection failed after %d attempts: %v",
			domain.ErrUnavailable, acquireAttempts, err)
	}
	observability.ObservePool("acquire")
	return l.conn, l.gen, nil
}

// acquire hands out a validated connection, blocking while the pool is at
// capacity with nothing idle. A connection that fails its round-trip check is
// discarded and replaced rather than returned.
func (p *Pool) acquire(ctx context.Context) (leased, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return leased{}, ErrPoolClosed
		}
		gen := p.gen
		if n := len(p.idle); n > 0 {
			c := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()

			if err := c.Ping(ctx); err != nil {
				observability.ObservePool("validate_fail")
				_ = c.Close(context.WithoutCancel(ctx))
				repl, derr := p.dial(ctx)
				if derr != nil {
					p.decOpen(gen)
					return leased{}, derr
				}
				return leased{conn: repl, gen: gen}, nil
			}
			return leased{conn: c, gen: gen}, nil
		}
		if p.numOpen < p.max {
			p.numOpen++
			p.mu.Unlock()

			c, err := p.dial(ctx)
			if err != nil {
				p.decOpen(gen)
				return leased{}, err
			}
			return leased{conn: c, gen: gen}, nil
		}
		wait := p.space
		p.mu.Unlock()

		observability.ObservePool("wait")
		select {
		case <-ctx.Done():
			return leased{}, ctx.Err()
		case <-wait:
		}
	}
}

// release returns a connection to the idle set, or discards it when broken,
// stale (pre-Reset), or the pool has been closed underneath the holder.
func (p *Pool) release(c Conn, gen uint64) {
	broken := c.IsClosed()
	p.mu.Lock()
	if p.closed || broken || gen != p.gen {
		if gen == p.gen {
			p.numOpen--
		}
		p.notifyLocked()
		p.mu.Unlock()
		if !broken {
			_ = c.Close(context.Background())
		}
		return
	}
	p.idle = append(p.idle, c)
	p.notifyLocked()
	p.mu.Unlock()
}

func (p *Pool) decOpen(gen uint64) {
	p.mu.Lock()
	if gen == p.gen {
		p.numOpen--
	}
	p.notifyLocked()
	p.mu.Unlock()
}

// notifyLocked wakes every waiter; they re-check pool state under mu.
func (p *Pool) notifyLocked() {
	close(p.space)
	p.space = make(chan struct{})
}

// Reset starts a fresh generation: idle connections are closed now, in-flight
// ones are discarded as they come back. The pool refills lazily.
func (p *Pool) Reset() {
	observability.ObservePool("reset")
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.numOpen = 0
	p.gen++
	p.notifyLocked()
	p.mu.Unlock()

	for _, c := range idle {
		_ = c.Close(context.Background())
	}
	log.Warn().Int("discarded", len(idle)).Msg("db pool reset")
}

// Close tears the pool down. In-flight connections are closed as they are
// released.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.numOpen -= len(idle)
	p.notifyLocked()
	p.mu.Unlock()

	for _, c := range idle {
		_ = c.Close(ctx)
	}
}

// Stats reports open and idle counts for the current generation.
func (p *Pool) Stats() (open, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numOpen, len(p.idle)
}
