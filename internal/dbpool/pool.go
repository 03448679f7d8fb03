package dbpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrConnectionCreation is returned when the Opener fails to open a new
	// connection. The driver error is wrapped alongside it.
	ErrConnectionCreation = errors.New("dbpool: connection creation failed")
	// ErrPoolClosed is returned when borrowing from a closed pool.
	ErrPoolClosed = errors.New("dbpool: pool is closed")
	// ErrAcquireTimeout is returned when Config.AcquireTimeout elapses before
	// a connection becomes available.
	ErrAcquireTimeout = errors.New("dbpool: acquire timeout")
	// ErrInvalidConfig is returned by New for a non-positive MaxSize or a
	// negative TTL.
	ErrInvalidConfig = errors.New("dbpool: invalid config")
)

// closeTimeout bounds how long disposing a connection may spend closing it.
const closeTimeout = 5 * time.Second

// Conn is the connection handle managed by the pool. *pgx.Conn satisfies it.
type Conn interface {
	Close(ctx context.Context) error
	IsClosed() bool
}

// Opener opens a new connection.
type Opener[C Conn] func(ctx context.Context) (C, error)

// Config configures a Pool.
type Config struct {
	// MaxSize is the maximum number of simultaneously open connections.
	MaxSize int
	// TTL is the age after which a connection is closed instead of reused.
	// Zero means every connection is closed when it is returned.
	TTL time.Duration
	// AcquireTimeout bounds how long With waits for a free connection.
	// Zero waits until the caller's context ends.
	AcquireTimeout time.Duration
}

type options struct {
	log logrus.FieldLogger
	now func() time.Time
}

// Option configures optional Pool behaviour.
type Option func(*options)

// WithLogger sets the logger pool events are written to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the time source used for connection ages.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type record[C Conn] struct {
	id        uuid.UUID
	conn      C
	createdAt time.Time
}

// Pool is a bounded pool of connections of type C.
type Pool[C Conn] struct {
	open Opener[C]
	cfg  Config
	log  logrus.FieldLogger
	now  func() time.Time

	// one permit per borrower; a permit is held from acquire until the
	// borrowed record is back in idle or disposed.
	permits *semaphore.Weighted

	mu          sync.Mutex
	idle        []*record[C]
	provisioned int
	closed      bool

	acquireCount      uint64
	waitCount         uint64
	createCount       uint64
	createFailedCount uint64
	disposeCount      uint64
	expireCount       uint64
}

// New returns a pool that opens connections with open.
func New[C Conn](open Opener[C], cfg Config, opts ...Option) (*Pool[C], error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidConfig, cfg.MaxSize)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("%w: ttl must not be negative, got %s", ErrInvalidConfig, cfg.TTL)
	}

	o := options{
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[C]{
		open:    open,
		cfg:     cfg,
		log:     o.log.WithField("component", "dbpool"),
		now:     o.now,
		permits: semaphore.NewWeighted(int64(cfg.MaxSize)),
		idle:    make([]*record[C], 0, cfg.MaxSize),
	}

	p.log.WithFields(logrus.Fields{
		"max_size": cfg.MaxSize,
		"ttl":      cfg.TTL,
	}).Debug("pool created")
	return p, nil
}

// With borrows a connection for the duration of fn.
//
// When fn returns nil the connection goes back to the pool, unless it has
// reached the TTL or reports itself closed, in which case it is closed.
// When fn returns an error or panics the connection is closed and the
// error or panic is passed on unchanged.
func (p *Pool[C]) With(ctx context.Context, fn func(ctx context.Context, conn C) error) (err error) {
	rec, err := p.acquire(ctx)
	if err != nil {
		return err
	}

	failed := true
	defer func() { p.settle(rec, failed) }()

	err = fn(ctx, rec.conn)
	failed = err != nil
	return err
}

// acquire hands out one record, reusing an idle one when possible. On
// success the caller owns a permit that settle gives back.
func (p *Pool[C]) acquire(ctx context.Context) (*record[C], error) {
	parent := ctx
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	if !p.permits.TryAcquire(1) {
		p.mu.Lock()
		closed := p.closed
		if !closed {
			p.waitCount++
		}
		p.mu.Unlock()
		if closed {
			return nil, ErrPoolClosed
		}

		p.log.Debug("waiting for available connection")
		if err := p.permits.Acquire(ctx, 1); err != nil {
			if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrAcquireTimeout
			}
			return nil, err
		}
	}

	rec, err := p.take(ctx)
	if err != nil {
		p.permits.Release(1)
		return nil, err
	}
	return rec, nil
}

// take pops the most recently released idle record or creates a new one.
// The caller must hold a permit.
func (p *Pool[C]) take(ctx context.Context) (*record[C], error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		n := len(p.idle)
		if n == 0 {
			// the permit guarantees room for one more connection
			p.mu.Unlock()
			rec, err := p.create(ctx)
			if err != nil {
				return nil, err
			}
			p.mu.Lock()
			p.acquireCount++
			p.mu.Unlock()
			return rec, nil
		}

		rec := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.mu.Unlock()

		if rec.conn.IsClosed() {
			p.dispose(rec, "closed while idle")
			continue
		}
		if p.expired(rec) {
			p.countExpired()
			p.dispose(rec, "ttl exceeded while idle")
			continue
		}

		p.mu.Lock()
		p.acquireCount++
		p.mu.Unlock()
		return rec, nil
	}
}

// create opens a new connection and accounts for it.
func (p *Pool[C]) create(ctx context.Context) (*record[C], error) {
	conn, err := p.open(ctx)
	if err != nil {
		p.mu.Lock()
		p.createFailedCount++
		p.mu.Unlock()
		p.log.WithError(err).Warn("failed to open connection")
		return nil, fmt.Errorf("%w: %w", ErrConnectionCreation, err)
	}

	rec := &record[C]{
		id:        uuid.New(),
		conn:      conn,
		createdAt: p.now(),
	}

	p.mu.Lock()
	p.provisioned++
	p.createCount++
	closed := p.closed
	p.mu.Unlock()

	p.log.WithField("conn_id", rec.id).Info("connection created")

	if closed {
		p.dispose(rec, "pool closed")
		return nil, ErrPoolClosed
	}
	return rec, nil
}

// settle disposes of a record coming back from a borrower and returns the
// borrower's permit. A record disposed because the borrower failed is not
// looked at again.
func (p *Pool[C]) settle(rec *record[C], failed bool) {
	defer p.permits.Release(1)

	if failed {
		p.dispose(rec, "borrower failed")
		return
	}
	if p.expired(rec) {
		p.countExpired()
		p.dispose(rec, "ttl exceeded")
		return
	}
	if rec.conn.IsClosed() {
		p.dispose(rec, "closed by borrower")
		return
	}
	p.releaseToIdle(rec)
}

// releaseToIdle pushes rec on top of the idle stack. A pool closed in the
// meantime gets the record disposed instead.
func (p *Pool[C]) releaseToIdle(rec *record[C]) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.dispose(rec, "pool closed")
		return
	}
	p.idle = append(p.idle, rec)
	p.mu.Unlock()

	p.log.WithField("conn_id", rec.id).Info("connection returned to pool")
}

// dispose closes rec and removes it from the provisioned count. rec must
// not be used again.
func (p *Pool[C]) dispose(rec *record[C], reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	entry := p.log.WithFields(logrus.Fields{
		"conn_id": rec.id,
		"age":     p.now().Sub(rec.createdAt),
		"reason":  reason,
	})
	if err := rec.conn.Close(ctx); err != nil {
		entry.WithError(err).Warn("error closing connection")
	}

	p.mu.Lock()
	p.provisioned--
	p.disposeCount++
	p.mu.Unlock()

	entry.Info("connection closed")
}

func (p *Pool[C]) expired(rec *record[C]) bool {
	return p.now().Sub(rec.createdAt) >= p.cfg.TTL
}

func (p *Pool[C]) countExpired() {
	p.mu.Lock()
	p.expireCount++
	p.mu.Unlock()
}

// RetireExpired closes idle connections that have reached the TTL and
// returns how many were closed. It stops early when every permit is taken,
// since then all remaining records are borrowed or about to be.
func (p *Pool[C]) RetireExpired() int {
	retired := 0
	for p.permits.TryAcquire(1) {
		rec := p.popExpired()
		if rec == nil {
			p.permits.Release(1)
			break
		}
		p.countExpired()
		p.dispose(rec, "ttl exceeded while idle")
		p.permits.Release(1)
		retired++
	}
	return retired
}

// popExpired removes and returns the first expired idle record, or nil.
func (p *Pool[C]) popExpired() *record[C] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	for i, rec := range p.idle {
		if !p.expired(rec) {
			continue
		}
		copy(p.idle[i:], p.idle[i+1:])
		p.idle[len(p.idle)-1] = nil
		p.idle = p.idle[:len(p.idle)-1]
		return rec
	}
	return nil
}

// Close closes every idle connection and rejects further borrows.
// Connections still borrowed are closed as they are returned.
func (p *Pool[C]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, rec := range idle {
		p.dispose(rec, "pool closed")
	}
	p.log.Debug("pool closed")
}
