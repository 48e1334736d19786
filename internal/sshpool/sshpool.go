// Package sshpool implements the shared SSH connection health pool: at most
// one physical probe per host key in flight at any instant, exponential
// backoff with jitter on failure, and singleflight-style herd release so
// every caller that slept through a backoff window observes the result of
// the single probe that woke first.
package sshpool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mux/pkg/logging"
)

// Status is the health classification of a host key.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const (
	baseBackoff   = 250 * time.Millisecond
	maxBackoff    = 10 * time.Second
	jitterFrac    = 0.2
)

// Config identifies the SSH endpoint a Health entry tracks.
type Config struct {
	Host         string
	Port         int
	IdentityFile string
	LocalUser    string
}

// KeyOf derives the pool key for a Config: host, port (default 22),
// identity file (default "default"), and local username.
func KeyOf(c Config) string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	identity := c.IdentityFile
	if identity == "" {
		identity = "default"
	}
	return fmt.Sprintf("%s:%d:%s:%s", c.Host, port, identity, c.LocalUser)
}

// Health is a snapshot of a host key's connection health.
type Health struct {
	Status              Status
	ConsecutiveFailures int
	BackoffUntil        *time.Time
	LastError           error
	LastSuccess         *time.Time
}

type entry struct {
	mu sync.Mutex
	Health
}

// ProbeFunc performs the actual SSH liveness check for a Config. Errors
// returned here drive backoff; ProbeFunc must not itself mutate any shared
// health state.
type ProbeFunc func(ctx context.Context, cfg Config) error

// AcquireOptions tune the acquire protocol's waiting behavior. MaxWait is
// the total time one Acquire may spend sleeping through backoff (0 means no
// limit). Sleep is a test seam; production callers may leave it nil.
type AcquireOptions struct {
	MaxWait time.Duration
	OnWait  func(wait time.Duration)
	Sleep   func(d time.Duration)
}

// ErrInBackoff is returned when the caller's MaxWait elapses while the host
// key is still inside its backoff window.
type ErrInBackoff struct {
	Key          string
	BackoffUntil time.Time
}

func (e *ErrInBackoff) Error() string {
	return fmt.Sprintf("sshpool: %s is in backoff until %s", e.Key, e.BackoffUntil.Format(time.RFC3339))
}

// Pool tracks health per host key and serializes probing through a
// singleflight.Group so concurrent acquires for the same key share one
// physical probe.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group

	now  func() time.Time
	rand func() float64
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{
		entries: make(map[string]*entry),
		now:     time.Now,
		rand:    rand.Float64,
	}
}

// NewWithClock creates a Pool with an injectable clock and jitter source,
// for deterministic tests.
func NewWithClock(now func() time.Time, randFloat func() float64) *Pool {
	p := New()
	if now != nil {
		p.now = now
	}
	if randFloat != nil {
		p.rand = randFloat
	}
	return p
}

func (p *Pool) getOrInsert(key string) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		e = &entry{Health: Health{Status: StatusUnknown}}
		p.entries[key] = e
	}
	return e
}

// GetHealth returns a snapshot of the current health for key, or the zero
// value with Status unknown if the key has never been touched.
func (p *Pool) GetHealth(key string) Health {
	p.mu.RLock()
	e, ok := p.entries[key]
	p.mu.RUnlock()
	if !ok {
		return Health{Status: StatusUnknown}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Health
}

// Acquire runs the acquire protocol for cfg using probe to perform the
// physical check when one is required. It blocks, sleeping through backoff
// windows via opts.Sleep, until the host is healthy, backoff truly expires
// and a (possibly shared) probe fails, or opts.MaxWait is exhausted.
func (p *Pool) Acquire(ctx context.Context, cfg Config, probe ProbeFunc, opts AcquireOptions) error {
	if opts.Sleep == nil {
		opts.Sleep = func(d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		}
	}

	key := KeyOf(cfg)
	var waited time.Duration

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := p.getOrInsert(key)
		e.mu.Lock()
		status := e.Status
		backoffUntil := e.BackoffUntil
		e.mu.Unlock()

		now := p.now()

		if status == StatusHealthy && backoffUntil == nil {
			return nil
		}

		if backoffUntil != nil && now.Before(*backoffUntil) {
			wait := backoffUntil.Sub(now)
			if opts.MaxWait > 0 && wait > opts.MaxWait-waited {
				wait = opts.MaxWait - waited
			}
			if wait > 0 {
				if opts.OnWait != nil {
					opts.OnWait(wait)
				}
				opts.Sleep(wait)
				waited += wait
				continue
			}
			return &ErrInBackoff{Key: key, BackoffUntil: *backoffUntil}
		}

		_, err, _ := p.group.Do(key, func() (interface{}, error) {
			return nil, probe(ctx, cfg)
		})

		if err == nil {
			p.markHealthy(key)
			return nil
		}
		p.recordFailure(key, err)
		return err
	}
}

func (p *Pool) markHealthy(key string) {
	e := p.getOrInsert(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	now := p.now()
	e.Status = StatusHealthy
	e.ConsecutiveFailures = 0
	e.BackoffUntil = nil
	e.LastSuccess = &now
	logging.Debug("sshpool", "host key %s is healthy", key)
}

func (p *Pool) recordFailure(key string, cause error) {
	e := p.getOrInsert(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Status = StatusUnhealthy
	e.ConsecutiveFailures++
	e.LastError = cause

	backoff := computeBackoff(e.ConsecutiveFailures, p.rand())
	until := p.now().Add(backoff)
	e.BackoffUntil = &until

	logging.Warn("sshpool", "host key %s failed (%d consecutive), backing off until %s: %v",
		key, e.ConsecutiveFailures, until.Format(time.RFC3339), cause)
}

func computeBackoff(consecutiveFailures int, jitterSample float64) time.Duration {
	if consecutiveFailures < 1 {
		consecutiveFailures = 1
	}
	base := baseBackoff * time.Duration(1<<uint(consecutiveFailures-1))
	if base > maxBackoff {
		base = maxBackoff
	}
	// jitterSample is expected in [0,1); map to [-jitterFrac, +jitterFrac].
	jitter := 1 + (jitterSample*2-1)*jitterFrac
	actual := time.Duration(float64(base) * jitter)
	if actual < 0 {
		actual = 0
	}
	return actual
}

// ResetBackoff clears status to unknown, zeroes the failure count, and
// unsets BackoffUntil, leaving LastError untouched.
func (p *Pool) ResetBackoff(key string) {
	e := p.getOrInsert(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Status = StatusUnknown
	e.ConsecutiveFailures = 0
	e.BackoffUntil = nil
}

// PromptKind classifies an SSH interactive prompt.
type PromptKind string

const (
	PromptHostKey    PromptKind = "host-key"
	PromptCredential PromptKind = "credential"
)
