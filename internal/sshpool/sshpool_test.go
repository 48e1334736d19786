package sshpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAcquireHealthyFastPath(t *testing.T) {
	p := New()
	cfg := Config{Host: "h1"}
	p.markHealthy(KeyOf(cfg))

	called := false
	err := p.Acquire(context.Background(), cfg, func(ctx context.Context, c Config) error {
		called = true
		return nil
	}, AcquireOptions{})
	require.NoError(t, err)
	assert.False(t, called, "healthy host with no backoff must not re-probe")
}

func TestAcquireSharesSingleProbeAcrossHerd(t *testing.T) {
	p := New()
	cfg := Config{Host: "h1"}

	var probes int32
	release := make(chan struct{})
	probe := func(ctx context.Context, c Config) error {
		atomic.AddInt32(&probes, 1)
		<-release
		return nil
	}

	const herd = 8
	var wg sync.WaitGroup
	errs := make([]error, herd)
	for i := 0; i < herd; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.Acquire(context.Background(), cfg, probe, AcquireOptions{})
		}(i)
	}

	// give every goroutine a chance to enter singleflight.Do before releasing
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&probes), "singleflight must collapse the herd into one physical probe")
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestAcquireFailureSetsBackoff(t *testing.T) {
	now := time.Unix(1000, 0)
	p := NewWithClock(fixedClock(now), func() float64 { return 0.5 })
	cfg := Config{Host: "h1"}

	probeErr := errors.New("connection refused")
	err := p.Acquire(context.Background(), cfg, func(ctx context.Context, c Config) error {
		return probeErr
	}, AcquireOptions{})
	require.Error(t, err)

	h := p.GetHealth(KeyOf(cfg))
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, 1, h.ConsecutiveFailures)
	require.NotNil(t, h.BackoffUntil)
	assert.True(t, h.BackoffUntil.After(now))
}

func TestAcquireReturnsErrInBackoffWhenMaxWaitExhausted(t *testing.T) {
	now := time.Unix(1000, 0)
	p := NewWithClock(fixedClock(now), func() float64 { return 0.5 })
	cfg := Config{Host: "h1"}
	key := KeyOf(cfg)

	p.recordFailure(key, errors.New("boom"))

	var slept time.Duration
	err := p.Acquire(context.Background(), cfg, func(ctx context.Context, c Config) error {
		t.Fatal("probe must not run while still in backoff")
		return nil
	}, AcquireOptions{
		MaxWait: 10 * time.Millisecond,
		Sleep:   func(d time.Duration) { slept = d },
	})

	var inBackoff *ErrInBackoff
	require.ErrorAs(t, err, &inBackoff)
	assert.Equal(t, key, inBackoff.Key)
	assert.Equal(t, 10*time.Millisecond, slept)
}

func TestComputeBackoffExponentialWithCeiling(t *testing.T) {
	noJitter := 0.5 // maps to jitter factor 1.0
	assert.Equal(t, baseBackoff, computeBackoff(1, noJitter))
	assert.Equal(t, 2*baseBackoff, computeBackoff(2, noJitter))
	assert.Equal(t, 4*baseBackoff, computeBackoff(3, noJitter))
	assert.Equal(t, maxBackoff, computeBackoff(20, noJitter))
}

func TestResetBackoffPreservesLastError(t *testing.T) {
	p := New()
	cfg := Config{Host: "h1"}
	key := KeyOf(cfg)
	cause := errors.New("boom")
	p.recordFailure(key, cause)

	p.ResetBackoff(key)
	h := p.GetHealth(key)
	assert.Equal(t, StatusUnknown, h.Status)
	assert.Equal(t, 0, h.ConsecutiveFailures)
	assert.Nil(t, h.BackoffUntil)
	assert.Equal(t, cause, h.LastError)
}

func TestKeyOfDefaults(t *testing.T) {
	assert.Equal(t, "host:22:default:alice", KeyOf(Config{Host: "host", LocalUser: "alice"}))
}
