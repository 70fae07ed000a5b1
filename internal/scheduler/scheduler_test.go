package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley-api/internal/domain"
)

type stubRunner struct {
	mu          sync.Mutex
	matchCalls  int
	expireCalls int
	matchErr    error
	expireErr   error
	panicOnce   bool
	cycleDone   chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{cycleDone: make(chan struct{}, 16)}
}

func (r *stubRunner) RunBatchMatching(ctx context.Context) (int, error) {
	r.mu.Lock()
	r.matchCalls++
	panicNow := r.panicOnce
	r.panicOnce = false
	err := r.matchErr
	r.mu.Unlock()

	if panicNow {
		panic("boom")
	}
	return 1, err
}

func (r *stubRunner) ExpireStaleMatches(ctx context.Context) (int, error) {
	r.mu.Lock()
	r.expireCalls++
	err := r.expireErr
	r.mu.Unlock()

	r.cycleDone <- struct{}{}
	return 0, err
}

func (r *stubRunner) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchCalls, r.expireCalls
}

func waitForCycle(t *testing.T, r *stubRunner) {
	t.Helper()
	select {
	case <-r.cycleDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a matching cycle")
	}
}

func TestNewBatchSchedulerValidatesArgs(t *testing.T) {
	t.Parallel()

	_, err := NewBatchScheduler(nil, time.Minute, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewBatchScheduler(newStubRunner(), 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStartRunsImmediateCycle(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	s, err := NewBatchScheduler(runner, time.Hour, nil)
	require.NoError(t, err)

	// With an hour-long interval the only way a cycle completes promptly
	// is the boot sweep.
	s.Start(context.Background())
	defer s.Stop()

	waitForCycle(t, runner)

	matches, expiries := runner.counts()
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, expiries)
}

func TestTriggerNowRunsBothPhases(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	s, err := NewBatchScheduler(runner, time.Hour, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	// Boot sweep first, then the explicit trigger.
	waitForCycle(t, runner)
	s.TriggerNow()
	waitForCycle(t, runner)

	matches, expiries := runner.counts()
	assert.Equal(t, 2, matches)
	assert.Equal(t, 2, expiries)
}

func TestTickerFiresCycles(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	s, err := NewBatchScheduler(runner, 10*time.Millisecond, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	waitForCycle(t, runner)
	waitForCycle(t, runner)

	matches, _ := runner.counts()
	assert.GreaterOrEqual(t, matches, 2)
}

func TestExpiryRunsEvenWhenMatchingFails(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.matchErr = errors.New("pool query failed")

	s, err := NewBatchScheduler(runner, time.Hour, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	waitForCycle(t, runner)

	_, expiries := runner.counts()
	assert.Equal(t, 1, expiries)
}

func TestSchedulerSurvivesCyclePanic(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.panicOnce = true

	s, err := NewBatchScheduler(runner, time.Hour, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	// The boot sweep panics inside matching; the loop must survive it.
	require.Eventually(t, func() bool {
		s.TriggerNow()
		select {
		case <-runner.cycleDone:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopWaitsForLoopExit(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	s, err := NewBatchScheduler(runner, time.Hour, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	waitForCycle(t, runner)

	s.Stop()
	// Stop is idempotent.
	s.Stop()

	matches, _ := runner.counts()
	assert.Equal(t, 1, matches)
}
