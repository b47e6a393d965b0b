package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/source"
)

type scriptedRunner struct {
	mu      sync.Mutex
	calls   int
	results [][]pipeline.CycleReport
	ran     chan struct{}
}

func (s *scriptedRunner) RunCycle(context.Context) []pipeline.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if s.ran != nil {
		select {
		case s.ran <- struct{}{}:
		default:
		}
	}
	if i < len(s.results) {
		return s.results[i]
	}
	return []pipeline.CycleReport{{Source: "basket"}}
}

func (s *scriptedRunner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type savedReports struct {
	mu    sync.Mutex
	saved int
}

func (s *savedReports) Save(context.Context, []pipeline.CycleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved++
	return nil
}

func unavailable() []pipeline.CycleReport {
	return []pipeline.CycleReport{{Source: "basket", Err: source.Unavailable(errors.New("503"), "fetch feed")}}
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable([]pipeline.CycleReport{{Source: "a"}}))
	assert.False(t, Retryable([]pipeline.CycleReport{{Err: errors.New("panic: boom")}}))
	assert.True(t, Retryable(unavailable()))
	assert.True(t, Retryable([]pipeline.CycleReport{{Err: errors.Mark(errors.New("x"), pipeline.ErrIndexUnavailable)}}))
}

func TestRunOnceRetriesUntilSuccess(t *testing.T) {
	runner := &scriptedRunner{results: [][]pipeline.CycleReport{unavailable(), unavailable()}}
	saver := &savedReports{}
	o := NewOrchestrator(runner, saver, Config{Interval: time.Hour, MaxRetries: 3, RetryDelay: time.Millisecond}, logging.NewNop())

	reports := o.RunOnce(context.Background())

	assert.Equal(t, 3, runner.Calls())
	assert.Equal(t, 3, saver.saved)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, 0, o.GetStatus()["consecutive_failures"])
}

func TestRunOnceGivesUp(t *testing.T) {
	runner := &scriptedRunner{results: [][]pipeline.CycleReport{unavailable(), unavailable()}}
	o := NewOrchestrator(runner, nil, Config{MaxRetries: 2, RetryDelay: time.Millisecond}, logging.NewNop())

	o.RunOnce(context.Background())

	assert.Equal(t, 2, runner.Calls())
	status := o.GetStatus()
	assert.Equal(t, 1, status["consecutive_failures"])
	assert.Equal(t, 1, status["cycles"])
	assert.Contains(t, status, "last_run")
}

func TestTriggerRunsCycle(t *testing.T) {
	runner := &scriptedRunner{ran: make(chan struct{}, 1)}
	o := NewOrchestrator(runner, nil, Config{Interval: time.Hour, MaxRetries: 1}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Start(ctx)
		close(done)
	}()

	require.True(t, o.Trigger())
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered cycle did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestTriggerCoalesces(t *testing.T) {
	o := NewOrchestrator(&scriptedRunner{}, nil, Config{}, logging.NewNop())

	assert.True(t, o.Trigger())
	assert.False(t, o.Trigger())
}
