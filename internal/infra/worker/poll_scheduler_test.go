package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type countingScanner struct {
	calls atomic.Int32
}

func (s *countingScanner) RunScan(context.Context) (usecase.ScanResult, error) {
	s.calls.Add(1)
	return usecase.ScanResult{}, nil
}

type panickingScanner struct {
	calls atomic.Int32
}

func (s *panickingScanner) RunScan(context.Context) (usecase.ScanResult, error) {
	s.calls.Add(1)
	panic("sheet exploded")
}

func TestPollScheduler_RunsImmediatelyAndOnSchedule(t *testing.T) {
	scanner := &countingScanner{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := worker.NewPollScheduler(scanner, time.Second, logging.Discard())
	assert.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return scanner.calls.Load() >= 1 }, time.Second, 10*time.Millisecond, "initial scan")
	assert.Eventually(t, func() bool { return scanner.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond, "scheduled scan")
}

func TestPollScheduler_StopsWithContext(t *testing.T) {
	scanner := &countingScanner{}
	ctx, cancel := context.WithCancel(context.Background())

	s := worker.NewPollScheduler(scanner, time.Second, logging.Discard())
	assert.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return scanner.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(100 * time.Millisecond)
	after := scanner.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, scanner.calls.Load())
}

type blockingScanner struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingScanner) RunScan(context.Context) (usecase.ScanResult, error) {
	close(s.started)
	<-s.release
	return usecase.ScanResult{}, nil
}

func TestPollScheduler_StopWaitsForStartupScan(t *testing.T) {
	scanner := &blockingScanner{started: make(chan struct{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := worker.NewPollScheduler(scanner, time.Hour, logging.Discard())
	assert.NoError(t, s.Start(ctx))

	select {
	case <-scanner.started:
	case <-time.After(time.Second):
		t.Fatal("startup scan did not run")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the startup scan was running")
	case <-time.After(100 * time.Millisecond):
	}

	close(scanner.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the scan finished")
	}
}

func TestPollScheduler_RecoversFromPanics(t *testing.T) {
	scanner := &panickingScanner{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := worker.NewPollScheduler(scanner, time.Second, logging.Discard())
	assert.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return scanner.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}
