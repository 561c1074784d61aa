package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type Scanner interface {
	RunScan(ctx context.Context) (usecase.ScanResult, error)
}

// PollScheduler runs a queue scan every interval. Overlapping ticks are
// dropped by the scan guard inside RunScan, not queued.
type PollScheduler struct {
	cron     *cron.Cron
	scanner  Scanner
	interval time.Duration
	log      logrus.FieldLogger

	initial sync.WaitGroup // the scan Start runs outside cron
}

func NewPollScheduler(scanner Scanner, interval time.Duration, log logrus.FieldLogger) *PollScheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &PollScheduler{
		cron:     cron.New(cron.WithLogger(cronLogger{log})),
		scanner:  scanner,
		interval: interval,
		log:      log,
	}
}

// Start schedules the scan and runs one immediately. It returns at once;
// the scheduler stops when ctx is done.
func (s *PollScheduler) Start(ctx context.Context) error {
	job := cron.NewChain(cron.Recover(cronLogger{s.log})).Then(cron.FuncJob(func() { s.tick(ctx) }))

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule poll %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.WithField("interval", s.interval.String()).Info("poll scheduler started")

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		job.Run()
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running scan to finish.
func (s *PollScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.log.Info("poll scheduler stopped")
}

func (s *PollScheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.scanner.RunScan(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled scan failed")
		return
	}
	if res.Skipped {
		s.log.Debug("scheduled scan skipped, previous scan still running")
		return
	}
	if res.Total > 0 {
		s.log.WithFields(logrus.Fields{
			"run_id":     res.RunID,
			"processed":  res.Processed,
			"unassigned": res.Unassigned,
			"errors":     res.Errors,
		}).Info("scheduled scan finished")
	}
}

type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(kv(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithError(err).WithFields(kv(keysAndValues)).Error(msg)
}

func kv(keysAndValues []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
