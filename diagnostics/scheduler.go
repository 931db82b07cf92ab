package diagnostics

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/notify"
)

// Runner produces a diagnostics report.
type Runner interface {
	Run(ctx context.Context) Report
}

/* Scheduler runs diagnostics on a cron schedule and reports unhealthy
 * results to the notifier. Runs never overlap.
 */
type Scheduler struct {
	c        *cron.Cron
	runner   Runner
	notifier notify.Notifier
	log      zerolog.Logger

	mu   sync.Mutex
	last Report
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@every 1h") and prepares the job. Call Start to begin.
func NewScheduler(spec string, runner Runner, notifier notify.Notifier, log zerolog.Logger) (*Scheduler, error) {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Scheduler{
		runner:   runner,
		notifier: notifier,
		log:      log,
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.c = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.c.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("parsing diagnostics schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

// RunOnce runs diagnostics immediately.
func (s *Scheduler) RunOnce() {
	report := s.runner.Run(context.Background())

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if report.IsHealthy() {
		s.log.Debug().Msg("scheduled diagnostics healthy")
		return
	}
	s.log.Warn().Strs("errors", report.Errors).Strs("warnings", report.Warnings).Msg("scheduled diagnostics unhealthy")
	notify.Safe(s.notifier, report.Summary())
}

// Last returns the most recent report.
func (s *Scheduler) Last() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
