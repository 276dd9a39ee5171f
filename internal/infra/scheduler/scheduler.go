package scheduler

import (
	"context"
	"fmt"
	"time"

	"interval_reminder_bot/internal/app" // For ReminderDispatcher interface
	"interval_reminder_bot/internal/domain/session"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleTicker is the part of the cycle machine driven by the tick job.
type CycleTicker interface {
	Tick(now time.Time) session.View
}

type CycleScheduler struct {
	cronEngine       *cron.Cron
	machine          CycleTicker
	dispatcher       app.ReminderDispatcher // Using the interface
	clock            app.Clock
	logger           *logrus.Entry
	cronSpecTick     string // e.g., "@every 1s"
	cronSpecDispatch string // e.g., "@every 10s"
	dispatchTimeout  time.Duration
}

func NewCycleScheduler(
	machine CycleTicker,
	dispatcher app.ReminderDispatcher,
	clock app.Clock,
	logger *logrus.Entry,
	cronSpecTick string,
	cronSpecDispatch string,
) *CycleScheduler {
	cronLogger := cron.PrintfLogger(logger.WithField("subsystem", "cron"))
	return &CycleScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		machine:          machine,
		dispatcher:       dispatcher,
		clock:            clock,
		logger:           logger,
		cronSpecTick:     cronSpecTick,
		cronSpecDispatch: cronSpecDispatch,
		dispatchTimeout:  1 * time.Minute,
	}
}

func (s *CycleScheduler) Start() error {
	s.logger.Info("Starting cycle scheduler...")

	// Job that resyncs the countdown and performs phase transitions
	if _, err := s.cronEngine.AddFunc(s.cronSpecTick, s.runTick); err != nil {
		return fmt.Errorf("could not add tick cron job %q: %w", s.cronSpecTick, err)
	}

	// Job for delivering due reminders
	if _, err := s.cronEngine.AddFunc(s.cronSpecDispatch, s.runDispatch); err != nil {
		return fmt.Errorf("could not add dispatch cron job %q: %w", s.cronSpecDispatch, err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"tick_spec":     s.cronSpecTick,
		"dispatch_spec": s.cronSpecDispatch,
	}).Info("Cycle scheduler started with jobs.")
	return nil
}

func (s *CycleScheduler) runTick() {
	view := s.machine.Tick(s.clock.Now())
	if view.Transitioned {
		s.logger.WithFields(logrus.Fields{
			"phase":     view.Phase,
			"remaining": view.Remaining.String(),
		}).Info("Tick performed a phase transition")
	}
}

func (s *CycleScheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
	defer cancel()
	if err := s.dispatcher.ProcessDueReminders(ctx); err != nil {
		s.logger.WithError(err).Error("Error during reminder dispatch")
	}
}

func (s *CycleScheduler) Stop() {
	s.logger.Info("Stopping cycle scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Cycle scheduler gracefully stopped.")
}
