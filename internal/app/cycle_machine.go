// internal/app/cycle_machine.go
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/domain/session"

	"github.com/sirupsen/logrus"
)

const defaultEffectTimeout = 15 * time.Second

// CycleMachine owns the work/break cycle. Remaining time is always derived
// from the absolute end instant and the clock, never from counted ticks.
//
// Methods ending in Locked expect machine.mu to be held.
type CycleMachine struct {
	mu           sync.Mutex
	state        session.State
	lastObserved time.Time

	clock         Clock
	anchor        *PersistentAnchor
	scheduler     *ReminderScheduler
	sink          reminder.Sink
	sound         SoundPlayer
	executor      Executor
	logger        *logrus.Entry
	effectTimeout time.Duration

	events []chan Event
}

func NewCycleMachine(
	clock Clock,
	anchor *PersistentAnchor,
	scheduler *ReminderScheduler,
	sink reminder.Sink,
	sound SoundPlayer,
	executor Executor,
	logger *logrus.Entry,
	initial session.Config,
) *CycleMachine {
	return &CycleMachine{
		state:         session.IdleState(initial),
		clock:         clock,
		anchor:        anchor,
		scheduler:     scheduler,
		sink:          sink,
		sound:         sound,
		executor:      executor,
		logger:        logger,
		effectTimeout: defaultEffectTimeout,
	}
}

// Subscribe registers a new observer channel. Events are dropped for an
// observer whose buffer is full.
func (m *CycleMachine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	m.mu.Lock()
	m.events = append(m.events, ch)
	m.mu.Unlock()
	return ch
}

// Close closes every observer channel.
func (m *CycleMachine) Close() {
	m.mu.Lock()
	events := m.events
	m.events = nil
	m.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Snapshot returns a copy of the current cycle state.
func (m *CycleMachine) Snapshot() session.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Start begins a work session. It is a no-op while a cycle is running.
func (m *CycleMachine) Start(cfg session.Config) (session.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.observeLocked(m.clock.Now())
	if m.state.Phase.Running() {
		m.logger.WithField("phase", m.state.Phase).Debug("Start ignored, cycle already running")
		return m.viewLocked(now, false), nil
	}
	if err := cfg.Validate(); err != nil {
		return m.viewLocked(now, false), err
	}

	m.enterWorkLocked(cfg, now)
	m.logger.WithFields(logrus.Fields{
		"work_minutes":  cfg.WorkMinutes,
		"break_minutes": cfg.BreakMinutes,
		"end_instant":   m.state.EndInstant.Format(time.RFC3339),
	}).Info("Cycle started")
	return m.viewLocked(now, false), nil
}

// Stop returns to Idle from any state, clears the anchor and cancels every reminder.
func (m *CycleMachine) Stop() session.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.observeLocked(m.clock.Now())
	previous := m.state.Phase
	m.state = session.IdleState(m.state.Config)

	m.submitLocked("clear anchor", func(ctx context.Context) {
		if err := m.anchor.Clear(ctx); err != nil {
			m.logger.WithError(err).Error("Failed to clear session anchor")
		}
	})
	m.submitLocked("cancel reminders", func(ctx context.Context) {
		if err := m.sink.CancelAll(ctx); err != nil {
			m.logger.WithError(err).Error("Failed to cancel pending reminders")
		}
	})

	if previous.Running() {
		m.logger.WithField("previous_phase", previous).Info("Cycle stopped")
		m.emitLocked(Event{Type: EventStopped, Phase: session.PhaseIdle, Config: m.state.Config, At: now})
	}
	return m.viewLocked(now, false)
}

// Tick derives the display state at now. When the current phase has ended it
// performs exactly one expire transition into the next phase.
func (m *CycleMachine) Tick(now time.Time) session.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickLocked(m.observeLocked(now))
}

// Resync is Tick under the name used for foreground and resume events.
func (m *CycleMachine) Resync(now time.Time) session.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := m.tickLocked(m.observeLocked(now))
	m.logger.WithFields(logrus.Fields{
		"phase":        view.Phase,
		"remaining":    view.Remaining.String(),
		"transitioned": view.Transitioned,
		"ended":        view.Ended,
	}).Debug("Resynced cycle state")
	return view
}

// Recover seeds the machine from the persisted anchor after a cold start and
// folds in any expiry that happened while the process was gone. When the
// anchor cannot be read the machine stays Idle and the error is returned.
func (m *CycleMachine) Recover(ctx context.Context, now time.Time) (session.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now = m.observeLocked(now)
	if m.state.Phase.Running() {
		return m.tickLocked(now), nil
	}

	rec, ok, err := m.anchor.Read(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Could not read session anchor, starting Idle")
		return m.viewLocked(now, false), err
	}
	if !ok {
		m.logger.Debug("No persisted session, starting Idle")
		return m.viewLocked(now, false), nil
	}
	if err := rec.Validate(); err != nil {
		m.logger.WithError(err).Warn("Discarding invalid session anchor")
		m.submitLocked("clear anchor", func(ctx context.Context) {
			if err := m.anchor.Clear(ctx); err != nil {
				m.logger.WithError(err).Error("Failed to clear invalid session anchor")
			}
		})
		return m.viewLocked(now, false), nil
	}

	m.state = rec.State()
	m.logger.WithFields(logrus.Fields{
		"phase":       rec.Phase,
		"end_instant": rec.EndInstant.Format(time.RFC3339),
	}).Info("Recovered session from anchor")
	m.emitLocked(Event{
		Type:       EventRecovered,
		Phase:      rec.Phase,
		EndInstant: rec.EndInstant,
		Remaining:  m.state.Remaining(now),
		Config:     rec.Config,
		At:         now,
	})
	return m.tickLocked(now), nil
}

// observeLocked guards against the clock moving backwards: an instant earlier
// than one already seen is replaced by the latest seen instant.
func (m *CycleMachine) observeLocked(now time.Time) time.Time {
	if !m.lastObserved.IsZero() && now.Before(m.lastObserved) {
		m.logger.WithFields(logrus.Fields{
			"now":           now.Format(time.RFC3339Nano),
			"last_observed": m.lastObserved.Format(time.RFC3339Nano),
		}).Debug("Clock moved backwards, holding last observed instant")
		return m.lastObserved
	}
	m.lastObserved = now
	return now
}

func (m *CycleMachine) tickLocked(now time.Time) session.View {
	if !m.state.Phase.Running() {
		return session.View{Phase: session.PhaseIdle}
	}
	if m.state.Remaining(now) > 0 {
		return m.viewLocked(now, false)
	}
	ended := m.state.Phase
	m.expireLocked(now)
	view := m.viewLocked(now, true)
	view.Ended = ended
	return view
}

// expireLocked moves to the next phase only. A gap spanning several phases is
// caught up one phase per call.
func (m *CycleMachine) expireLocked(now time.Time) {
	cfg := m.state.Config
	switch m.state.Phase {
	case session.PhaseWork:
		m.playLocked(WorkEndCue)

		// The break starts when work ended, not when the expiry was noticed.
		breakEnd := m.state.EndInstant.Add(cfg.BreakDuration())
		if breakEnd.Before(now) {
			breakEnd = now
		}
		m.state = session.State{Phase: session.PhaseBreak, EndInstant: &breakEnd, Config: cfg}
		m.persistLocked()

		cycleAnchor := breakEnd.Add(-cfg.BreakDuration() - cfg.WorkDuration())
		m.scheduleLocked(cfg, cycleAnchor, now)

		m.logger.WithField("end_instant", breakEnd.Format(time.RFC3339)).Info("Work session ended, break started")
		m.emitLocked(Event{
			Type:       EventBreakStarted,
			Phase:      session.PhaseBreak,
			EndInstant: breakEnd,
			Remaining:  breakEnd.Sub(now),
			Config:     cfg,
			At:         now,
		})

	case session.PhaseBreak:
		m.playLocked(BreakEndCue)
		// Work restarts from the moment the break end is observed.
		m.enterWorkLocked(cfg, now)
		m.logger.WithField("end_instant", m.state.EndInstant.Format(time.RFC3339)).Info("Break ended, work session started")
	}
}

func (m *CycleMachine) enterWorkLocked(cfg session.Config, now time.Time) {
	end := now.Add(cfg.WorkDuration())
	m.state = session.State{Phase: session.PhaseWork, EndInstant: &end, Config: cfg}
	m.persistLocked()
	m.scheduleLocked(cfg, now, now)
	m.emitLocked(Event{
		Type:       EventWorkStarted,
		Phase:      session.PhaseWork,
		EndInstant: end,
		Remaining:  cfg.WorkDuration(),
		Config:     cfg,
		At:         now,
	})
}

func (m *CycleMachine) persistLocked() {
	rec := session.AnchorRecord{Phase: m.state.Phase, EndInstant: *m.state.EndInstant, Config: m.state.Config}
	m.submitLocked("persist anchor", func(ctx context.Context) {
		if err := m.anchor.Write(ctx, rec); err != nil {
			// In-memory state stays authoritative for this process.
			m.logger.WithError(err).WithField("phase", rec.Phase).Error("Failed to persist session anchor")
		}
	})
}

// scheduleLocked plans against observed, the instant the machine acted on,
// not the clock reading when the queued effect eventually runs.
func (m *CycleMachine) scheduleLocked(cfg session.Config, cycleAnchor, observed time.Time) {
	m.submitLocked("schedule reminders", func(ctx context.Context) {
		_, err := m.scheduler.ScheduleCycle(ctx, cfg, cycleAnchor, observed)
		if err == nil {
			return
		}
		if errors.Is(err, reminder.ErrSchedulingPartialFailure) {
			m.logger.WithError(err).Warn("Reminder plan partially scheduled")
			return
		}
		m.logger.WithError(err).Error("Failed to schedule reminders")
	})
}

func (m *CycleMachine) playLocked(cue Cue) {
	if m.sound == nil {
		return
	}
	m.executor.Execute(func() { m.sound.Play(cue) })
}

func (m *CycleMachine) submitLocked(name string, effect func(ctx context.Context)) {
	timeout := m.effectTimeout
	logger := m.logger
	m.executor.Execute(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		logger.WithField("effect", name).Trace("Running side effect")
		effect(ctx)
	})
}

func (m *CycleMachine) viewLocked(now time.Time, transitioned bool) session.View {
	return session.View{
		Phase:        m.state.Phase,
		Remaining:    m.state.Remaining(now),
		Transitioned: transitioned,
	}
}

func (m *CycleMachine) emitLocked(event Event) {
	for _, ch := range m.events {
		select {
		case ch <- event:
		default:
		}
	}
}
