package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/domain/session"
	"interval_reminder_bot/internal/infra/clock"
	"interval_reminder_bot/internal/infra/logger"
	"interval_reminder_bot/internal/infra/worker"

	"gopkg.in/telebot.v3"
)

var t0 = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

// memoryStateStore is a StateStore kept in a map. err, when set, fails every call.
type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{entries: map[string][]byte{}}
}

func (s *memoryStateStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, session.ErrStateNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memoryStateStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStateStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.entries, key)
	return nil
}

// recordingSink keeps the live reminders by id plus a history of every call.
type recordingSink struct {
	mu         sync.Mutex
	live       map[string]reminder.Reminder
	scheduled  []reminder.Reminder
	cancelAlls int
	supersedes int
	failIDs    map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{live: map[string]reminder.Reminder{}, failIDs: map[string]bool{}}
}

var errSinkRejected = errors.New("sink rejected reminder")

func (s *recordingSink) Schedule(_ context.Context, r reminder.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[r.ID] {
		return errSinkRejected
	}
	s.live[r.ID] = r
	s.scheduled = append(s.scheduled, r)
	return nil
}

func (s *recordingSink) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
	return nil
}

func (s *recordingSink) CancelAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = map[string]reminder.Reminder{}
	s.cancelAlls++
	return nil
}

// Supersede keeps reminders due at now under their retired id and drops the rest.
func (s *recordingSink) Supersede(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := map[string]reminder.Reminder{}
	for id, r := range s.live {
		if r.FireAt.After(now) {
			continue
		}
		if !strings.Contains(id, "@") {
			id = reminder.RetiredID(id, r.FireAt)
			r.ID = id
		}
		kept[id] = r
	}
	s.live = kept
	s.supersedes++
	return nil
}

func (s *recordingSink) liveReminder(id string) (reminder.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.live[id]
	return r, ok
}

func (s *recordingSink) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *recordingSink) cancelAllCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAlls
}

func (s *recordingSink) supersedeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supersedes
}

// pendingAfter lists live reminders firing after now.
func (s *recordingSink) pendingAfter(now time.Time) []reminder.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reminder.Reminder
	for _, r := range s.live {
		if r.FireAt.After(now) {
			out = append(out, r)
		}
	}
	return out
}

type recordingPlayer struct {
	mu   sync.Mutex
	cues []Cue
}

func (p *recordingPlayer) Play(cue Cue) {
	p.mu.Lock()
	p.cues = append(p.cues, cue)
	p.mu.Unlock()
}

func (p *recordingPlayer) played() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Cue(nil), p.cues...)
}

type staticAuthorizer bool

func (a staticAuthorizer) Check(context.Context) bool { return bool(a) }

// sentMessage is one message captured by fakeTelegramClient.
type sentMessage struct {
	chatID int64
	text   string
	silent bool
}

type fakeTelegramClient struct {
	mu           sync.Mutex
	sent         []sentMessage
	failTexts    map[string]bool
	reachableErr error
}

func (c *fakeTelegramClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.failTexts {
		if sub != "" && strings.Contains(text, sub) {
			return errors.New("telegram send failed")
		}
	}
	silent := options != nil && options.DisableNotification
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text, silent: silent})
	return nil
}

func (c *fakeTelegramClient) Reachable(int64) error {
	return c.reachableErr
}

// machineFixture wires a CycleMachine to in-memory collaborators with inline side effects.
type machineFixture struct {
	clock   *clock.Manual
	store   *memoryStateStore
	sink    *recordingSink
	player  *recordingPlayer
	anchor  *PersistentAnchor
	machine *CycleMachine
}

func newMachineFixture() *machineFixture {
	f := &machineFixture{
		clock:  clock.NewManual(t0),
		store:  newMemoryStateStore(),
		sink:   newRecordingSink(),
		player: &recordingPlayer{},
	}
	f.anchor = NewPersistentAnchor(f.store)
	f.machine = f.newMachine()
	return f
}

// newMachine builds another machine over the same store, sink and clock,
// the way a restarted process would.
func (f *machineFixture) newMachine() *CycleMachine {
	return f.newMachineWith(worker.Inline{})
}

func (f *machineFixture) newMachineWith(executor Executor) *CycleMachine {
	log := logger.Discard()
	scheduler := NewReminderScheduler(f.sink, DefaultReminderMessages(""), log)
	return NewCycleMachine(f.clock, f.anchor, scheduler, f.sink, f.player, executor, log, session.DefaultConfig())
}

// at moves the clock to t0+offset and returns that instant.
func (f *machineFixture) at(offset time.Duration) time.Time {
	now := t0.Add(offset)
	f.clock.Set(now)
	return now
}
