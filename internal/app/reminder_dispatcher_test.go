package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"interval_reminder_bot/internal/domain/reminder"
	"interval_reminder_bot/internal/infra/clock"
	"interval_reminder_bot/internal/infra/logger"
)

// memoryReminderRepository is a reminder.Repository kept in a map.
type memoryReminderRepository struct {
	mu    sync.Mutex
	items map[string]*reminder.Stored
}

func newMemoryReminderRepository(rs ...reminder.Reminder) *memoryReminderRepository {
	repo := &memoryReminderRepository{items: map[string]*reminder.Stored{}}
	for _, r := range rs {
		_ = repo.Schedule(context.Background(), r)
	}
	return repo
}

func (m *memoryReminderRepository) Schedule(_ context.Context, r reminder.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.ID] = &reminder.Stored{Reminder: r}
	return nil
}

func (m *memoryReminderRepository) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memoryReminderRepository) CancelAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]*reminder.Stored{}
	return nil
}

func (m *memoryReminderRepository) Supersede(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := map[string]*reminder.Stored{}
	for id, s := range m.items {
		if s.DeliveredAt != nil || s.FireAt.After(now) {
			continue
		}
		if !strings.Contains(id, "@") {
			id = reminder.RetiredID(id, s.FireAt)
			s.ID = id
		}
		kept[id] = s
	}
	m.items = kept
	return nil
}

func (m *memoryReminderRepository) ListDue(ctx context.Context, now time.Time) ([]*reminder.Stored, error) {
	all, _ := m.ListAll(ctx)
	var due []*reminder.Stored
	for _, s := range all {
		if s.DeliveredAt == nil && !s.FireAt.After(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

func (m *memoryReminderRepository) ListAll(_ context.Context) ([]*reminder.Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*reminder.Stored, 0, len(m.items))
	for _, s := range m.items {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out, nil
}

func (m *memoryReminderRepository) MarkDelivered(_ context.Context, id string, fireAt, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || !s.FireAt.Equal(fireAt) {
		s, ok = m.items[reminder.RetiredID(id, fireAt)]
	}
	if !ok || !s.FireAt.Equal(fireAt) || s.DeliveredAt != nil {
		return reminder.ErrReminderNotFound
	}
	s.DeliveredAt = &at
	return nil
}

func (m *memoryReminderRepository) delivered(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	return ok && s.DeliveredAt != nil
}

const ownerChatID int64 = 4242

func TestReminderDispatcher_ProcessDueReminders(t *testing.T) {
	ctx := context.Background()
	workEnd := reminder.Reminder{ID: reminder.IDWorkEnd, FireAt: t0.Add(25 * time.Minute), Kind: reminder.KindWorkEnd, Title: "LightPomo", Body: "Time for a break!"}
	breakEnd := reminder.Reminder{ID: reminder.IDBreakEnd, FireAt: t0.Add(30 * time.Minute), Kind: reminder.KindBreakEnd, Title: "LightPomo", Body: "Break is over, back to work!"}

	t.Run("delivers only due reminders", func(t *testing.T) {
		repo := newMemoryReminderRepository(workEnd, breakEnd)
		client := &fakeTelegramClient{}
		d := NewReminderDispatcherImpl(repo, client, clock.NewManual(t0.Add(26*time.Minute)), ownerChatID, logger.Discard())

		if err := d.ProcessDueReminders(ctx); err != nil {
			t.Fatalf("ProcessDueReminders failed: %v", err)
		}
		if len(client.sent) != 1 {
			t.Fatalf("sent %d messages, want 1", len(client.sent))
		}
		if got := client.sent[0]; got.chatID != ownerChatID || got.text != "LightPomo\nTime for a break!" || got.silent {
			t.Errorf("sent %+v, want audible work-end to the owner", got)
		}
		if !repo.delivered(reminder.IDWorkEnd) {
			t.Error("work-end not marked delivered")
		}
		if repo.delivered(reminder.IDBreakEnd) {
			t.Error("break-end marked delivered before its fire time")
		}
	})

	t.Run("delivered reminders are not sent twice", func(t *testing.T) {
		repo := newMemoryReminderRepository(workEnd)
		client := &fakeTelegramClient{}
		clk := clock.NewManual(t0.Add(26 * time.Minute))
		d := NewReminderDispatcherImpl(repo, client, clk, ownerChatID, logger.Discard())

		for i := 0; i < 3; i++ {
			if err := d.ProcessDueReminders(ctx); err != nil {
				t.Fatalf("ProcessDueReminders run %d failed: %v", i, err)
			}
			clk.Advance(10 * time.Second)
		}
		if len(client.sent) != 1 {
			t.Errorf("sent %d messages, want 1", len(client.sent))
		}
	})

	t.Run("heartbeats are silent and stale ones are skipped", func(t *testing.T) {
		fresh := reminder.Reminder{ID: reminder.HeartbeatID(2), FireAt: t0.Add(3 * time.Hour), Kind: reminder.KindHeartbeat, Body: "Timer still running...", Silent: true}
		stale := reminder.Reminder{ID: reminder.HeartbeatID(0), FireAt: t0.Add(time.Hour), Kind: reminder.KindHeartbeat, Body: "Timer still running...", Silent: true}
		repo := newMemoryReminderRepository(fresh, stale)
		client := &fakeTelegramClient{}
		d := NewReminderDispatcherImpl(repo, client, clock.NewManual(t0.Add(3*time.Hour+time.Minute)), ownerChatID, logger.Discard())

		if err := d.ProcessDueReminders(ctx); err != nil {
			t.Fatalf("ProcessDueReminders failed: %v", err)
		}
		if len(client.sent) != 1 || !client.sent[0].silent {
			t.Fatalf("sent %+v, want one silent heartbeat", client.sent)
		}
		if !repo.delivered(stale.ID) {
			t.Error("stale heartbeat left pending")
		}
	})

	t.Run("retired reminder is delivered once", func(t *testing.T) {
		repo := newMemoryReminderRepository(workEnd)
		_ = repo.Supersede(ctx, workEnd.FireAt)
		client := &fakeTelegramClient{}
		clk := clock.NewManual(t0.Add(26 * time.Minute))
		d := NewReminderDispatcherImpl(repo, client, clk, ownerChatID, logger.Discard())

		for i := 0; i < 2; i++ {
			if err := d.ProcessDueReminders(ctx); err != nil {
				t.Fatalf("ProcessDueReminders run %d failed: %v", i, err)
			}
		}
		if len(client.sent) != 1 || client.sent[0].text != "LightPomo\nTime for a break!" {
			t.Errorf("sent %+v, want the work-end once", client.sent)
		}
		if !repo.delivered(reminder.RetiredID(reminder.IDWorkEnd, workEnd.FireAt)) {
			t.Error("retired work-end not marked delivered")
		}
	})

	t.Run("failed send stays pending", func(t *testing.T) {
		repo := newMemoryReminderRepository(workEnd, breakEnd)
		client := &fakeTelegramClient{failTexts: map[string]bool{"Time for a break!": true}}
		d := NewReminderDispatcherImpl(repo, client, clock.NewManual(t0.Add(31*time.Minute)), ownerChatID, logger.Discard())

		if err := d.ProcessDueReminders(ctx); err == nil {
			t.Fatal("ProcessDueReminders succeeded with a failed send")
		}
		if repo.delivered(reminder.IDWorkEnd) {
			t.Error("undelivered reminder marked delivered")
		}
		if !repo.delivered(reminder.IDBreakEnd) {
			t.Error("later reminder not delivered after an earlier failure")
		}
	})
}
