package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/storage"
)

type sent struct {
	chat model.ChatID
	kind reminder.Kind
	day  int
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, chat model.ChatID, cfg reminder.Config, today time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sent{chat: chat, kind: cfg.Kind, day: today.Day()})
	return nil
}

func (n *fakeNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sent, len(n.sent))
	copy(out, n.sent)
	return out
}

const chat = model.ChatID(7)

// at builds a timestamp inside the default notification window.
func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 30, 0, 0, time.UTC)
}

func newScheduler(store storage.Store, notifier Notifier, clock Clock) *Scheduler {
	return New(store, notifier, Options{
		FromHour:  19,
		UntilHour: 22,
		Location:  time.UTC,
		Clock:     clock,
	})
}

func TestTick_SendsDueReminder(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	notifier := &fakeNotifier{}
	s := newScheduler(store, notifier, NewFakeClock(at(16, 20)))

	s.Tick(ctx)

	require.Len(t, notifier.all(), 1)
	assert.Equal(t, sent{chat: chat, kind: reminder.KindWater, day: 16}, notifier.all()[0])

	set := store.UserReminders(ctx, chat)
	cfg, ok := set.Get(reminder.KindWater)
	require.True(t, ok)
	assert.Equal(t, "2024-03", cfg.LastSentMonth)
	assert.Equal(t, "2024-03-16", cfg.LastSentDate)
}

func TestTick_OutsideNotificationHours(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	notifier := &fakeNotifier{}
	clock := NewFakeClock(at(16, 10))
	s := newScheduler(store, notifier, clock)

	s.Tick(ctx)
	assert.Empty(t, notifier.all())

	// Upper bound is exclusive.
	clock.Set(at(16, 22))
	s.Tick(ctx)
	assert.Empty(t, notifier.all())

	clock.Set(at(16, 21))
	s.Tick(ctx)
	assert.Len(t, notifier.all(), 1)
}

func TestTick_SameDayDedupe(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	notifier := &fakeNotifier{}
	clock := NewFakeClock(at(16, 19))
	s := newScheduler(store, notifier, clock)

	s.Tick(ctx)
	clock.Advance(15 * time.Minute)
	s.Tick(ctx)
	clock.Advance(15 * time.Minute)
	s.Tick(ctx)

	assert.Len(t, notifier.all(), 1)

	// The next reminder day in the window sends again.
	clock.Set(at(20, 19))
	s.Tick(ctx)
	assert.Len(t, notifier.all(), 2)
}

func TestTick_GlobalDisabledSkipsUser(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))
	_, err := store.ToggleGlobalReminders(ctx, chat)
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	s := newScheduler(store, notifier, NewFakeClock(at(16, 20)))

	s.Tick(ctx)
	assert.Empty(t, notifier.all())
}

func TestTick_DispatchFailureRetriesNextTick(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	notifier := &fakeNotifier{err: errors.New("transport down")}
	clock := NewFakeClock(at(16, 19))
	s := newScheduler(store, notifier, clock)

	s.Tick(ctx)
	assert.Empty(t, notifier.all())

	set := store.UserReminders(ctx, chat)
	cfg, _ := set.Get(reminder.KindWater)
	assert.Empty(t, cfg.LastSentDate)

	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()

	clock.Advance(15 * time.Minute)
	s.Tick(ctx)
	assert.Len(t, notifier.all(), 1)
}

func TestTick_MonthlyRolloverReopensWindow(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	cfg := reminder.NewConfig(reminder.KindWater, 1, 10)
	cfg.LastSentMonth = "2024-02"
	cfg.CompletedThisMonth = true
	require.NoError(t, store.PutReminder(ctx, chat, cfg))

	notifier := &fakeNotifier{}
	s := newScheduler(store, notifier, NewFakeClock(at(1, 20)))

	s.Tick(ctx)

	require.Len(t, notifier.all(), 1)
	set := store.UserReminders(ctx, chat)
	got, _ := set.Get(reminder.KindWater)
	assert.False(t, got.CompletedThisMonth)
	assert.Equal(t, "2024-03", got.LastSentMonth)
}

func TestTick_CompletedThisMonthStaysQuiet(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	cfg := reminder.NewConfig(reminder.KindWater, 16, 25)
	cfg.LastSentMonth = "2024-03"
	cfg.CompletedThisMonth = true
	require.NoError(t, store.PutReminder(ctx, chat, cfg))

	notifier := &fakeNotifier{}
	s := newScheduler(store, notifier, NewFakeClock(at(16, 20)))

	s.Tick(ctx)
	assert.Empty(t, notifier.all())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &fakeNotifier{}
	s := New(store, notifier, Options{
		Interval: time.Millisecond,
		FromHour: 19, UntilHour: 22,
		Location: time.UTC,
		Clock:    NewFakeClock(at(1, 10)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
