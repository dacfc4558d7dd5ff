// Package scheduler drives the recurring reminder loop: every tick it
// reopens windows for a new month, checks the local notification hour,
// and dispatches due reminders at most once per user, kind and day.
package scheduler

import (
	"context"
	"log"
	"time"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/storage"
	"todobot/internal/telemetry"
)

// Notifier delivers one reminder to one user. Returning an error leaves
// the reminder unmarked so a later tick retries it.
type Notifier interface {
	Send(ctx context.Context, chat model.ChatID, cfg reminder.Config, today time.Time) error
}

type Options struct {
	// Interval between ticks. Zero means 15 minutes.
	Interval time.Duration
	// Notifications go out when the local hour is in [FromHour, UntilHour).
	FromHour  int
	UntilHour int
	// Location is the reference timezone for all calendar decisions.
	Location *time.Location
	Logger   *log.Logger
	Clock    Clock
	Events   telemetry.Repository
}

type Scheduler struct {
	store    storage.Store
	notifier Notifier
	opts     Options
}

func New(store storage.Store, notifier Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Events == nil {
		opts.Events = telemetry.NopRepository{}
	}
	return &Scheduler{store: store, notifier: notifier, opts: opts}
}

// Run ticks until ctx is done. The first tick happens immediately.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick is one full pass: monthly reset first, then dispatch if the
// local hour allows. Exported so tests can drive passes directly.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.opts.Clock.Now().In(s.opts.Location)

	if err := s.store.ResetMonthly(ctx, now.Format(reminder.MonthLayout)); err != nil {
		s.opts.Logger.Printf("scheduler: monthly reset: %v", err)
	}

	if hour := now.Hour(); hour < s.opts.FromHour || hour >= s.opts.UntilHour {
		return
	}
	s.sendDue(ctx, now)
}

func (s *Scheduler) sendDue(ctx context.Context, now time.Time) {
	for chat, set := range s.store.AllReminders(ctx) {
		if !set.GlobalEnabled {
			continue
		}
		for _, cfg := range set.Reminders {
			if !cfg.ShouldRemindToday(now) || cfg.SentToday(now) {
				continue
			}
			if err := s.notifier.Send(ctx, chat, cfg, now); err != nil {
				s.opts.Logger.Printf("scheduler: send to %s failed: %v", chat, err)
				_ = s.opts.Events.RecordEvent(telemetry.EventDispatchFailed, telemetry.EventMetadata{
					"chat_id":      chat.String(),
					"counter_type": string(cfg.Kind),
					"error":        err.Error(),
				})
				continue
			}
			s.markSent(ctx, chat, cfg.Kind, now)
		}
	}
}

// markSent records the notification against a fresh snapshot of the
// user's config, so concurrent edits between load and send are kept.
func (s *Scheduler) markSent(ctx context.Context, chat model.ChatID, kind reminder.Kind, now time.Time) {
	set := s.store.UserReminders(ctx, chat)
	cfg, ok := set.Get(kind)
	if !ok {
		return
	}
	cfg.MarkSent(now)
	if err := s.store.PutReminder(ctx, chat, cfg); err != nil {
		s.opts.Logger.Printf("scheduler: record send for %s: %v", chat, err)
		return
	}
	_ = s.opts.Events.RecordEvent(telemetry.EventReminderSent, telemetry.EventMetadata{
		"chat_id":      chat.String(),
		"counter_type": string(kind),
		"phase":        string(cfg.PhaseOn(now)),
	})
}
