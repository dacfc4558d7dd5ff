package bot

import (
	"context"
	"time"

	"todobot/internal/model"
	"todobot/internal/reminder"
)

// ReminderNotifier bridges the scheduler to the chat transport: a due
// reminder becomes a structured reply carrying the window bounds and
// the day's phase so the transport can phrase it.
type ReminderNotifier struct {
	resp Responder
}

func NewReminderNotifier(resp Responder) *ReminderNotifier {
	return &ReminderNotifier{resp: resp}
}

func (n *ReminderNotifier) Send(ctx context.Context, chat model.ChatID, cfg reminder.Config, today time.Time) error {
	return n.resp.Reply(ctx, chat, Reply{
		Kind:  ReplyReminderDue,
		Cfg:   cfg,
		Phase: cfg.PhaseOn(today),
	})
}
