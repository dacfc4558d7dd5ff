package app

import (
	"context"
	"log"

	"todobot/internal/bot"
	"todobot/internal/model"
)

// LogResponder is the development transport: every reply is written to
// the log instead of a chat platform.
type LogResponder struct {
	Logger *log.Logger
}

func (r LogResponder) Reply(_ context.Context, chat model.ChatID, reply bot.Reply) error {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	switch reply.Kind {
	case bot.ReplyReminderDue:
		logger.Printf("reply to %s: %s counter=%s window=%d-%d phase=%s",
			chat, reply.Kind, reply.Cfg.Kind, reply.Cfg.StartDay, reply.Cfg.EndDay, reply.Phase)
	case bot.ReplyValidationFailure, bot.ReplyStorageFailure:
		logger.Printf("reply to %s: %s err=%v", chat, reply.Kind, reply.Err)
	default:
		logger.Printf("reply to %s: %s %q", chat, reply.Kind, reply.Text)
	}
	return nil
}
