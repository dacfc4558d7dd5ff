package bot

import (
	"context"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/todo"
)

// ReplyKind names the outcome of handling one inbound event. The
// handler never builds human-facing text; the Responder turns a Reply
// into whatever the transport shows the user.
type ReplyKind string

const (
	ReplyWelcome ReplyKind = "welcome"
	ReplyHelp    ReplyKind = "help"

	ReplyPromptTask     ReplyKind = "prompt_task"
	ReplyPromptTaskList ReplyKind = "prompt_task_list"
	ReplyPromptIndex    ReplyKind = "prompt_index"
	ReplyPromptPeriod   ReplyKind = "prompt_period"

	ReplyTaskAdded    ReplyKind = "task_added"
	ReplyTasksAdded   ReplyKind = "tasks_added"
	ReplyTaskList     ReplyKind = "task_list"
	ReplyTaskDone     ReplyKind = "task_done"
	ReplyTaskRemoved  ReplyKind = "task_removed"
	ReplyTasksCleared ReplyKind = "tasks_cleared"

	ReplyReminderSaved     ReplyKind = "reminder_saved"
	ReplyReminderDue       ReplyKind = "reminder_due"
	ReplyReminderOverview  ReplyKind = "reminder_overview"
	ReplyRemindersToggled  ReplyKind = "reminders_toggled"
	ReplyReadingAcked      ReplyKind = "reading_acked"
	ReplyReadingPostponed  ReplyKind = "reading_postponed"
	ReplyUnknownCommand    ReplyKind = "unknown_command"
	ReplyValidationFailure ReplyKind = "validation_failure"
	ReplyStorageFailure    ReplyKind = "storage_failure"
)

// Reply carries the structured outcome. Only the fields relevant to
// Kind are set.
type Reply struct {
	Kind  ReplyKind
	Text  string
	Texts []string
	Count int
	Items []todo.Item
	Set   reminder.UserSet
	Cfg   reminder.Config
	Phase reminder.Phase
	On    bool
	Err   error
}

// Responder delivers one reply to one user. Implemented by the chat
// transport adapter.
type Responder interface {
	Reply(ctx context.Context, chat model.ChatID, r Reply) error
}
