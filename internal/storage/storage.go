// Package storage persists per-user task lists and reminder
// configurations behind a single interface with interchangeable
// backends. Reads degrade to empty defaults on backend faults (logged
// and counted, never surfaced to the user); writes report failure.
package storage

import (
	"context"
	"errors"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/todo"
)

var (
	ErrNoTasks      = errors.New("user has no tasks")
	ErrTaskNotFound = errors.New("task not found")
)

// Store is the union of the task store and the reminder config store.
// Task indices are 0-based positions in the user's current list and
// must never be cached across calls.
type Store interface {
	AddTask(ctx context.Context, chat model.ChatID, text string) (todo.Item, error)
	Tasks(ctx context.Context, chat model.ChatID) []todo.Item
	CompleteTask(ctx context.Context, chat model.ChatID, index int) (string, error)
	RemoveTask(ctx context.Context, chat model.ChatID, index int) (string, error)
	ClearTasks(ctx context.Context, chat model.ChatID) error

	UserReminders(ctx context.Context, chat model.ChatID) reminder.UserSet
	SaveUserReminders(ctx context.Context, chat model.ChatID, set reminder.UserSet) error
	PutReminder(ctx context.Context, chat model.ChatID, cfg reminder.Config) error
	ToggleGlobalReminders(ctx context.Context, chat model.ChatID) (bool, error)
	MarkCounterCompleted(ctx context.Context, chat model.ChatID, kind reminder.Kind) error
	AllReminders(ctx context.Context) map[model.ChatID]reminder.UserSet
	ResetMonthly(ctx context.Context, currentMonth string) error

	Close() error
}
