// Package bot interprets inbound chat events against each user's
// conversation state and applies them to storage. It owns the state
// transitions and validation; rendering and transport live elsewhere.
package bot

import (
	"context"
	"log"
	"strconv"
	"strings"

	"todobot/internal/dialog"
	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/storage"
	"todobot/internal/telemetry"
	"todobot/internal/validate"
)

// Command is an explicit slash command. Receiving any command resets
// the user's conversation state before the command runs.
type Command string

const (
	CmdStart     Command = "start"
	CmdHelp      Command = "help"
	CmdAdd       Command = "add"
	CmdAddList   Command = "addlist"
	CmdList      Command = "list"
	CmdDone      Command = "done"
	CmdRemove    Command = "remove"
	CmdClear     Command = "clear"
	CmdReminders Command = "reminders"
)

// Action is a structured menu event from the transport (a button press
// rather than free text).
type Action string

const (
	ActionSetupWater       Action = "setup_water"
	ActionSetupElectricity Action = "setup_electricity"
	ActionToggleReminders  Action = "toggle_reminders"
)

type Handler struct {
	store  storage.Store
	states *dialog.Store
	resp   Responder
	logger *log.Logger
	events telemetry.Repository
}

func NewHandler(store storage.Store, states *dialog.Store, resp Responder, logger *log.Logger, events telemetry.Repository) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if events == nil {
		events = telemetry.NopRepository{}
	}
	return &Handler{store: store, states: states, resp: resp, logger: logger, events: events}
}

func (h *Handler) reply(ctx context.Context, chat model.ChatID, r Reply) error {
	return h.resp.Reply(ctx, chat, r)
}

func (h *Handler) invalid(ctx context.Context, chat model.ChatID, err error) error {
	return h.reply(ctx, chat, Reply{Kind: ReplyValidationFailure, Err: err})
}

func (h *Handler) storageFailure(ctx context.Context, chat model.ChatID, op string, err error) error {
	h.logger.Printf("bot: %s for %s: %v", op, chat, err)
	return h.reply(ctx, chat, Reply{Kind: ReplyStorageFailure, Err: err})
}

// HandleCommand runs an explicit command. The conversation state is
// reset first, so a command always escapes a pending prompt.
func (h *Handler) HandleCommand(ctx context.Context, chat model.ChatID, cmd Command) error {
	if err := validate.ChatID(int64(chat)); err != nil {
		return h.invalid(ctx, chat, err)
	}
	h.states.Reset(chat)

	switch cmd {
	case CmdStart:
		return h.reply(ctx, chat, Reply{Kind: ReplyWelcome})
	case CmdHelp:
		return h.reply(ctx, chat, Reply{Kind: ReplyHelp})
	case CmdAdd:
		h.states.Set(chat, dialog.Slot{State: dialog.StateAwaitingTaskText})
		return h.reply(ctx, chat, Reply{Kind: ReplyPromptTask})
	case CmdAddList:
		h.states.Set(chat, dialog.Slot{State: dialog.StateAwaitingTaskList})
		return h.reply(ctx, chat, Reply{Kind: ReplyPromptTaskList})
	case CmdList:
		items := h.store.Tasks(ctx, chat)
		return h.reply(ctx, chat, Reply{Kind: ReplyTaskList, Items: items})
	case CmdDone:
		return h.promptIndex(ctx, chat, dialog.StateAwaitingDoneIndex)
	case CmdRemove:
		return h.promptIndex(ctx, chat, dialog.StateAwaitingRemoveIndex)
	case CmdClear:
		if err := h.store.ClearTasks(ctx, chat); err != nil {
			return h.storageFailure(ctx, chat, "clear tasks", err)
		}
		_ = h.events.RecordEvent(telemetry.EventTasksCleared, telemetry.EventMetadata{"chat_id": chat.String()})
		return h.reply(ctx, chat, Reply{Kind: ReplyTasksCleared})
	case CmdReminders:
		set := h.store.UserReminders(ctx, chat)
		return h.reply(ctx, chat, Reply{Kind: ReplyReminderOverview, Set: set})
	}
	return h.reply(ctx, chat, Reply{Kind: ReplyUnknownCommand, Text: string(cmd)})
}

// promptIndex enters an index-awaiting state only when there is a list
// to index into; otherwise the user just sees their (empty) list.
func (h *Handler) promptIndex(ctx context.Context, chat model.ChatID, state dialog.State) error {
	items := h.store.Tasks(ctx, chat)
	if len(items) == 0 {
		return h.invalid(ctx, chat, validate.ErrNoTasks)
	}
	h.states.Set(chat, dialog.Slot{State: state})
	return h.reply(ctx, chat, Reply{Kind: ReplyPromptIndex, Items: items})
}

// HandleText interprets free text according to the user's current
// conversation state.
func (h *Handler) HandleText(ctx context.Context, chat model.ChatID, text string) error {
	if err := validate.ChatID(int64(chat)); err != nil {
		return h.invalid(ctx, chat, err)
	}
	if err := validate.Message(text); err != nil {
		return h.invalid(ctx, chat, err)
	}

	slot := h.states.Get(chat)
	switch slot.State {
	case dialog.StateAwaitingTaskText:
		return h.addTask(ctx, chat, text)
	case dialog.StateAwaitingTaskList:
		return h.addTaskList(ctx, chat, text)
	case dialog.StateAwaitingDoneIndex:
		return h.completeByIndex(ctx, chat, text)
	case dialog.StateAwaitingRemoveIndex:
		return h.removeByIndex(ctx, chat, text)
	case dialog.StateAwaitingPeriod:
		return h.configurePeriod(ctx, chat, slot.Kind, text)
	}
	// Default state: treat plain text as a single task to add.
	return h.addTask(ctx, chat, text)
}

func (h *Handler) addTask(ctx context.Context, chat model.ChatID, text string) error {
	text = validate.SanitizeTaskText(text)
	if err := validate.TaskText(text); err != nil {
		return h.invalid(ctx, chat, err)
	}
	item, err := h.store.AddTask(ctx, chat, text)
	if err != nil {
		return h.storageFailure(ctx, chat, "add task", err)
	}
	h.states.Reset(chat)
	_ = h.events.RecordEvent(telemetry.EventTaskAdded, telemetry.EventMetadata{"chat_id": chat.String()})
	return h.reply(ctx, chat, Reply{Kind: ReplyTaskAdded, Text: item.Text})
}

func (h *Handler) addTaskList(ctx context.Context, chat model.ChatID, text string) error {
	tasks := validate.ParseTaskList(text)
	if len(tasks) == 0 {
		return h.invalid(ctx, chat, validate.ErrEmptyText)
	}
	var added []string
	for _, t := range tasks {
		t = validate.SanitizeTaskText(t)
		if validate.TaskText(t) != nil {
			continue
		}
		item, err := h.store.AddTask(ctx, chat, t)
		if err != nil {
			return h.storageFailure(ctx, chat, "add task", err)
		}
		added = append(added, item.Text)
		_ = h.events.RecordEvent(telemetry.EventTaskAdded, telemetry.EventMetadata{"chat_id": chat.String()})
	}
	if len(added) == 0 {
		return h.invalid(ctx, chat, validate.ErrEmptyText)
	}
	h.states.Reset(chat)
	return h.reply(ctx, chat, Reply{Kind: ReplyTasksAdded, Texts: added, Count: len(added)})
}

// parseIndex converts the user's 1-based answer to a 0-based position.
func parseIndex(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, validate.ErrIndexOutOfRange
	}
	return n - 1, nil
}

func (h *Handler) completeByIndex(ctx context.Context, chat model.ChatID, text string) error {
	index, err := parseIndex(text)
	if err != nil {
		return h.invalid(ctx, chat, err)
	}
	done, err := h.store.CompleteTask(ctx, chat, index)
	switch {
	case err == storage.ErrNoTasks, err == storage.ErrTaskNotFound:
		return h.invalid(ctx, chat, err)
	case err != nil:
		return h.storageFailure(ctx, chat, "complete task", err)
	}
	h.states.Reset(chat)
	_ = h.events.RecordEvent(telemetry.EventTaskCompleted, telemetry.EventMetadata{"chat_id": chat.String()})
	return h.reply(ctx, chat, Reply{Kind: ReplyTaskDone, Text: done})
}

func (h *Handler) removeByIndex(ctx context.Context, chat model.ChatID, text string) error {
	index, err := parseIndex(text)
	if err != nil {
		return h.invalid(ctx, chat, err)
	}
	removed, err := h.store.RemoveTask(ctx, chat, index)
	switch {
	case err == storage.ErrNoTasks, err == storage.ErrTaskNotFound:
		return h.invalid(ctx, chat, err)
	case err != nil:
		return h.storageFailure(ctx, chat, "remove task", err)
	}
	h.states.Reset(chat)
	_ = h.events.RecordEvent(telemetry.EventTaskRemoved, telemetry.EventMetadata{"chat_id": chat.String()})
	return h.reply(ctx, chat, Reply{Kind: ReplyTaskRemoved, Text: removed})
}

func (h *Handler) configurePeriod(ctx context.Context, chat model.ChatID, kind reminder.Kind, text string) error {
	startDay, endDay, err := validate.ParsePeriod(text)
	if err != nil {
		return h.invalid(ctx, chat, err)
	}
	cfg := reminder.NewConfig(kind, startDay, endDay)
	if err := h.store.PutReminder(ctx, chat, cfg); err != nil {
		return h.storageFailure(ctx, chat, "save reminder", err)
	}
	h.states.Reset(chat)
	_ = h.events.RecordEvent(telemetry.EventReminderConfigured, telemetry.EventMetadata{
		"chat_id":      chat.String(),
		"counter_type": string(kind),
	})
	return h.reply(ctx, chat, Reply{Kind: ReplyReminderSaved, Cfg: cfg})
}

// HandleAction runs a structured menu event.
func (h *Handler) HandleAction(ctx context.Context, chat model.ChatID, action Action) error {
	if err := validate.ChatID(int64(chat)); err != nil {
		return h.invalid(ctx, chat, err)
	}

	switch action {
	case ActionSetupWater:
		h.states.Set(chat, dialog.Slot{State: dialog.StateAwaitingPeriod, Kind: reminder.KindWater})
		return h.reply(ctx, chat, Reply{Kind: ReplyPromptPeriod, Cfg: reminder.Config{Kind: reminder.KindWater}})
	case ActionSetupElectricity:
		h.states.Set(chat, dialog.Slot{State: dialog.StateAwaitingPeriod, Kind: reminder.KindElectricity})
		return h.reply(ctx, chat, Reply{Kind: ReplyPromptPeriod, Cfg: reminder.Config{Kind: reminder.KindElectricity}})
	case ActionToggleReminders:
		state, err := h.store.ToggleGlobalReminders(ctx, chat)
		if err != nil {
			return h.storageFailure(ctx, chat, "toggle reminders", err)
		}
		return h.reply(ctx, chat, Reply{Kind: ReplyRemindersToggled, On: state})
	}
	return h.reply(ctx, chat, Reply{Kind: ReplyUnknownCommand, Text: string(action)})
}

// HandleAck processes the user's answer to a reminder notification.
// Acknowledging closes the counter for the month; declining leaves the
// reminder schedule untouched.
func (h *Handler) HandleAck(ctx context.Context, chat model.ChatID, kind reminder.Kind, acknowledged bool) error {
	if err := validate.ChatID(int64(chat)); err != nil {
		return h.invalid(ctx, chat, err)
	}
	if !acknowledged {
		return h.reply(ctx, chat, Reply{Kind: ReplyReadingPostponed, Cfg: reminder.Config{Kind: kind}})
	}
	if err := h.store.MarkCounterCompleted(ctx, chat, kind); err != nil {
		return h.storageFailure(ctx, chat, "mark counter completed", err)
	}
	_ = h.events.RecordEvent(telemetry.EventReminderAcked, telemetry.EventMetadata{
		"chat_id":      chat.String(),
		"counter_type": string(kind),
	})
	return h.reply(ctx, chat, Reply{Kind: ReplyReadingAcked, Cfg: reminder.Config{Kind: kind}})
}
