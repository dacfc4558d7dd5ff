package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todobot/internal/dialog"
	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/storage"
	"todobot/internal/validate"
)

const chat = model.ChatID(7)

type fakeResponder struct {
	mu      sync.Mutex
	replies []Reply
}

func (r *fakeResponder) Reply(_ context.Context, _ model.ChatID, reply Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *fakeResponder) last(t *testing.T) Reply {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.replies)
	return r.replies[len(r.replies)-1]
}

func newHandler() (*Handler, *storage.MemoryStore, *dialog.Store, *fakeResponder) {
	store := storage.NewMemoryStore()
	states := dialog.NewStore()
	resp := &fakeResponder{}
	return NewHandler(store, states, resp, nil, nil), store, states, resp
}

func TestAddTaskFlow(t *testing.T) {
	h, store, states, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleCommand(ctx, chat, CmdAdd))
	assert.Equal(t, ReplyPromptTask, resp.last(t).Kind)
	assert.Equal(t, dialog.StateAwaitingTaskText, states.Get(chat).State)

	require.NoError(t, h.HandleText(ctx, chat, "buy milk"))
	assert.Equal(t, ReplyTaskAdded, resp.last(t).Kind)
	assert.Equal(t, "buy milk", resp.last(t).Text)
	assert.Equal(t, dialog.StateDefault, states.Get(chat).State)

	list := store.Tasks(ctx, chat)
	require.Len(t, list, 1)
	assert.Equal(t, "buy milk", list[0].Text)
}

func TestPlainTextAddsTask(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleText(ctx, chat, "walk the dog"))
	assert.Equal(t, ReplyTaskAdded, resp.last(t).Kind)
	assert.Len(t, store.Tasks(ctx, chat), 1)
}

func TestAddTaskListFlow(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleCommand(ctx, chat, CmdAddList))
	require.NoError(t, h.HandleText(ctx, chat, "1. buy milk\n2. call mom\n- fix bike"))

	reply := resp.last(t)
	assert.Equal(t, ReplyTasksAdded, reply.Kind)
	assert.Equal(t, 3, reply.Count)
	assert.Equal(t, []string{"buy milk", "call mom", "fix bike"}, reply.Texts)
	assert.Len(t, store.Tasks(ctx, chat), 3)
}

func TestDoneFlow(t *testing.T) {
	h, store, states, resp := newHandler()
	ctx := context.Background()

	_, err := store.AddTask(ctx, chat, "first")
	require.NoError(t, err)
	_, err = store.AddTask(ctx, chat, "second")
	require.NoError(t, err)

	require.NoError(t, h.HandleCommand(ctx, chat, CmdDone))
	assert.Equal(t, ReplyPromptIndex, resp.last(t).Kind)
	assert.Equal(t, dialog.StateAwaitingDoneIndex, states.Get(chat).State)

	// User answers with a 1-based number.
	require.NoError(t, h.HandleText(ctx, chat, "2"))
	assert.Equal(t, ReplyTaskDone, resp.last(t).Kind)
	assert.Equal(t, "second", resp.last(t).Text)
	assert.True(t, store.Tasks(ctx, chat)[1].Completed)
}

func TestDoneWithEmptyListRejected(t *testing.T) {
	h, _, states, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleCommand(ctx, chat, CmdDone))
	reply := resp.last(t)
	assert.Equal(t, ReplyValidationFailure, reply.Kind)
	assert.ErrorIs(t, reply.Err, validate.ErrNoTasks)
	assert.Equal(t, dialog.StateDefault, states.Get(chat).State)
}

func TestRemoveFlow(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	_, err := store.AddTask(ctx, chat, "only one")
	require.NoError(t, err)

	require.NoError(t, h.HandleCommand(ctx, chat, CmdRemove))
	require.NoError(t, h.HandleText(ctx, chat, "1"))

	assert.Equal(t, ReplyTaskRemoved, resp.last(t).Kind)
	assert.Equal(t, "only one", resp.last(t).Text)
	assert.Empty(t, store.Tasks(ctx, chat))
}

func TestIndexOutOfRangeKeepsState(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	_, err := store.AddTask(ctx, chat, "alpha")
	require.NoError(t, err)

	require.NoError(t, h.HandleCommand(ctx, chat, CmdDone))
	require.NoError(t, h.HandleText(ctx, chat, "5"))

	reply := resp.last(t)
	assert.Equal(t, ReplyValidationFailure, reply.Kind)
	assert.ErrorIs(t, reply.Err, storage.ErrTaskNotFound)
	assert.False(t, store.Tasks(ctx, chat)[0].Completed)
}

func TestCommandEscapesPendingState(t *testing.T) {
	h, _, states, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleCommand(ctx, chat, CmdAdd))
	require.NoError(t, h.HandleCommand(ctx, chat, CmdHelp))

	assert.Equal(t, ReplyHelp, resp.last(t).Kind)
	assert.Equal(t, dialog.StateDefault, states.Get(chat).State)
}

func TestListCommand(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	_, err := store.AddTask(ctx, chat, "alpha")
	require.NoError(t, err)

	require.NoError(t, h.HandleCommand(ctx, chat, CmdList))
	reply := resp.last(t)
	assert.Equal(t, ReplyTaskList, reply.Kind)
	require.Len(t, reply.Items, 1)
	assert.Equal(t, "alpha", reply.Items[0].Text)
}

func TestClearCommand(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	_, err := store.AddTask(ctx, chat, "gone")
	require.NoError(t, err)

	require.NoError(t, h.HandleCommand(ctx, chat, CmdClear))
	assert.Equal(t, ReplyTasksCleared, resp.last(t).Kind)
	assert.Empty(t, store.Tasks(ctx, chat))
}

func TestInvalidTaskTextRejected(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleCommand(ctx, chat, CmdAdd))
	require.NoError(t, h.HandleText(ctx, chat, "1234567890"))

	reply := resp.last(t)
	assert.Equal(t, ReplyValidationFailure, reply.Kind)
	assert.ErrorIs(t, reply.Err, validate.ErrTooManyDigits)
	assert.Empty(t, store.Tasks(ctx, chat))
}

func TestPeriodSetupFlow(t *testing.T) {
	h, store, states, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleAction(ctx, chat, ActionSetupWater))
	assert.Equal(t, ReplyPromptPeriod, resp.last(t).Kind)
	slot := states.Get(chat)
	assert.Equal(t, dialog.StateAwaitingPeriod, slot.State)
	assert.Equal(t, reminder.KindWater, slot.Kind)

	require.NoError(t, h.HandleText(ctx, chat, "16-25"))
	reply := resp.last(t)
	assert.Equal(t, ReplyReminderSaved, reply.Kind)
	assert.Equal(t, 16, reply.Cfg.StartDay)
	assert.Equal(t, 25, reply.Cfg.EndDay)

	set := store.UserReminders(ctx, chat)
	cfg, ok := set.Get(reminder.KindWater)
	require.True(t, ok)
	assert.Equal(t, 16, cfg.StartDay)
	assert.True(t, cfg.Enabled)
}

func TestPeriodBadInputKeepsPrompt(t *testing.T) {
	h, _, states, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleAction(ctx, chat, ActionSetupElectricity))
	require.NoError(t, h.HandleText(ctx, chat, "25-16"))

	reply := resp.last(t)
	assert.Equal(t, ReplyValidationFailure, reply.Kind)
	assert.ErrorIs(t, reply.Err, validate.ErrInvertedRange)
	// Still awaiting a period, so the user can just try again.
	assert.Equal(t, dialog.StateAwaitingPeriod, states.Get(chat).State)
}

func TestToggleRemindersAction(t *testing.T) {
	h, _, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleAction(ctx, chat, ActionToggleReminders))
	reply := resp.last(t)
	assert.Equal(t, ReplyRemindersToggled, reply.Kind)
	assert.False(t, reply.On)

	require.NoError(t, h.HandleAction(ctx, chat, ActionToggleReminders))
	assert.True(t, resp.last(t).On)
}

func TestAckClosesCounterForMonth(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	require.NoError(t, h.HandleAck(ctx, chat, reminder.KindWater, true))
	assert.Equal(t, ReplyReadingAcked, resp.last(t).Kind)

	set := store.UserReminders(ctx, chat)
	cfg, _ := set.Get(reminder.KindWater)
	assert.True(t, cfg.CompletedThisMonth)
}

func TestAckDeclinedIsNoOp(t *testing.T) {
	h, store, _, resp := newHandler()
	ctx := context.Background()

	require.NoError(t, store.PutReminder(ctx, chat, reminder.NewConfig(reminder.KindWater, 16, 25)))

	require.NoError(t, h.HandleAck(ctx, chat, reminder.KindWater, false))
	assert.Equal(t, ReplyReadingPostponed, resp.last(t).Kind)

	set := store.UserReminders(ctx, chat)
	cfg, _ := set.Get(reminder.KindWater)
	assert.False(t, cfg.CompletedThisMonth)
}

func TestRejectsBadChatID(t *testing.T) {
	h, _, _, resp := newHandler()

	require.NoError(t, h.HandleCommand(context.Background(), model.ChatID(-1), CmdList))
	reply := resp.last(t)
	assert.Equal(t, ReplyValidationFailure, reply.Kind)
	assert.ErrorIs(t, reply.Err, validate.ErrBadChatID)
}
