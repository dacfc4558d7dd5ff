package storage

import (
	"context"
	"sync"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/todo"
)

// MemoryStore keeps everything in process memory. It backs tests and
// ephemeral runs; semantics match the persistent variants exactly.
type MemoryStore struct {
	mu        sync.Mutex
	tasks     map[model.ChatID][]todo.Item
	reminders map[model.ChatID]reminder.UserSet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:     map[model.ChatID][]todo.Item{},
		reminders: map[model.ChatID]reminder.UserSet{},
	}
}

func (s *MemoryStore) AddTask(_ context.Context, chat model.ChatID, text string) (todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := todo.NewItem(text)
	s.tasks[chat] = append(s.tasks[chat], item)
	return item, nil
}

func (s *MemoryStore) Tasks(_ context.Context, chat model.ChatID) []todo.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]todo.Item, len(s.tasks[chat]))
	copy(out, s.tasks[chat])
	return out
}

func (s *MemoryStore) CompleteTask(_ context.Context, chat model.ChatID, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tasks[chat]
	if len(list) == 0 {
		return "", ErrNoTasks
	}
	if index < 0 || index >= len(list) {
		return "", ErrTaskNotFound
	}
	list[index].MarkCompleted()
	return list[index].Text, nil
}

func (s *MemoryStore) RemoveTask(_ context.Context, chat model.ChatID, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.tasks[chat]
	if len(list) == 0 {
		return "", ErrNoTasks
	}
	if index < 0 || index >= len(list) {
		return "", ErrTaskNotFound
	}
	removed := list[index]
	s.tasks[chat] = append(list[:index], list[index+1:]...)
	return removed.Text, nil
}

func (s *MemoryStore) ClearTasks(_ context.Context, chat model.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[chat] = nil
	return nil
}

func (s *MemoryStore) UserReminders(_ context.Context, chat model.ChatID) reminder.UserSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.reminders[chat]
	if !ok {
		return reminder.NewUserSet()
	}
	return set.Clone()
}

func (s *MemoryStore) SaveUserReminders(_ context.Context, chat model.ChatID, set reminder.UserSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reminders[chat] = set.Clone()
	return nil
}

func (s *MemoryStore) PutReminder(_ context.Context, chat model.ChatID, cfg reminder.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.reminders[chat]
	if !ok {
		set = reminder.NewUserSet()
	}
	set.Put(cfg)
	s.reminders[chat] = set
	return nil
}

func (s *MemoryStore) ToggleGlobalReminders(_ context.Context, chat model.ChatID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.reminders[chat]
	if !ok {
		set = reminder.NewUserSet()
	}
	state := set.ToggleGlobal()
	s.reminders[chat] = set
	return state, nil
}

func (s *MemoryStore) MarkCounterCompleted(_ context.Context, chat model.ChatID, kind reminder.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.reminders[chat]
	if !ok {
		return nil
	}
	if cfg, ok := set.Get(kind); ok {
		cfg.MarkCompleted()
		set.Put(cfg)
		s.reminders[chat] = set
	}
	return nil
}

func (s *MemoryStore) AllReminders(_ context.Context) map[model.ChatID]reminder.UserSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[model.ChatID]reminder.UserSet, len(s.reminders))
	for chat, set := range s.reminders {
		out[chat] = set.Clone()
	}
	return out
}

func (s *MemoryStore) ResetMonthly(_ context.Context, currentMonth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chat, set := range s.reminders {
		for kind, cfg := range set.Reminders {
			cfg.ResetForNewMonth(currentMonth)
			set.Reminders[kind] = cfg
		}
		s.reminders[chat] = set
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
