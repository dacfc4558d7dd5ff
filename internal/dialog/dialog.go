// Package dialog tracks what a user's next free-text message means.
// Each user has exactly one state slot; explicit commands reset it.
package dialog

import (
	"sync"

	"todobot/internal/model"
	"todobot/internal/reminder"
)

type State int

const (
	StateDefault State = iota
	StateAwaitingTaskText
	StateAwaitingTaskList
	StateAwaitingDoneIndex
	StateAwaitingRemoveIndex
	StateAwaitingPeriod
)

// Slot is a user's current conversation state. Kind is meaningful only
// when State is StateAwaitingPeriod.
type Slot struct {
	State State
	Kind  reminder.Kind
}

type Store struct {
	mu    sync.Mutex
	slots map[model.ChatID]Slot
}

func NewStore() *Store {
	return &Store{slots: map[model.ChatID]Slot{}}
}

// Get returns the user's slot; absent users are in StateDefault.
func (s *Store) Get(chat model.ChatID) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[chat]
}

func (s *Store) Set(chat model.ChatID, slot Slot) {
	s.mu.Lock()
	s.slots[chat] = slot
	s.mu.Unlock()
}

func (s *Store) Reset(chat model.ChatID) {
	s.Set(chat, Slot{})
}
