package storage

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/telemetry"
	"todobot/internal/todo"
)

// document is the whole dataset as serialized to disk: every user's
// task list and reminder set in one JSON file.
type document struct {
	Todos     map[string][]todo.Item      `json:"todos"`
	Reminders map[string]reminder.UserSet `json:"reminders"`
}

func newDocument() document {
	return document{
		Todos:     map[string][]todo.Item{},
		Reminders: map[string]reminder.UserSet{},
	}
}

// FileStore persists the whole dataset as a single JSON document.
// Every operation runs under one exclusive lock: read the document,
// apply one mutation, write to a temp file and atomically rename over
// the canonical path. That totally orders all operations and means no
// reader ever observes a half-written file; the cost is a full rewrite
// per mutation, acceptable while total state stays small.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
	events telemetry.Repository
}

func NewFileStore(dataDir string, logger *log.Logger, events telemetry.Repository) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	if events == nil {
		events = telemetry.NopRepository{}
	}
	return &FileStore{
		path:   filepath.Join(dataDir, "todos.json"),
		logger: logger,
		events: events,
	}, nil
}

// load reads the current document. A missing file is an empty dataset;
// an unreadable or corrupt one degrades to empty as well, but is
// logged and counted so operators can notice sustained faults.
func (s *FileStore) load() document {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return newDocument()
		}
		s.fault("read", err)
		return newDocument()
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.fault("decode", err)
		return newDocument()
	}
	if doc.Todos == nil {
		doc.Todos = map[string][]todo.Item{}
	}
	if doc.Reminders == nil {
		doc.Reminders = map[string]reminder.UserSet{}
	}
	return doc
}

func (s *FileStore) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) fault(op string, err error) {
	s.logger.Printf("file store %s fault: %v", op, err)
	_ = s.events.RecordEvent(telemetry.EventStorageFault, telemetry.EventMetadata{
		"backend": "json",
		"op":      op,
		"error":   err.Error(),
	})
}

func (s *FileStore) AddTask(_ context.Context, chat model.ChatID, text string) (todo.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	item := todo.NewItem(text)
	key := chat.String()
	doc.Todos[key] = append(doc.Todos[key], item)
	if err := s.save(doc); err != nil {
		return todo.Item{}, err
	}
	return item, nil
}

func (s *FileStore) Tasks(_ context.Context, chat model.ChatID) []todo.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	list := doc.Todos[chat.String()]
	out := make([]todo.Item, len(list))
	copy(out, list)
	return out
}

func (s *FileStore) CompleteTask(_ context.Context, chat model.ChatID, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	list := doc.Todos[chat.String()]
	if len(list) == 0 {
		return "", ErrNoTasks
	}
	if index < 0 || index >= len(list) {
		return "", ErrTaskNotFound
	}
	list[index].MarkCompleted()
	if err := s.save(doc); err != nil {
		return "", err
	}
	return list[index].Text, nil
}

func (s *FileStore) RemoveTask(_ context.Context, chat model.ChatID, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	key := chat.String()
	list := doc.Todos[key]
	if len(list) == 0 {
		return "", ErrNoTasks
	}
	if index < 0 || index >= len(list) {
		return "", ErrTaskNotFound
	}
	removed := list[index]
	doc.Todos[key] = append(list[:index], list[index+1:]...)
	if err := s.save(doc); err != nil {
		return "", err
	}
	return removed.Text, nil
}

func (s *FileStore) ClearTasks(_ context.Context, chat model.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc.Todos[chat.String()] = []todo.Item{}
	return s.save(doc)
}

func (s *FileStore) UserReminders(_ context.Context, chat model.ChatID) reminder.UserSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	set, ok := doc.Reminders[chat.String()]
	if !ok {
		return reminder.NewUserSet()
	}
	return set.Clone()
}

func (s *FileStore) SaveUserReminders(_ context.Context, chat model.ChatID, set reminder.UserSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc.Reminders[chat.String()] = set.Clone()
	return s.save(doc)
}

func (s *FileStore) PutReminder(_ context.Context, chat model.ChatID, cfg reminder.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	key := chat.String()
	set, ok := doc.Reminders[key]
	if !ok {
		set = reminder.NewUserSet()
	}
	set.Put(cfg)
	doc.Reminders[key] = set
	return s.save(doc)
}

func (s *FileStore) ToggleGlobalReminders(_ context.Context, chat model.ChatID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	key := chat.String()
	set, ok := doc.Reminders[key]
	if !ok {
		set = reminder.NewUserSet()
	}
	state := set.ToggleGlobal()
	doc.Reminders[key] = set
	if err := s.save(doc); err != nil {
		return false, err
	}
	return state, nil
}

func (s *FileStore) MarkCounterCompleted(_ context.Context, chat model.ChatID, kind reminder.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	key := chat.String()
	set, ok := doc.Reminders[key]
	if !ok {
		return nil
	}
	cfg, ok := set.Get(kind)
	if !ok {
		return nil
	}
	cfg.MarkCompleted()
	set.Put(cfg)
	doc.Reminders[key] = set
	return s.save(doc)
}

func (s *FileStore) AllReminders(_ context.Context) map[model.ChatID]reminder.UserSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	out := make(map[model.ChatID]reminder.UserSet, len(doc.Reminders))
	for key, set := range doc.Reminders {
		chat, err := model.ParseChatID(key)
		if err != nil {
			s.logger.Printf("file store: skipping malformed chat key %q", key)
			continue
		}
		out[chat] = set.Clone()
	}
	return out
}

func (s *FileStore) ResetMonthly(_ context.Context, currentMonth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for key, set := range doc.Reminders {
		for kind, cfg := range set.Reminders {
			cfg.ResetForNewMonth(currentMonth)
			set.Reminders[kind] = cfg
		}
		doc.Reminders[key] = set
	}
	return s.save(doc)
}

func (s *FileStore) Close() error { return nil }
