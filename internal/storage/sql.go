package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"todobot/internal/model"
	"todobot/internal/reminder"
	"todobot/internal/telemetry"
	"todobot/internal/todo"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id         TEXT PRIMARY KEY,
	chat_id    BIGINT NOT NULL,
	text       TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_chat_id ON todos (chat_id, created_at);
CREATE TABLE IF NOT EXISTS user_reminders (
	chat_id        BIGINT PRIMARY KEY,
	global_enabled BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS counter_reminders (
	chat_id              BIGINT NOT NULL,
	counter_type         TEXT NOT NULL,
	start_day            INTEGER NOT NULL,
	end_day              INTEGER NOT NULL,
	enabled              BOOLEAN NOT NULL DEFAULT TRUE,
	last_sent_month      TEXT,
	last_sent_date       TEXT,
	completed_this_month BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (chat_id, counter_type)
);
`

// SQLStore implements Store on database/sql. The same statements serve
// both supported drivers; queries are written with ? placeholders and
// rebound to $N for postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *log.Logger
	events telemetry.Repository
}

func NewSQLStore(db *sql.DB, driver string, logger *log.Logger, events telemetry.Repository) (*SQLStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	if events == nil {
		events = telemetry.NopRepository{}
	}
	s := &SQLStore{db: db, driver: driver, logger: logger, events: events}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$N when talking to postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) fault(op string, err error) {
	s.logger.Printf("sql store %s fault: %v", op, err)
	_ = s.events.RecordEvent(telemetry.EventStorageFault, telemetry.EventMetadata{
		"backend": s.driver,
		"op":      op,
		"error":   err.Error(),
	})
}

func (s *SQLStore) AddTask(ctx context.Context, chat model.ChatID, text string) (todo.Item, error) {
	item := todo.NewItem(text)
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO todos (id, chat_id, text, completed, created_at) VALUES (?, ?, ?, ?, ?)`),
		item.ID, int64(chat), item.Text, item.Completed, item.CreatedAt)
	if err != nil {
		return todo.Item{}, err
	}
	return item, nil
}

func (s *SQLStore) Tasks(ctx context.Context, chat model.ChatID) []todo.Item {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, text, completed, created_at FROM todos WHERE chat_id = ? ORDER BY created_at, id`),
		int64(chat))
	if err != nil {
		s.fault("list tasks", err)
		return nil
	}
	defer rows.Close()

	var out []todo.Item
	for rows.Next() {
		var item todo.Item
		if err := rows.Scan(&item.ID, &item.Text, &item.Completed, &item.CreatedAt); err != nil {
			s.fault("scan task", err)
			return nil
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		s.fault("list tasks", err)
		return nil
	}
	return out
}

// taskAt resolves a 0-based position in the user's ordered list to a
// concrete row. Indices are positional, so the lookup re-reads the list.
func (s *SQLStore) taskAt(ctx context.Context, chat model.ChatID, index int) (todo.Item, error) {
	list := s.Tasks(ctx, chat)
	if len(list) == 0 {
		return todo.Item{}, ErrNoTasks
	}
	if index < 0 || index >= len(list) {
		return todo.Item{}, ErrTaskNotFound
	}
	return list[index], nil
}

func (s *SQLStore) CompleteTask(ctx context.Context, chat model.ChatID, index int) (string, error) {
	item, err := s.taskAt(ctx, chat, index)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE todos SET completed = TRUE WHERE id = ? AND chat_id = ?`),
		item.ID, int64(chat))
	if err != nil {
		return "", err
	}
	return item.Text, nil
}

func (s *SQLStore) RemoveTask(ctx context.Context, chat model.ChatID, index int) (string, error) {
	item, err := s.taskAt(ctx, chat, index)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM todos WHERE id = ? AND chat_id = ?`),
		item.ID, int64(chat))
	if err != nil {
		return "", err
	}
	return item.Text, nil
}

func (s *SQLStore) ClearTasks(ctx context.Context, chat model.ChatID) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM todos WHERE chat_id = ?`), int64(chat))
	return err
}

func (s *SQLStore) UserReminders(ctx context.Context, chat model.ChatID) reminder.UserSet {
	set := reminder.NewUserSet()

	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT global_enabled FROM user_reminders WHERE chat_id = ?`),
		int64(chat)).Scan(&set.GlobalEnabled)
	if err != nil && err != sql.ErrNoRows {
		s.fault("load reminders", err)
		return reminder.NewUserSet()
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT counter_type, start_day, end_day, enabled, last_sent_month, last_sent_date, completed_this_month
		 FROM counter_reminders WHERE chat_id = ?`),
		int64(chat))
	if err != nil {
		s.fault("load reminders", err)
		return reminder.NewUserSet()
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind        string
			cfg         reminder.Config
			month, date sql.NullString
		)
		if err := rows.Scan(&kind, &cfg.StartDay, &cfg.EndDay, &cfg.Enabled, &month, &date, &cfg.CompletedThisMonth); err != nil {
			s.fault("scan reminder", err)
			return reminder.NewUserSet()
		}
		k, err := reminder.ParseKind(kind)
		if err != nil {
			s.logger.Printf("sql store: skipping reminder with unknown counter type %q", kind)
			continue
		}
		cfg.Kind = k
		cfg.LastSentMonth = month.String
		cfg.LastSentDate = date.String
		set.Put(cfg)
	}
	if err := rows.Err(); err != nil {
		s.fault("load reminders", err)
		return reminder.NewUserSet()
	}
	return set
}

func (s *SQLStore) SaveUserReminders(ctx context.Context, chat model.ChatID, set reminder.UserSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.upsertGlobal(ctx, tx, chat, set.GlobalEnabled); err != nil {
		return err
	}
	for _, cfg := range set.Reminders {
		if err := s.upsertCounter(ctx, tx, chat, cfg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// execer lets the upsert helpers run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) upsertGlobal(ctx context.Context, e execer, chat model.ChatID, enabled bool) error {
	_, err := e.ExecContext(ctx, s.rebind(
		`INSERT INTO user_reminders (chat_id, global_enabled) VALUES (?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET global_enabled = excluded.global_enabled`),
		int64(chat), enabled)
	return err
}

func (s *SQLStore) upsertCounter(ctx context.Context, e execer, chat model.ChatID, cfg reminder.Config) error {
	_, err := e.ExecContext(ctx, s.rebind(
		`INSERT INTO counter_reminders
		 (chat_id, counter_type, start_day, end_day, enabled, last_sent_month, last_sent_date, completed_this_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (chat_id, counter_type) DO UPDATE SET
			start_day = excluded.start_day,
			end_day = excluded.end_day,
			enabled = excluded.enabled,
			last_sent_month = excluded.last_sent_month,
			last_sent_date = excluded.last_sent_date,
			completed_this_month = excluded.completed_this_month`),
		int64(chat), string(cfg.Kind), cfg.StartDay, cfg.EndDay, cfg.Enabled,
		nullable(cfg.LastSentMonth), nullable(cfg.LastSentDate), cfg.CompletedThisMonth)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLStore) PutReminder(ctx context.Context, chat model.ChatID, cfg reminder.Config) error {
	// Make sure the user row exists without disturbing its flag.
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO user_reminders (chat_id, global_enabled) VALUES (?, TRUE)
		 ON CONFLICT (chat_id) DO NOTHING`),
		int64(chat))
	if err != nil {
		return err
	}
	return s.upsertCounter(ctx, s.db, chat, cfg)
}

func (s *SQLStore) ToggleGlobalReminders(ctx context.Context, chat model.ChatID) (bool, error) {
	set := s.UserReminders(ctx, chat)
	state := set.ToggleGlobal()
	if err := s.upsertGlobal(ctx, s.db, chat, state); err != nil {
		return false, err
	}
	return state, nil
}

func (s *SQLStore) MarkCounterCompleted(ctx context.Context, chat model.ChatID, kind reminder.Kind) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE counter_reminders SET completed_this_month = TRUE
		 WHERE chat_id = ? AND counter_type = ?`),
		int64(chat), string(kind))
	return err
}

func (s *SQLStore) AllReminders(ctx context.Context) map[model.ChatID]reminder.UserSet {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT chat_id FROM user_reminders`)
	if err != nil {
		s.fault("list reminder users", err)
		return nil
	}
	defer rows.Close()

	var chats []model.ChatID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			s.fault("scan chat id", err)
			return nil
		}
		chats = append(chats, model.ChatID(id))
	}
	if err := rows.Err(); err != nil {
		s.fault("list reminder users", err)
		return nil
	}

	out := make(map[model.ChatID]reminder.UserSet, len(chats))
	for _, chat := range chats {
		out[chat] = s.UserReminders(ctx, chat)
	}
	return out
}

func (s *SQLStore) ResetMonthly(ctx context.Context, currentMonth string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE counter_reminders SET completed_this_month = FALSE
		 WHERE last_sent_month IS NULL OR last_sent_month != ?`),
		currentMonth)
	return err
}

func (s *SQLStore) Close() error { return s.db.Close() }
