package reminder

import (
	"errors"
	"time"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

var ErrUnknownKind = errors.New("unknown counter kind")

// Kind is a category of recurring meter-reading obligation. The set is
// closed; each kind has its own independent reminder window.
type Kind string

const (
	KindWater       Kind = "water"
	KindElectricity Kind = "electricity"
)

func Kinds() []Kind {
	return []Kind{KindWater, KindElectricity}
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindWater:
		return KindWater, nil
	case KindElectricity:
		return KindElectricity, nil
	}
	return "", ErrUnknownKind
}

// Config is one recurring reminder: a reading for Kind is expected
// between StartDay and EndDay of every month, inclusive.
type Config struct {
	Kind               Kind   `json:"counter_type"`
	StartDay           int    `json:"start_day"`
	EndDay             int    `json:"end_day"`
	Enabled            bool   `json:"enabled"`
	LastSentMonth      string `json:"last_sent_month,omitempty"`
	LastSentDate       string `json:"last_sent_date,omitempty"`
	CompletedThisMonth bool   `json:"completed_this_month"`
}

func NewConfig(kind Kind, startDay, endDay int) Config {
	return Config{
		Kind:     kind,
		StartDay: startDay,
		EndDay:   endDay,
		Enabled:  true,
	}
}

// ShouldRemindToday reports whether today is a notification day for
// this window: the first day, the midpoint day, or any of the last
// three days. Outside the window, or once the reading is submitted for
// the month, it is always false.
func (c Config) ShouldRemindToday(today time.Time) bool {
	if !c.Enabled || c.CompletedThisMonth {
		return false
	}
	day := today.Day()
	if day < c.StartDay || day > c.EndDay {
		return false
	}
	if day == c.StartDay {
		return true
	}
	if day == (c.StartDay+c.EndDay)/2 {
		return true
	}
	return day > saturatingSub(c.EndDay, 3)
}

// SentToday reports whether a notification already went out on the
// given calendar date. The scheduler uses this as the same-day dedupe.
func (c Config) SentToday(today time.Time) bool {
	return c.LastSentDate != "" && c.LastSentDate == today.Format(DateLayout)
}

func (c *Config) MarkSent(today time.Time) {
	c.LastSentMonth = today.Format(MonthLayout)
	c.LastSentDate = today.Format(DateLayout)
}

func (c *Config) MarkCompleted() {
	c.CompletedThisMonth = true
}

// ResetForNewMonth reopens the window once the tracked month differs
// from the current one. A config that was never notified resets too.
func (c *Config) ResetForNewMonth(currentMonth string) {
	if c.LastSentMonth != currentMonth {
		c.CompletedThisMonth = false
	}
}

// Phase classifies a notification day within its window so the
// transport can phrase the message appropriately.
type Phase string

const (
	PhaseFirst   Phase = "first"
	PhaseMidway  Phase = "midway"
	PhaseClosing Phase = "closing"
)

func (c Config) PhaseOn(today time.Time) Phase {
	day := today.Day()
	switch {
	case day == c.StartDay:
		return PhaseFirst
	case day > saturatingSub(c.EndDay, 3):
		return PhaseClosing
	default:
		return PhaseMidway
	}
}

func saturatingSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}

// UserSet is every reminder a user has configured plus the global
// switch gating all of them regardless of per-kind enablement.
type UserSet struct {
	Reminders     map[Kind]Config `json:"reminders"`
	GlobalEnabled bool            `json:"global_enabled"`
}

func NewUserSet() UserSet {
	return UserSet{
		Reminders:     map[Kind]Config{},
		GlobalEnabled: true,
	}
}

// Put inserts or replaces the config for its kind; other kinds are
// untouched.
func (s *UserSet) Put(c Config) {
	if s.Reminders == nil {
		s.Reminders = map[Kind]Config{}
	}
	s.Reminders[c.Kind] = c
}

func (s *UserSet) Get(kind Kind) (Config, bool) {
	c, ok := s.Reminders[kind]
	return c, ok
}

func (s *UserSet) ToggleGlobal() bool {
	s.GlobalEnabled = !s.GlobalEnabled
	return s.GlobalEnabled
}

// Clone returns an independent copy, so snapshots handed to the
// scheduler never alias store-internal maps.
func (s UserSet) Clone() UserSet {
	out := UserSet{GlobalEnabled: s.GlobalEnabled, Reminders: make(map[Kind]Config, len(s.Reminders))}
	for k, v := range s.Reminders {
		out.Reminders[k] = v
	}
	return out
}
