// Package validate holds the stateless checks applied to user input
// before it reaches storage: task text, positional indices, day-of-month
// windows and chat identities.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxTaskLength    = 500
	MaxMessageLength = 4000

	// More than this many identical characters in a row is treated as
	// noise rather than a task.
	maxRepetition = 5

	maxChatID = 999_999_999_999
)

var (
	ErrEmptyText       = errors.New("task text is empty")
	ErrTextTooLong     = fmt.Errorf("task text exceeds %d characters", MaxTaskLength)
	ErrMessageTooLong  = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	ErrBadCharacters   = errors.New("task text contains control characters")
	ErrRepetition      = errors.New("task text repeats the same character too many times")
	ErrTooManyDigits   = errors.New("task text is mostly digits")
	ErrNoTasks         = errors.New("no tasks available")
	ErrIndexOutOfRange = errors.New("task index out of range")
	ErrBadDay          = errors.New("day must be between 1 and 31")
	ErrInvertedRange   = errors.New("start day is after end day")
	ErrBadChatID       = errors.New("invalid chat id")
	ErrBadPeriod       = errors.New("period must be two days separated by a dash, e.g. 16-25")
)

func TaskText(text string) error {
	if utf8.RuneCountInString(text) > MaxTaskLength {
		return ErrTextTooLong
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	for _, r := range text {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return ErrBadCharacters
		}
	}
	if hasExcessiveRepetition(text) {
		return ErrRepetition
	}
	if mostlyDigits(text) {
		return ErrTooManyDigits
	}
	return nil
}

// SanitizeTaskText strips control characters and truncates to the
// maximum task length.
func SanitizeTaskText(text string) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			continue
		}
		if n == MaxTaskLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

func Message(text string) error {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Index checks a 0-based position against the current list length.
// Indices are never persisted identities, so the length must be the
// list's length right now.
func Index(index, total int) error {
	if total == 0 {
		return ErrNoTasks
	}
	if index < 0 || index >= total {
		return ErrIndexOutOfRange
	}
	return nil
}

func Day(day int) error {
	if day < 1 || day > 31 {
		return ErrBadDay
	}
	return nil
}

func DayRange(startDay, endDay int) error {
	if err := Day(startDay); err != nil {
		return fmt.Errorf("start day: %w", err)
	}
	if err := Day(endDay); err != nil {
		return fmt.Errorf("end day: %w", err)
	}
	if startDay > endDay {
		return ErrInvertedRange
	}
	return nil
}

func ChatID(id int64) error {
	if id <= 0 || id > maxChatID {
		return ErrBadChatID
	}
	return nil
}

// ParsePeriod parses "16-25" style input into a validated day range.
func ParsePeriod(text string) (startDay, endDay int, err error) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return 0, 0, ErrBadPeriod
	}
	startDay, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("start day: %w", ErrBadDay)
	}
	endDay, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("end day: %w", ErrBadDay)
	}
	if err := DayRange(startDay, endDay); err != nil {
		return 0, 0, err
	}
	return startDay, endDay, nil
}

// ParseTaskList splits multi-line input into task texts, dropping blank
// lines and leading numbering or bullets ("1.", "2)", "-", "*").
func ParseTaskList(text string) []string {
	var tasks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = stripListPrefix(line)
		if line != "" && utf8.RuneCountInString(line) <= MaxTaskLength {
			tasks = append(tasks, line)
		}
	}
	return tasks
}

func stripListPrefix(line string) string {
	for i, r := range line {
		if unicode.IsLetter(r) || r == '"' || r == '(' || r == '[' {
			for _, p := range line[:i] {
				if !unicode.IsDigit(p) && !strings.ContainsRune(".-*) ", p) {
					return line
				}
			}
			return strings.TrimSpace(line[i:])
		}
	}
	return line
}

func hasExcessiveRepetition(text string) bool {
	var current rune
	count := 0
	for _, r := range text {
		if r == current {
			count++
			if count > maxRepetition {
				return true
			}
		} else {
			current = r
			count = 1
		}
	}
	return false
}

func mostlyDigits(text string) bool {
	total := 0
	digits := 0
	for _, r := range text {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return total > 0 && digits > total/2
}
