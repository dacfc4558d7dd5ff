package todo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a single task in a user's list. The list is ordered by
// insertion; user-facing addressing is positional, not by ID.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func NewItem(text string) Item {
	return Item{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}
}

func (i *Item) MarkCompleted() {
	i.Completed = true
}
