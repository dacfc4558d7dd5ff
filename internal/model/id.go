package model

import (
	"fmt"
	"strconv"
)

// ChatID identifies the chat (and therefore the user) that owns a piece
// of state. Chat platforms hand these out as signed 64-bit integers.
type ChatID int64

func (id ChatID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseChatID parses the string form used as a document key.
func ParseChatID(s string) (ChatID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", s, err)
	}
	return ChatID(n), nil
}
