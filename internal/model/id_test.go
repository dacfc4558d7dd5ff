package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatIDRoundTrip(t *testing.T) {
	id := ChatID(123456789)
	assert.Equal(t, "123456789", id.String())

	parsed, err := ParseChatID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseChatID_Invalid(t *testing.T) {
	_, err := ParseChatID("not-a-number")
	assert.Error(t, err)
}
