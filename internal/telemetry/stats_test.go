package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_RecordAndFilter(t *testing.T) {
	repo := NewMemoryRepository()

	require.NoError(t, repo.RecordEvent(EventTaskAdded, EventMetadata{"chat_id": "7"}))
	require.NoError(t, repo.RecordEvent(EventReminderSent, nil))
	require.NoError(t, repo.RecordEvent(EventTaskAdded, nil))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	added, err := repo.GetEvents(time.Time{}, []EventType{EventTaskAdded})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	require.NoError(t, repo.Clear())
	all, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculateStats(t *testing.T) {
	now := time.Now()
	events := []Event{
		{Type: EventTaskAdded, Timestamp: now},
		{Type: EventTaskAdded, Timestamp: now},
		{Type: EventTaskCompleted, Timestamp: now},
		{Type: EventReminderSent, Timestamp: now},
		{Type: EventReminderAcked, Timestamp: now},
		{Type: EventDispatchFailed, Timestamp: now},
		{Type: EventStorageFault, Timestamp: now},
	}

	stats := CalculateStats(events, now)

	assert.Equal(t, 2, stats.TasksAdded)
	assert.Equal(t, 1, stats.TaskCompletions)
	assert.Equal(t, 1, stats.RemindersSent)
	assert.Equal(t, 1, stats.RemindersAcked)
	assert.Equal(t, 1, stats.DispatchFailures)
	assert.Equal(t, 1, stats.StorageFaults)
	assert.Equal(t, 2, stats.EventCounts[EventTaskAdded])
}
