package telemetry

import "time"

type EventType string

const (
	EventTaskAdded          EventType = "task_added"
	EventTaskCompleted      EventType = "task_completed"
	EventTaskRemoved        EventType = "task_removed"
	EventTasksCleared       EventType = "tasks_cleared"
	EventReminderConfigured EventType = "reminder_configured"
	EventReminderSent       EventType = "reminder_sent"
	EventReminderAcked      EventType = "reminder_acked"
	EventDispatchFailed     EventType = "dispatch_failed"
	EventStorageFault       EventType = "storage_fault"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
