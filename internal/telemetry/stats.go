package telemetry

import "time"

type Stats struct {
	Period           string            `json:"period"`
	EventCounts      map[EventType]int `json:"event_counts"`
	TasksAdded       int               `json:"tasks_added"`
	TaskCompletions  int               `json:"task_completions"`
	RemindersSent    int               `json:"reminders_sent"`
	RemindersAcked   int               `json:"reminders_acked"`
	DispatchFailures int               `json:"dispatch_failures"`
	StorageFaults    int               `json:"storage_faults"`
}

// CalculateStats aggregates events into operator-facing counters.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Period:      since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		switch event.Type {
		case EventTaskAdded:
			stats.TasksAdded++
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventReminderSent:
			stats.RemindersSent++
		case EventReminderAcked:
			stats.RemindersAcked++
		case EventDispatchFailed:
			stats.DispatchFailures++
		case EventStorageFault:
			stats.StorageFaults++
		}
	}

	return stats
}
