package events

type EventType string

const (
	EventTypeMedication         EventType = "MEDICATION"
	EventTypeFeeding            EventType = "FEEDING"
	EventTypeHealthCheckup      EventType = "HEALTH_CHECKUP"
	EventTypeVaccination        EventType = "VACCINATION"
	EventTypeLifecycleMilestone EventType = "LIFECYCLE_MILESTONE"
	EventTypeCustom             EventType = "CUSTOM"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeMedication, EventTypeFeeding, EventTypeHealthCheckup,
		EventTypeVaccination, EventTypeLifecycleMilestone, EventTypeCustom:
		return true
	}
	return false
}

// EventStatus es monotónico: pending -> active -> completed, sin regresión.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority normaliza prioridades que vienen de fuentes externas;
// valores desconocidos caen a normal.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s)
	default:
		return PriorityNormal
	}
}
