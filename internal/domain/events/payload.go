package events

import "time"

// Payload es el dato tipado específico del tipo de evento. A lo sumo una
// sección viene seteada; se persiste como JSON junto al evento.
type Payload struct {
	Medication *MedicationDetail `json:"medication,omitempty"`
	Feeding    *FeedingDetail    `json:"feeding,omitempty"`
	Lifecycle  *LifecycleDetail  `json:"lifecycle,omitempty"`
	Custom     *CustomDetail     `json:"custom,omitempty"`
}

// MedicationDetail: una toma concreta de un plan de medicación.
type MedicationDetail struct {
	PlanID   string `json:"plan_id"`
	Name     string `json:"name"`
	DoseTime string `json:"dose_time"` // "HH:MM"
}

// FeedingDetail: una ocurrencia de alimentación programada.
type FeedingDetail struct {
	IntervalHours float64   `json:"interval_hours"`
	DueAt         time.Time `json:"due_at"`
}

// LifecycleDetail: un hito de ciclo de vida con su prompt legible.
type LifecycleDetail struct {
	NoticeID string `json:"notice_id"`
	Category string `json:"category"`

	// Negativo = vencido hace N días.
	DaysUntilDue int `json:"days_until_due"`

	Prompt string            `json:"prompt"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// CustomDetail: eventos creados por el host sin trigger propio.
type CustomDetail struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}
