package healthdata

import (
	"context"
	"time"
)

// Dependent es un miembro de familia rastreado por el usuario.
// El perfil completo vive en el subsistema de registros de salud; acá solo
// llega lo necesario para programar eventos.
type Dependent struct {
	ID       string
	Name     string
	Relation string // "child", "infant", "elder", ...

	BirthDate *time.Time
}

// MedicationPlan es una cadencia de medicación activa para un sujeto
// (el usuario mismo o un dependiente).
type MedicationPlan struct {
	ID   string
	Name string

	// Horas del día en formato "HH:MM" (una toma por entrada).
	DoseTimes []string

	// Prioridad sugerida por la fuente: low|normal|high|urgent.
	Priority string

	StartDate time.Time
	EndDate   *time.Time
}

// ActiveOn indica si el plan aplica en la fecha dada.
func (p MedicationPlan) ActiveOn(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	if d.Before(p.StartDate.Truncate(24 * time.Hour)) {
		return false
	}
	if p.EndDate != nil && d.After(p.EndDate.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// LifecycleNotice es un aviso de hito de ciclo de vida pendiente
// (vacuna que vence, control de crecimiento, etc.).
type LifecycleNotice struct {
	ID          string
	DependentID string // vacío = el usuario mismo

	DueDate  time.Time
	Priority string // low|normal|high|urgent
	Category string

	Title string
	Extra map[string]string
}

// Source es la vista read-only sobre las fuentes de triggers.
// Las implementaciones deben fallar rápido: un timeout acá se trata como
// fallo de una unidad del batch, no se reintenta en la misma corrida.
type Source interface {
	// Users devuelve una página acotada de usuarios a procesar.
	Users(ctx context.Context, limit int) ([]string, error)

	Dependents(ctx context.Context, userID string) ([]Dependent, error)

	// MedicationPlans del sujeto. dependentID vacío = el usuario mismo.
	MedicationPlans(ctx context.Context, userID, dependentID string) ([]MedicationPlan, error)

	LifecycleNotices(ctx context.Context, userID string) ([]LifecycleNotice, error)
}
