package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-health-engine/internal/domain/rewards"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

// Validator es el chequeo de consistencia read-only del flujo de rewards:
// reproduce un delta esperado por el camino vivo (trigger -> puntos ->
// badges -> nivel -> cosméticos) y compara contra lo observado. No muta
// nada más allá de lo que el propio flujo bajo prueba muta: el probe es
// una emisión real que queda en el ledger y en los records, así que cada
// corrida suma sus probe points al total del usuario.
//
// Corre fuera del camino crítico: es la red de seguridad para las fallas
// parciales que el lifecycle manager deja atrás a propósito.
type Validator struct {
	ledger  *rewards.Service
	records Repository
	now     func() time.Time
}

func NewValidator(ledger *rewards.Service, records Repository) *Validator {
	return &Validator{
		ledger:  ledger,
		records: records,
		now:     time.Now,
	}
}

type SegmentResult struct {
	Name   string
	Passed bool
	Detail string
}

type Report struct {
	UserID      string
	DependentID string
	ProbePoints int

	Segments []SegmentResult
	Passed   bool
	Summary  string
}

// Run ejecuta la validación para el usuario con un probe de puntos conocido.
// probePoints debe ser > 0; es el "known reward amount" que se reproduce.
func (v *Validator) Run(ctx context.Context, userID, dependentID string, probePoints int) (Report, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Report{}, ErrInvalidInput
	}
	if probePoints <= 0 {
		return Report{}, fmt.Errorf("%w: probe points must be positive", ErrInvalidInput)
	}

	rep := Report{
		UserID:      userID,
		DependentID: dependentID,
		ProbePoints: probePoints,
	}

	// Segmento 0: la suma de interaction records debe igualar el total
	// del ledger ANTES del probe. Una diferencia acá es exactamente la
	// discrepancia que deja una falla parcial de emisión.
	before, err := v.ledger.Snapshot(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	recorded, err := v.records.SumPointsByUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	rep.add("records->points", recorded == before.TotalPoints,
		fmt.Sprintf("records=%d ledger=%d", recorded, before.TotalPoints))

	// Probe por el camino vivo.
	probeExp := probePoints * 10
	award, err := v.ledger.Award(ctx, userID, probePoints, probeExp)
	if err != nil {
		return Report{}, err
	}

	after, err := v.ledger.Snapshot(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	// Segmento 1: puntos -> badges. Delta observado == delta esperado y
	// todo badge cuyo predicado califica sobre el snapshot nuevo está
	// presente; además el set solo puede haber crecido.
	pointsOK := after.TotalPoints-before.TotalPoints == probePoints
	badgesOK := true
	detail := fmt.Sprintf("delta=%d expected=%d", after.TotalPoints-before.TotalPoints, probePoints)
	for _, def := range rewards.BadgeDefs() {
		if def.Qualifies(after) && !after.HasBadge(def.ID) {
			badgesOK = false
			detail += " missing_badge=" + def.ID
		}
	}
	for _, b := range before.Badges {
		if !after.HasBadge(b) {
			badgesOK = false
			detail += " revoked_badge=" + b
		}
	}
	rep.add("points->badges", pointsOK && badgesOK, detail)

	// Segmento 2: nivel -> cosméticos. Cada umbral cruzado debe estar
	// reflejado en los desbloqueos.
	level := after.Level()
	cosmeticsOK := true
	detail = fmt.Sprintf("level=%d", level)
	for _, def := range rewards.CosmeticDefs() {
		if level >= def.MinLevel && !after.HasCosmetic(def.ID) {
			cosmeticsOK = false
			detail += " missing_cosmetic=" + def.ID
		}
	}
	rep.add("level->cosmetics", cosmeticsOK, detail)

	// El probe también deja su record: mantiene consistente el segmento 0
	// de la próxima corrida.
	rec := Record{
		ID:          uuid.NewString(),
		EventID:     "",
		UserID:      userID,
		DependentID: dependentID,
		Points:      probePoints,
		Experience:  probeExp,
		Snapshot: map[string]any{
			"kind":        "validator_probe",
			"new_total":   award.NewTotal,
			"streak_days": award.StreakDays,
		},
		CreatedAt: v.now(),
	}
	if err := v.records.Append(ctx, rec); err != nil {
		return Report{}, err
	}

	rep.Passed = true
	for _, seg := range rep.Segments {
		if !seg.Passed {
			rep.Passed = false
			break
		}
	}
	rep.Summary = rep.summarize()

	return rep, nil
}

func (r *Report) add(name string, passed bool, detail string) {
	r.Segments = append(r.Segments, SegmentResult{Name: name, Passed: passed, Detail: detail})
}

func (r *Report) summarize() string {
	var b strings.Builder
	if r.Passed {
		b.WriteString("reward flow consistent")
	} else {
		b.WriteString("reward flow INCONSISTENT")
	}
	for _, seg := range r.Segments {
		status := "ok"
		if !seg.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "; %s=%s (%s)", seg.Name, status, seg.Detail)
	}
	return b.String()
}
