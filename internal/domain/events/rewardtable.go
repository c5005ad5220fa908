package events

import "math"

// RewardTable mapea (tipo, prioridad) a reward. Los valores default vienen
// del producto sin derivación documentada; por eso la tabla es configurable
// y no una constante del código.
type RewardTable struct {
	BasePoints          map[EventType]int
	PriorityMultipliers map[Priority]float64
	ExperiencePerPoint  int
}

func DefaultRewardTable() RewardTable {
	return RewardTable{
		BasePoints: map[EventType]int{
			EventTypeMedication:         50,
			EventTypeFeeding:            30,
			EventTypeHealthCheckup:      100,
			EventTypeVaccination:        80,
			EventTypeLifecycleMilestone: 60,
			EventTypeCustom:             40,
		},
		PriorityMultipliers: map[Priority]float64{
			PriorityLow:    0.5,
			PriorityNormal: 1.0,
			PriorityHigh:   1.5,
			PriorityUrgent: 2.0,
		},
		ExperiencePerPoint: 10,
	}
}

// RewardTableFromMaps arma la tabla desde la config (keys en string).
// Entradas faltantes caen al default.
func RewardTableFromMaps(basePoints map[string]int, multipliers map[string]float64, expPerPoint int) RewardTable {
	t := DefaultRewardTable()
	for k, v := range basePoints {
		typ := EventType(normalizeTypeKey(k))
		if typ.Valid() && v > 0 {
			t.BasePoints[typ] = v
		}
	}
	for k, v := range multipliers {
		p := Priority(k)
		if p.Valid() && v > 0 {
			t.PriorityMultipliers[p] = v
		}
	}
	if expPerPoint > 0 {
		t.ExperiencePerPoint = expPerPoint
	}
	return t
}

// Compute calcula el reward: puntos base por tipo × multiplicador de
// prioridad, floor a entero; experiencia = puntos × factor.
func (t RewardTable) Compute(typ EventType, pri Priority) (points, experience int) {
	base, ok := t.BasePoints[typ]
	if !ok {
		base = t.BasePoints[EventTypeCustom]
	}
	mult, ok := t.PriorityMultipliers[pri]
	if !ok {
		mult = 1.0
	}

	points = int(math.Floor(float64(base) * mult))
	experience = points * t.ExperiencePerPoint
	return points, experience
}

// Las keys de config usan minúsculas ("medication"); los tipos internos
// van en mayúsculas.
func normalizeTypeKey(k string) string {
	switch k {
	case "medication":
		return string(EventTypeMedication)
	case "feeding":
		return string(EventTypeFeeding)
	case "health_checkup":
		return string(EventTypeHealthCheckup)
	case "vaccination":
		return string(EventTypeVaccination)
	case "lifecycle_milestone":
		return string(EventTypeLifecycleMilestone)
	case "custom":
		return string(EventTypeCustom)
	default:
		return k
	}
}
