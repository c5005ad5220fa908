package feeding

import "time"

// NextFeedingTime computa el próximo horario de alimentación. Función pura:
// sin estado oculto, gobierna qué tan agresivo es el scheduler al disparar
// eventos de alimentación.
//
// Reglas:
//  1. Si hay un próximo horario guardado y sigue en el futuro, se mantiene
//     (evita churn de recomputación).
//  2. Si hay última alimentación, último + intervalo; pero si eso ya quedó
//     en el pasado, "ahora" + intervalo (un backlog de atrasos no se
//     compone en una tormenta de prompts).
//  3. Primera vez: "ahora" + intervalo.
func NextFeedingTime(last, stored *time.Time, intervalHours float64, now time.Time) time.Time {
	interval := time.Duration(intervalHours * float64(time.Hour))

	if stored != nil && stored.After(now) {
		return *stored
	}

	if last != nil {
		next := last.Add(interval)
		if !next.After(now) {
			return now.Add(interval)
		}
		return next
	}

	return now.Add(interval)
}
