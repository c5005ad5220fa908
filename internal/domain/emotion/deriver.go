package emotion

import "time"

// State es el estado de display derivado del bundle de señales.
type State string

const (
	StateAngry   State = "angry"
	StateSick    State = "sick"
	StateWorried State = "worried"
	StateTired   State = "tired"
	StateHungry  State = "hungry"
	StateFull    State = "full"
	StateSad     State = "sad"
	StateExcited State = "excited"
	StateHappy   State = "happy"
	StateNeutral State = "neutral"
)

// Signals es el bundle de señales de salud que alimenta la derivación.
type Signals struct {
	HealthScore int  // 0-100
	HasDisease  bool

	LastMealAt *time.Time

	SleepHours float64
	Steps      int

	MissedMedsToday int
	UrgentReminders int

	// Cambio reciente del health score (negativo = empeoró).
	HealthScoreDelta int

	Now time.Time
}

// Result es el estado ganador con su intensidad 0-100.
type Result struct {
	State State `json:"state"`
	Score int   `json:"score"`
}

// candidate es una regla: guard + fórmula de intensidad determinística.
type candidate struct {
	state State
	guard func(Signals) bool
	score func(Signals) int
}

// El orden de declaración es el desempate: a igual score gana el primero.
// Contrato documentado, no un accidente del array: no reordenar.
var candidates = []candidate{
	{
		state: StateAngry,
		guard: func(s Signals) bool { return s.MissedMedsToday >= 3 || s.UrgentReminders >= 3 },
		score: func(s Signals) int { return clamp(70 + 5*s.MissedMedsToday + 5*s.UrgentReminders) },
	},
	{
		state: StateSick,
		guard: func(s Signals) bool { return s.HasDisease || s.HealthScore < 40 },
		score: func(s Signals) int {
			v := 40 + (100-s.HealthScore)/2
			if s.HasDisease {
				v += 10
			}
			return clamp(v)
		},
	},
	{
		state: StateWorried,
		guard: func(s Signals) bool { return s.HealthScoreDelta <= -10 },
		score: func(s Signals) int { return clamp(50 - s.HealthScoreDelta) },
	},
	{
		state: StateTired,
		guard: func(s Signals) bool { return s.SleepHours > 0 && s.SleepHours < 6 },
		score: func(s Signals) int { return clamp(40 + int((8-s.SleepHours)*6)) },
	},
	{
		state: StateHungry,
		guard: func(s Signals) bool { return hoursSinceMeal(s) >= 5 },
		score: func(s Signals) int { return clamp(40 + int(hoursSinceMeal(s))*4) },
	},
	{
		state: StateFull,
		guard: func(s Signals) bool { return s.LastMealAt != nil && hoursSinceMeal(s) < 1 },
		score: func(s Signals) int { return 55 },
	},
	{
		state: StateSad,
		guard: func(s Signals) bool { return s.Steps > 0 && s.Steps < 1000 },
		score: func(s Signals) int { return 52 },
	},
	{
		state: StateExcited,
		guard: func(s Signals) bool { return s.HealthScoreDelta >= 10 },
		score: func(s Signals) int { return clamp(50 + s.HealthScoreDelta) },
	},
	{
		state: StateHappy,
		guard: func(s Signals) bool { return s.HealthScore >= 80 && s.MissedMedsToday == 0 },
		score: func(s Signals) int { return clamp(50 + (s.HealthScore - 80)) },
	},
}

// Derive evalúa los candidatos en orden fijo y devuelve el de mayor score.
// Sin guard satisfecho: neutral con intensidad 50.
func Derive(s Signals) Result {
	if s.Now.IsZero() {
		s.Now = time.Now()
	}

	best := Result{State: StateNeutral, Score: 50}
	found := false
	for _, c := range candidates {
		if !c.guard(s) {
			continue
		}
		score := c.score(s)
		// Estrictamente mayor: el empate lo gana el declarado primero.
		if !found || score > best.Score {
			best = Result{State: c.state, Score: score}
			found = true
		}
	}
	if !found {
		return Result{State: StateNeutral, Score: 50}
	}
	return best
}

func hoursSinceMeal(s Signals) float64 {
	if s.LastMealAt == nil {
		return -1
	}
	return s.Now.Sub(*s.LastMealAt).Hours()
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
