package rewards

// BadgeDef define un badge: un predicado puro sobre el snapshot actualizado
// del ledger. Los predicados son monotónicos sobre su campo determinante
// (puntos o racha solo crecen), así que el orden de evaluación no cambia el
// conjunto resultante; aun así el orden de declaración se preserva como
// contrato para salida determinística.
type BadgeDef struct {
	ID   string
	Name string

	Qualifies func(l Ledger) bool
}

// El orden de esta lista es parte del contrato: no reordenar.
var badgeDefs = []BadgeDef{
	{
		ID:        "first_steps",
		Name:      "Primeros pasos",
		Qualifies: func(l Ledger) bool { return l.TotalPoints >= 1 },
	},
	{
		ID:        "points_100",
		Name:      "Cien puntos",
		Qualifies: func(l Ledger) bool { return l.TotalPoints >= 100 },
	},
	{
		ID:        "points_500",
		Name:      "Quinientos puntos",
		Qualifies: func(l Ledger) bool { return l.TotalPoints >= 500 },
	},
	{
		ID:        "points_1000",
		Name:      "Mil puntos",
		Qualifies: func(l Ledger) bool { return l.TotalPoints >= 1000 },
	},
	{
		ID:        "points_5000",
		Name:      "Cinco mil puntos",
		Qualifies: func(l Ledger) bool { return l.TotalPoints >= 5000 },
	},
	{
		ID:        "streak_3",
		Name:      "Racha de 3 días",
		Qualifies: func(l Ledger) bool { return l.StreakDays >= 3 },
	},
	{
		ID:        "streak_7",
		Name:      "Racha de 7 días",
		Qualifies: func(l Ledger) bool { return l.StreakDays >= 7 },
	},
	{
		ID:        "streak_30",
		Name:      "Racha de 30 días",
		Qualifies: func(l Ledger) bool { return l.StreakDays >= 30 },
	},
}

// BadgeDefs expone la lista en su orden de declaración (para el validador
// y para UI); el slice devuelto no debe mutarse.
func BadgeDefs() []BadgeDef {
	return badgeDefs
}

// CosmeticDef define un desbloqueo cosmético gateado por nivel.
type CosmeticDef struct {
	ID       string
	Name     string
	MinLevel int
}

// También en orden de declaración fijo.
var cosmeticDefs = []CosmeticDef{
	{ID: "frame_bronze", Name: "Marco bronce", MinLevel: 2},
	{ID: "frame_silver", Name: "Marco plata", MinLevel: 3},
	{ID: "frame_gold", Name: "Marco oro", MinLevel: 5},
	{ID: "theme_celebration", Name: "Tema celebración", MinLevel: 10},
}

func CosmeticDefs() []CosmeticDef {
	return cosmeticDefs
}
