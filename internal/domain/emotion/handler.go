package emotion

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"family-health-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router) {
	r.Post("/users/{userID}/emotion", deriveEmotionHandler())
}

// deriveEmotionRequest es el bundle de señales a evaluar.
type deriveEmotionRequest struct {
	HealthScore      int     `json:"health_score"`
	HasDisease       bool    `json:"has_disease"`
	LastMealAt       *string `json:"last_meal_at"` // RFC3339
	SleepHours       float64 `json:"sleep_hours"`
	Steps            int     `json:"steps"`
	MissedMedsToday  int     `json:"missed_meds_today"`
	UrgentReminders  int     `json:"urgent_reminders"`
	HealthScoreDelta int     `json:"health_score_delta"`
}

// deriveEmotionHandler godoc
// @Summary Derivar estado de display
// @Description Evalúa el bundle de señales contra las reglas ordenadas y devuelve el estado de mayor intensidad (empate: gana el declarado primero; sin guard satisfecho: neutral/50). Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags emotion
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param payload body deriveEmotionRequest true "Señales de salud"
// @Success 200 {object} Result
// @Failure 400 {string} string "invalid json / last_meal_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/emotion [post]
func deriveEmotionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.UserID != chi.URLParam(r, "userID") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req deriveEmotionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		signals := Signals{
			HealthScore:      req.HealthScore,
			HasDisease:       req.HasDisease,
			SleepHours:       req.SleepHours,
			Steps:            req.Steps,
			MissedMedsToday:  req.MissedMedsToday,
			UrgentReminders:  req.UrgentReminders,
			HealthScoreDelta: req.HealthScoreDelta,
			Now:              time.Now(),
		}
		if req.LastMealAt != nil && strings.TrimSpace(*req.LastMealAt) != "" {
			t, err := time.Parse(time.RFC3339, *req.LastMealAt)
			if err != nil {
				http.Error(w, "last_meal_at must be RFC3339", http.StatusBadRequest)
				return
			}
			signals.LastMealAt = &t
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Derive(signals))
	}
}
