package feeding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-health-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users/{userID}/dependents/{dependentID}/feeding", func(fr chi.Router) {
		fr.Put("/schedule", setScheduleHandler(svc))
		fr.Get("/schedule", getScheduleHandler(svc))
		fr.Post("/feedings", recordFeedingHandler(svc))
	})
}

// setScheduleRequest configura el plan de alimentación del dependiente.
type setScheduleRequest struct {
	IntervalHours float64 `json:"interval_hours"` // fraccional permitido: 2.5 = 2h30m
	IsActive      bool    `json:"is_active"`
}

// recordFeedingRequest registra una alimentación ya hecha.
type recordFeedingRequest struct {
	At string `json:"at"` // RFC3339; vacío = ahora
}

// scheduleResponse representa el plan con su próximo horario computado.
type scheduleResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	DependentID     string     `json:"dependent_id"`
	IntervalHours   float64    `json:"interval_hours"`
	LastFeedingTime *time.Time `json:"last_feeding_time,omitempty"`
	NextFeedingTime *time.Time `json:"next_feeding_time,omitempty"`
	IsActive        bool       `json:"is_active"`
}

func toScheduleResponse(s Schedule) scheduleResponse {
	return scheduleResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		DependentID:     s.DependentID,
		IntervalHours:   s.IntervalHours,
		LastFeedingTime: s.LastFeedingTime,
		NextFeedingTime: s.NextFeedingTime,
		IsActive:        s.IsActive,
	}
}

// setScheduleHandler godoc
// @Summary Configurar plan de alimentación
// @Description Crea o actualiza el plan de alimentación del dependiente (upsert por user+dependiente). Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags feeding
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param dependentID path string true "ID del dependiente"
// @Param payload body setScheduleRequest true "Intervalo en horas (fraccional permitido) y estado"
// @Success 200 {object} scheduleResponse
// @Failure 400 {string} string "invalid json / intervalo inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/dependents/{dependentID}/feeding/schedule [put]
func setScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownerFromRequest(w, r)
		if !ok {
			return
		}

		var req setScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sched, err := svc.SetSchedule(r.Context(), userID, chi.URLParam(r, "dependentID"), SetScheduleInput{
			IntervalHours: req.IntervalHours,
			IsActive:      req.IsActive,
		})
		if err != nil {
			writeFeedingError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toScheduleResponse(sched))
	}
}

// getScheduleHandler godoc
// @Summary Ver plan de alimentación
// @Tags feeding
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param dependentID path string true "ID del dependiente"
// @Success 200 {object} scheduleResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "schedule not found"
// @Router /users/{userID}/dependents/{dependentID}/feeding/schedule [get]
func getScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownerFromRequest(w, r)
		if !ok {
			return
		}

		sched, err := svc.Get(r.Context(), userID, chi.URLParam(r, "dependentID"))
		if err != nil {
			writeFeedingError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toScheduleResponse(sched))
	}
}

// recordFeedingHandler godoc
// @Summary Registrar alimentación
// @Description Registra una alimentación completada (la dispara la acción externa "feed completado") y recomputa el próximo horario. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags feeding
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param dependentID path string true "ID del dependiente"
// @Param payload body recordFeedingRequest false "Momento de la toma (RFC3339); vacío = ahora"
// @Success 200 {object} scheduleResponse
// @Failure 400 {string} string "invalid json / at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "schedule not found"
// @Router /users/{userID}/dependents/{dependentID}/feeding/feedings [post]
func recordFeedingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownerFromRequest(w, r)
		if !ok {
			return
		}

		var req recordFeedingRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		var at time.Time
		if strings.TrimSpace(req.At) != "" {
			t, err := time.Parse(time.RFC3339, req.At)
			if err != nil {
				http.Error(w, "at must be RFC3339", http.StatusBadRequest)
				return
			}
			at = t
		}

		sched, err := svc.RecordFeeding(r.Context(), userID, chi.URLParam(r, "dependentID"), at)
		if err != nil {
			writeFeedingError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toScheduleResponse(sched))
	}
}

func ownerFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	userID := chi.URLParam(r, "userID")
	if claims.UserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return userID, true
}

func writeFeedingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "schedule not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
