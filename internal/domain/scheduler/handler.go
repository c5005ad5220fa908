package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"family-health-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/users/{userID}/events/schedule", scheduleForUserHandler(svc))
}

// scheduleResponse son los conteos de una corrida de generación.
type scheduleResponse struct {
	MedicationCreated int `json:"medication_created"`
	FeedingCreated    int `json:"feeding_created"`
	LifecycleCreated  int `json:"lifecycle_created"`
	TotalCreated      int `json:"total_created"`
	SkippedUnits      int `json:"skipped_units"`
	DroppedNotices    int `json:"dropped_notices"`
}

// scheduleForUserHandler godoc
// @Summary Generar eventos para el usuario
// @Description Evalúa las fuentes de triggers (medicación, alimentación, ciclo de vida) y materializa eventos pending. Idempotente: correrlo dos veces seguidas no duplica eventos. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags scheduler
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} scheduleResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/events/schedule [post]
func scheduleForUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID := chi.URLParam(r, "userID")
		if claims.UserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		counts, err := svc.GenerateForUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(scheduleResponse{
			MedicationCreated: counts.MedicationCreated,
			FeedingCreated:    counts.FeedingCreated,
			LifecycleCreated:  counts.LifecycleCreated,
			TotalCreated:      counts.Created(),
			SkippedUnits:      counts.SkippedUnits,
			DroppedNotices:    counts.DroppedNotices,
		})
	}
}
