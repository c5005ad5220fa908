package events

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
	r.Post("/events/{eventID}/activate", activateEventHandler(svc))
	r.Post("/events/{eventID}/complete", completeEventHandler(svc))
	r.Get("/users/{userID}/events", listEventsHandler(svc))
}

// eventResponse representa un evento devuelto por la API.
type eventResponse struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	DependentID      string      `json:"dependent_id,omitempty"`
	Type             EventType   `json:"type"`
	Payload          Payload     `json:"payload"`
	ScheduledTime    time.Time   `json:"scheduled_time"`
	Status           EventStatus `json:"status"`
	Priority         Priority    `json:"priority"`
	PointsEarned     int         `json:"points_earned"`
	ExperienceEarned int         `json:"experience_earned"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:               e.ID,
		UserID:           e.UserID,
		DependentID:      e.DependentID,
		Type:             e.Type,
		Payload:          e.Payload,
		ScheduledTime:    e.ScheduledTime,
		Status:           e.Status,
		Priority:         e.Priority,
		PointsEarned:     e.PointsEarned,
		ExperienceEarned: e.ExperienceEarned,
		CompletedAt:      e.CompletedAt,
		CreatedAt:        e.CreatedAt,
	}
}

// completeEventRequest permite overrides opcionales del reward.
type completeEventRequest struct {
	OverridePoints     *int `json:"override_points"`
	OverrideExperience *int `json:"override_experience"`
}

// completeEventResponse es el resultado estructurado de una completion.
type completeEventResponse struct {
	Event eventResponse `json:"event"`

	Points     int `json:"points"`
	Experience int `json:"experience"`
	NewTotal   int `json:"new_total"`
	StreakDays int `json:"streak_days"`
	Level      int `json:"level"`

	NewlyEarnedBadges      []string `json:"newly_earned_badges"`
	NewlyUnlockedCosmetics []string `json:"newly_unlocked_cosmetics"`

	AlreadyCompleted bool `json:"already_completed"`

	// Seteado cuando el evento quedó completado pero el reward no llegó
	// entero al ledger/audit log; nunca un éxito silencioso.
	Warning string `json:"warning,omitempty"`
}

// activateEventHandler godoc
// @Summary Activar evento
// @Description Pasa el evento de pending a active. Si ya no está pending devuelve el estado actual (idempotente). Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param eventID path string true "ID del evento"
// @Success 200 {object} eventResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "event not found"
// @Router /events/{eventID}/activate [post]
func activateEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Activate(r.Context(), chi.URLParam(r, "eventID"), claims.UserID)
		if err != nil {
			writeEventError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toEventResponse(e))
	}
}

// completeEventHandler godoc
// @Summary Completar evento
// @Description Completa el evento, computa el reward (tabla tipo×prioridad u overrides) y actualiza el ledger. Repetir la llamada devuelve el mismo resultado sin duplicar el reward. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param eventID path string true "ID del evento"
// @Param payload body completeEventRequest false "Overrides opcionales"
// @Success 200 {object} completeEventResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "event not found"
// @Failure 502 {object} completeEventResponse "evento completado, reward incompleto"
// @Router /events/{eventID}/complete [post]
func completeEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req completeEventRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		res, err := svc.Complete(r.Context(), chi.URLParam(r, "eventID"), claims.UserID, CompleteInput{
			OverridePoints:     req.OverridePoints,
			OverrideExperience: req.OverrideExperience,
		})

		resp := completeEventResponse{
			Event:                  toEventResponse(res.Event),
			Points:                 res.Points,
			Experience:             res.Experience,
			NewTotal:               res.NewTotal,
			StreakDays:             res.StreakDays,
			Level:                  res.Level,
			NewlyEarnedBadges:      res.NewlyEarnedBadges,
			NewlyUnlockedCosmetics: res.NewlyUnlockedCosmetics,
			AlreadyCompleted:       res.AlreadyCompleted,
		}
		if resp.NewlyEarnedBadges == nil {
			resp.NewlyEarnedBadges = []string{}
		}
		if resp.NewlyUnlockedCosmetics == nil {
			resp.NewlyUnlockedCosmetics = []string{}
		}

		if err != nil {
			if errors.Is(err, ErrRewardNotApplied) || errors.Is(err, ErrAuditNotAppended) {
				// El evento quedó completado; el caller tiene que
				// enterarse de que el ledger quedó atrás.
				resp.Warning = err.Error()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
			writeEventError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// listEventsHandler godoc
// @Summary Listar eventos del usuario
// @Description Lista eventos del usuario, filtrables por status y tipo. Orden: urgencia primero, luego hora programada. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param status query string false "pending|active|completed (repetible, coma-separado)"
// @Param type query string false "Tipo de evento (coma-separado)"
// @Param dependent_id query string false "Filtrar por dependiente ('self' = solo eventos propios)"
// @Success 200 {array} eventResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
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

		filter := ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				filter.Statuses = append(filter.Statuses, EventStatus(strings.TrimSpace(s)))
			}
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				filter.Types = append(filter.Types, EventType(strings.TrimSpace(s)))
			}
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("dependent_id")); raw != "" {
			dep := raw
			if dep == "self" {
				dep = ""
			}
			filter.DependentID = &dep
		}

		list, err := svc.ListByUser(r.Context(), userID, filter)
		if err != nil {
			writeEventError(w, err)
			return
		}

		out := make([]eventResponse, 0, len(list))
		for _, e := range list {
			out = append(out, toEventResponse(e))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "event not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
