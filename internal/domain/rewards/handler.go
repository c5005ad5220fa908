package rewards

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"family-health-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/users/{userID}/ledger", getLedgerHandler(svc))
}

// ledgerResponse es el snapshot de gamificación del usuario.
type ledgerResponse struct {
	UserID            string     `json:"user_id"`
	TotalPoints       int        `json:"total_points"`
	TotalExperience   int        `json:"total_experience"`
	StreakDays        int        `json:"streak_days"`
	Level             int        `json:"level"`
	Badges            []string   `json:"badges"`
	CosmeticUnlocks   []string   `json:"cosmetic_unlocks"`
	LastCompletedDate *time.Time `json:"last_completed_date,omitempty"`
}

// getLedgerHandler godoc
// @Summary Ledger de gamificación del usuario
// @Description Devuelve puntos acumulados, racha, badges y desbloqueos del usuario autenticado. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags rewards
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} ledgerResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/ledger [get]
func getLedgerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID := chi.URLParam(r, "userID")
		// El ledger solo lo lee su dueño; los leaderboards agregados
		// viven en el host, no acá.
		if claims.UserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		l, err := svc.Snapshot(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := ledgerResponse{
			UserID:            l.UserID,
			TotalPoints:       l.TotalPoints,
			TotalExperience:   l.TotalExperience,
			StreakDays:        l.StreakDays,
			Level:             l.Level(),
			Badges:            l.Badges,
			CosmeticUnlocks:   l.CosmeticUnlocks,
			LastCompletedDate: l.LastCompletedDate,
		}
		if resp.Badges == nil {
			resp.Badges = []string{}
		}
		if resp.CosmeticUnlocks == nil {
			resp.CosmeticUnlocks = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
