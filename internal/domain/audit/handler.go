package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"family-health-engine/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, v *Validator) {
	r.Post("/users/{userID}/audit/validate", validateHandler(v))
}

// validateRequest configura la corrida del validador.
type validateRequest struct {
	DependentID string `json:"dependent_id"`
	ProbePoints int    `json:"probe_points"` // default 10
}

type segmentResponse struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// validateResponse es el resultado estructurado por segmento del flujo.
type validateResponse struct {
	UserID      string            `json:"user_id"`
	DependentID string            `json:"dependent_id,omitempty"`
	ProbePoints int               `json:"probe_points"`
	Segments    []segmentResponse `json:"segments"`
	Passed      bool              `json:"passed"`
	Summary     string            `json:"summary"`
}

// validateHandler godoc
// @Summary Validar consistencia del flujo de rewards
// @Description Reproduce el flujo puntos→badges→nivel→cosméticos con un probe conocido y reporta pass/fail por segmento. El probe es una emisión real: suma sus puntos/experiencia al ledger del usuario y deja su propio interaction record, así que cada corrida mueve el ledger. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags audit
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Param payload body validateRequest false "Dependiente y probe opcionales"
// @Success 200 {object} validateResponse
// @Failure 400 {string} string "probe inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/audit/validate [post]
func validateHandler(v *Validator) http.HandlerFunc {
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

		var req validateRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}
		if req.ProbePoints == 0 {
			req.ProbePoints = 10
		}

		rep, err := v.Run(r.Context(), userID, req.DependentID, req.ProbePoints)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := validateResponse{
			UserID:      rep.UserID,
			DependentID: rep.DependentID,
			ProbePoints: rep.ProbePoints,
			Passed:      rep.Passed,
			Summary:     rep.Summary,
		}
		for _, seg := range rep.Segments {
			resp.Segments = append(resp.Segments, segmentResponse{
				Name:   seg.Name,
				Passed: seg.Passed,
				Detail: seg.Detail,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
