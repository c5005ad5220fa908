package recordsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"family-health-engine/internal/platform/httpclient"
	"family-health-engine/internal/ports/healthdata"
)

var (
	ErrNotConfigured = errors.New("health-records client not configured")
	ErrUnauthorized  = errors.New("health-records unauthorized")
	ErrUpstream      = errors.New("health-records upstream error")
)

// Config del cliente del servicio de registros de salud.
// BaseURL y APIKey normalmente vienen de la config del servicio que lo instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Vacío => "X-Api-Key".
	APIKeyHeader string

	// Timeout HTTP. Debe ser corto: un upstream lento cuenta como
	// fallo de unidad en el batch.
	Timeout time.Duration
}

// Client implementa healthdata.Source contra la API del subsistema de
// registros de salud (medicación, dependientes, avisos de ciclo de vida).
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

func (c *Client) headers() map[string]string {
	return map[string]string{c.apiKeyHeader: c.apiKey}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	err := c.http.DoJSON(ctx, http.MethodGet, path, c.headers(), nil, out)
	if err == nil {
		return nil
	}

	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		default:
			return fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

type userPageResponse struct {
	UserIDs []string `json:"user_ids"`
}

func (c *Client) Users(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var out userPageResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/users?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return out.UserIDs, nil
}

type dependentDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Relation  string     `json:"relation"`
	BirthDate *time.Time `json:"birth_date"`
}

func (c *Client) Dependents(ctx context.Context, userID string) ([]healthdata.Dependent, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUpstream)
	}

	var out struct {
		Dependents []dependentDTO `json:"dependents"`
	}
	if err := c.get(ctx, "/v1/users/"+url.PathEscape(userID)+"/dependents", &out); err != nil {
		return nil, err
	}

	deps := make([]healthdata.Dependent, 0, len(out.Dependents))
	for _, d := range out.Dependents {
		deps = append(deps, healthdata.Dependent{
			ID:        d.ID,
			Name:      d.Name,
			Relation:  d.Relation,
			BirthDate: d.BirthDate,
		})
	}
	return deps, nil
}

type medicationPlanDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	DoseTimes []string   `json:"dose_times"`
	Priority  string     `json:"priority"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (c *Client) MedicationPlans(ctx context.Context, userID, dependentID string) ([]healthdata.MedicationPlan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUpstream)
	}

	path := "/v1/users/" + url.PathEscape(userID) + "/medication-plans"
	if dep := strings.TrimSpace(dependentID); dep != "" {
		path += "?dependent_id=" + url.QueryEscape(dep)
	}

	var out struct {
		Plans []medicationPlanDTO `json:"plans"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}

	plans := make([]healthdata.MedicationPlan, 0, len(out.Plans))
	for _, p := range out.Plans {
		plans = append(plans, healthdata.MedicationPlan{
			ID:        p.ID,
			Name:      p.Name,
			DoseTimes: p.DoseTimes,
			Priority:  p.Priority,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
		})
	}
	return plans, nil
}

type lifecycleNoticeDTO struct {
	ID          string            `json:"id"`
	DependentID string            `json:"dependent_id"`
	DueDate     time.Time         `json:"due_date"`
	Priority    string            `json:"priority"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Extra       map[string]string `json:"extra"`
}

func (c *Client) LifecycleNotices(ctx context.Context, userID string) ([]healthdata.LifecycleNotice, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUpstream)
	}

	var out struct {
		Notices []lifecycleNoticeDTO `json:"notices"`
	}
	if err := c.get(ctx, "/v1/users/"+url.PathEscape(userID)+"/lifecycle-notices", &out); err != nil {
		return nil, err
	}

	notices := make([]healthdata.LifecycleNotice, 0, len(out.Notices))
	for _, n := range out.Notices {
		notices = append(notices, healthdata.LifecycleNotice{
			ID:          n.ID,
			DependentID: n.DependentID,
			DueDate:     n.DueDate,
			Priority:    n.Priority,
			Category:    n.Category,
			Title:       n.Title,
			Extra:       n.Extra,
		})
	}
	return notices, nil
}
