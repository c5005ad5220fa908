package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"family-health-engine/internal/adapters/healthdata/memsource"
	"family-health-engine/internal/ports/healthdata"
	"family-health-engine/internal/router"
)

func TestHTTP_EndToEnd_ScheduleCompleteReward(t *testing.T) {
	source := memsource.New()

	userID := "user-1"
	depID := "dep-1"
	start := time.Now().UTC().Add(-24 * time.Hour)

	source.SeedUser(userID, healthdata.Dependent{ID: depID, Name: "Abuela", Relation: "grandparent"})
	source.SeedPlans(userID, depID, healthdata.MedicationPlan{
		ID:        "plan-1",
		Name:      "Enalapril",
		DoseTimes: []string{"08:00"},
		Priority:  "urgent",
		StartDate: start,
	})
	source.SeedNotices(userID, healthdata.LifecycleNotice{
		ID:          "notice-1",
		DependentID: depID,
		DueDate:     time.Now().UTC().Add(24 * time.Hour),
		Priority:    "high",
		Category:    "checkup",
		Title:       "Control anual",
	})

	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil, Source: source}))
	defer ts.Close()

	// 1) Sin identidad => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/users/"+userID+"/events", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}

	// 2) Otro usuario no puede listar mis eventos
	{
		st, _ := doReq(t, ts.URL, "GET", "/users/"+userID+"/events", "user-2", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 cross-user list, got %d", st)
		}
	}

	// 3) Plan de alimentación activo cada 4h
	{
		st, body := doReq(t, ts.URL, "PUT", "/users/"+userID+"/dependents/"+depID+"/feeding/schedule", userID, map[string]any{
			"interval_hours": 4,
			"is_active":      true,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 set feeding schedule, got %d body=%s", st, string(body))
		}
	}

	// 4) Primera corrida del scheduler: una toma + una alimentación + un aviso
	{
		counts := scheduleRun(t, ts.URL, userID)
		if counts.MedicationCreated != 1 || counts.FeedingCreated != 1 || counts.LifecycleCreated != 1 {
			t.Fatalf("unexpected counts on first run: %+v", counts)
		}
	}

	// 5) Segunda corrida: mismos triggers, cero eventos nuevos
	{
		counts := scheduleRun(t, ts.URL, userID)
		if counts.TotalCreated != 0 {
			t.Fatalf("expected 0 created on second run, got %+v", counts)
		}
	}

	// 6) Listado: 3 pending, el urgent primero
	var medEventID string
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+userID+"/events?status=pending", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list events, got %d body=%s", st, string(body))
		}
		var list []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Priority string `json:"priority"`
		}
		if err := json.Unmarshal(body, &list); err != nil {
			t.Fatalf("unmarshal events: %v body=%s", err, string(body))
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 pending events, got %d", len(list))
		}
		if list[0].Priority != "urgent" {
			t.Fatalf("expected urgent event first, got %+v", list[0])
		}
		for _, e := range list {
			if e.Type == "MEDICATION" {
				medEventID = e.ID
			}
		}
		if medEventID == "" {
			t.Fatalf("medication event not found in %+v", list)
		}
	}

	// 7) Activar y completar la toma: urgent MEDICATION => 50*2.0 = 100 pts
	{
		st, body := doReq(t, ts.URL, "POST", "/events/"+medEventID+"/activate", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 activate, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/events/"+medEventID+"/complete", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 complete, got %d body=%s", st, string(body))
		}
		var resp completeResp
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal complete: %v body=%s", err, string(body))
		}
		if resp.Points != 100 || resp.Experience != 1000 {
			t.Fatalf("expected 100 pts / 1000 exp, got %+v", resp)
		}
		if resp.NewTotal != 100 || resp.StreakDays != 1 {
			t.Fatalf("unexpected ledger after first complete: %+v", resp)
		}
		if resp.AlreadyCompleted {
			t.Fatalf("first completion flagged as already completed")
		}
		if !contains(resp.NewlyEarnedBadges, "first_steps") {
			t.Fatalf("expected first_steps badge, got %v", resp.NewlyEarnedBadges)
		}
	}

	// 8) Reintentar la completion: mismo resultado, sin reward doble
	{
		st, body := doReq(t, ts.URL, "POST", "/events/"+medEventID+"/complete", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 re-complete, got %d body=%s", st, string(body))
		}
		var resp completeResp
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal re-complete: %v", err)
		}
		if !resp.AlreadyCompleted {
			t.Fatalf("expected already_completed on retry, got %+v", resp)
		}
		if resp.NewTotal != 100 {
			t.Fatalf("retry changed the ledger: %+v", resp)
		}
	}

	// 9) Ledger del dueño
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+userID+"/ledger", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 ledger, got %d body=%s", st, string(body))
		}
		var resp struct {
			TotalPoints     int      `json:"total_points"`
			TotalExperience int      `json:"total_experience"`
			StreakDays      int      `json:"streak_days"`
			Level           int      `json:"level"`
			Badges          []string `json:"badges"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal ledger: %v", err)
		}
		if resp.TotalPoints != 100 || resp.TotalExperience != 1000 || resp.StreakDays != 1 {
			t.Fatalf("unexpected ledger: %+v", resp)
		}
		if resp.Level != 2 {
			t.Fatalf("expected level 2 at 1000 exp, got %d", resp.Level)
		}
	}

	// 10) El validador ve el flujo consistente
	{
		st, body := doReq(t, ts.URL, "POST", "/users/"+userID+"/audit/validate", userID, map[string]any{
			"dependent_id": depID,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 validate, got %d body=%s", st, string(body))
		}
		var resp struct {
			Passed  bool   `json:"passed"`
			Summary string `json:"summary"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal validate: %v", err)
		}
		if !resp.Passed {
			t.Fatalf("expected consistent flow, got summary=%q", resp.Summary)
		}
	}

	// 11) Derivación de emoción: enfermedad activa => sick
	{
		st, body := doReq(t, ts.URL, "POST", "/users/"+userID+"/emotion", userID, map[string]any{
			"health_score": 76,
			"has_disease":  true,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 emotion, got %d body=%s", st, string(body))
		}
		var resp struct {
			State string `json:"state"`
			Score int    `json:"score"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal emotion: %v", err)
		}
		if resp.State != "sick" {
			t.Fatalf("expected sick, got %+v", resp)
		}
	}
}

func TestHTTP_Activate_UnknownEvent(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil, Source: memsource.New()}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "POST", "/events/nope/activate", "user-1", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", st)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil, Source: memsource.New()}))
	defer ts.Close()

	// /health no requiere identidad
	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", res.StatusCode)
	}
}

type completeResp struct {
	Points            int      `json:"points"`
	Experience        int      `json:"experience"`
	NewTotal          int      `json:"new_total"`
	StreakDays        int      `json:"streak_days"`
	Level             int      `json:"level"`
	NewlyEarnedBadges []string `json:"newly_earned_badges"`
	AlreadyCompleted  bool     `json:"already_completed"`
}

type scheduleCounts struct {
	MedicationCreated int `json:"medication_created"`
	FeedingCreated    int `json:"feeding_created"`
	LifecycleCreated  int `json:"lifecycle_created"`
	TotalCreated      int `json:"total_created"`
	SkippedUnits      int `json:"skipped_units"`
}

func scheduleRun(t *testing.T, baseURL, userID string) scheduleCounts {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/users/"+userID+"/events/schedule", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 schedule run, got %d body=%s", st, string(body))
	}

	var counts scheduleCounts
	if err := json.Unmarshal(body, &counts); err != nil {
		t.Fatalf("unmarshal schedule counts: %v body=%s", err, string(body))
	}
	return counts
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
