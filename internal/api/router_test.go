package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casematch-lab/internal/api/handlers"
	"casematch-lab/internal/config"
	"casematch-lab/internal/domain/services"
	"casematch-lab/internal/streaming"
	"casematch-lab/pkg/logger"
)

func newTestServer(t *testing.T, apiKey string) (*httptest.Server, *services.CaseStore) {
	t.Helper()

	log := logger.NewNop()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "casematch-lab", Version: "test"},
		Auth: config.AuthConfig{APIKey: apiKey},
		Matching: config.MatchingConfig{
			DefaultThreshold: 0.7,
			MaxCases:         1000,
		},
	}

	extractor := services.NewPatternExtractor(log)
	scorer := services.NewSimilarityScorer()
	store := services.NewCaseStore(extractor, log)
	matcher := services.NewCaseMatcher(store, extractor, scorer, cfg.Matching, log)
	eventBus := streaming.NewEventBus(nil, log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Store:    store,
		Matcher:  matcher,
		Config:   cfg,
		EventBus: eventBus,
		Logger:   log,
	})

	srv := httptest.NewServer(NewRouter(*cfg, h, nil, log).Setup())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyReportsUnconfiguredDependencies(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "not configured", body.Checks["redis"])
	assert.Equal(t, "not configured", body.Checks["nats"])
}

func TestCreateCaseRequiresOutcome(t *testing.T) {
	srv, store := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/cases", map[string]any{
		"incident": map[string]any{"description": "phishing email"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestCreateAndGetCase(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/cases", map[string]any{
		"incident": map[string]any{
			"description": "phishing email with malicious link",
			"indicators":  []string{"1.2.3.4"},
			"severity":    "high",
		},
		"outcome": map[string]any{"brief_description": "blocked sender domain"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		CaseID     uuid.UUID `json:"case_id"`
		TotalCases int       `json:"total_cases"`
	}
	decodeJSON(t, resp, &created)
	assert.Equal(t, 1, created.TotalCases)

	getResp, err := http.Get(fmt.Sprintf("%s/api/v1/cases/%s", srv.URL, created.CaseID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var record struct {
		ID      uuid.UUID `json:"id"`
		Outcome struct {
			BriefDescription string `json:"brief_description"`
		} `json:"outcome"`
		Fingerprint []string `json:"fingerprint"`
	}
	decodeJSON(t, getResp, &record)
	assert.Equal(t, created.CaseID, record.ID)
	assert.Equal(t, "blocked sender domain", record.Outcome.BriefDescription)
	assert.Contains(t, record.Fingerprint, "topic:phishing")
}

func TestGetCaseInvalidAndUnknownID(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/cases/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/api/v1/cases/%s", srv.URL, uuid.New()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/cases", map[string]any{
		"incident": map[string]any{
			"description": "phishing email with malicious link",
			"indicators":  []string{"1.2.3.4"},
			"severity":    "medium",
		},
		"outcome": map[string]any{"brief_description": "blocked sender domain"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/match", map[string]any{
		"incident": map[string]any{
			"description": "phishing campaign detected",
			"indicators":  []string{"1.2.3.4"},
			"severity":    "medium",
		},
		"threshold": 0.3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Total   int `json:"total"`
		Matches []struct {
			OutcomeSummary    string  `json:"outcome_summary"`
			Score             float64 `json:"score"`
			SimilarityPercent int     `json:"similarity_percent"`
		} `json:"matches"`
	}
	decodeJSON(t, resp, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "blocked sender domain", body.Matches[0].OutcomeSummary)
	assert.Equal(t, 60, body.Matches[0].SimilarityPercent)
}

func TestMatchRequiresIncident(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/match", map[string]any{"threshold": 0.5})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPruneEndpoint(t *testing.T) {
	srv, store := newTestServer(t, "")

	for i := 0; i < 6; i++ {
		resp := postJSON(t, srv.URL+"/api/v1/cases", map[string]any{
			"incident": map[string]any{"description": fmt.Sprintf("incident %d", i)},
			"outcome":  map[string]any{"brief_description": fmt.Sprintf("resolved %d", i)},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postJSON(t, srv.URL+"/api/v1/cases/prune", map[string]any{"max_size": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Removed   int `json:"removed"`
		Remaining int `json:"remaining"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, 4, body.Removed)
	assert.Equal(t, 2, body.Remaining)
	assert.Equal(t, 2, store.Len())
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Contains(t, body, "store")
	assert.Contains(t, body, "matcher")
}

func TestAPIKeyAuth(t *testing.T) {
	srv, _ := newTestServer(t, "sekrit")

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer sekrit")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays public.
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
