package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jilai-deployer/internal/config"
	"jilai-deployer/internal/middleware"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/store"
	"jilai-deployer/services"
)

func newTestRouter(t *testing.T, cfg *config.AppConfig) (*gin.Engine, *store.RunRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := &store.RunRepo{DB: db}

	server := services.NewServer(services.StaticConfig(*cfg), repo)
	r := gin.New()
	r.Use(middleware.MetricsMiddleware())
	NewAPIController(server).RegisterRoutes(r)
	NewRunController(server).RegisterRoutes(r)
	return r, repo
}

func jilaiConfig() *config.AppConfig {
	return &config.AppConfig{
		Chain:   config.ChainConfig{Network: "sepolia"},
		Modules: config.DefaultModules(),
	}
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func seedRun(t *testing.T, repo *store.RunRepo, id string, final models.RunState) {
	t.Helper()
	ctx := context.Background()
	run := models.NewRun(id, "sepolia")
	run.Plan = []string{"JilaiToken"}
	require.NoError(t, repo.CreateRun(ctx, run))
	require.NoError(t, run.Transition(models.RunExecuting))
	require.NoError(t, repo.AddModule(ctx, id, models.DeployedModule{Name: "JilaiToken", Address: "0x01", Position: 1}))
	require.NoError(t, run.Transition(final))
	require.NoError(t, repo.UpdateRun(ctx, run))
}

func TestRunRoutes(t *testing.T) {
	r, repo := newTestRouter(t, jilaiConfig())

	w := get(r, "/deployer/api/v1/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	seedRun(t, repo, "run-1", models.RunCompleted)

	w = get(r, "/deployer/api/v1/runs?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].State)

	w = get(r, "/deployer/api/v1/runs/run-1")
	require.Equal(t, http.StatusOK, w.Code)
	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	addr, ok := run.Address("JilaiToken")
	assert.True(t, ok)
	assert.Equal(t, "0x01", addr)

	w = get(r, "/deployer/api/v1/runs/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "run.notexist", errResp.Code)

	w = get(r, "/deployer/api/v1/runs?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanRoute(t *testing.T) {
	r, _ := newTestRouter(t, jilaiConfig())
	w := get(r, "/deployer/api/v1/plan")
	require.Equal(t, http.StatusOK, w.Code)

	var plan models.DeploymentPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, []string{"JilaiToken", "JilaiAirdrop", "JilaiVesting", "JilaiCrowdSale"}, plan.Names())

	cfg := jilaiConfig()
	cfg.Modules = append(cfg.Modules, config.ModuleConfig{Name: "JilaiToken"})
	r, _ = newTestRouter(t, cfg)
	w = get(r, "/deployer/api/v1/plan")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	r, repo := newTestRouter(t, jilaiConfig())
	seedRun(t, repo, "ok", models.RunCompleted)
	seedRun(t, repo, "bad", models.RunFailed)

	w := get(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "UP", health.Status)
	assert.Equal(t, "sepolia", health.Network)
	assert.Equal(t, 2, health.Metrics.TotalRuns)
	assert.Equal(t, 1, health.Metrics.CompletedRuns)
	assert.Equal(t, 1, health.Metrics.FailedRuns)
	assert.Equal(t, 2, health.Metrics.ModulesDeployed)

	w = get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deployer_http_requests_total")
}
