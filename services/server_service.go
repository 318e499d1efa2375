package services

import (
	"context"
	"time"

	"jilai-deployer/internal/config"
	"jilai-deployer/internal/env"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
)

// ConfigSource yields the configuration a request should see.
type ConfigSource func() config.AppConfig

// StaticConfig serves one fixed configuration.
func StaticConfig(cfg config.AppConfig) ConfigSource {
	return func() config.AppConfig { return cfg }
}

// Server answers the status API: health, run history and the configured plan.
type Server struct {
	config    ConfigSource
	runs      RunRepository
	startTime time.Time
}

/**
 * Create new status server
 * @param {ConfigSource} source - Configuration per request, config.Current follows reloads
 * @param {RunRepository} runs - Run history, usually *store.RunRepo
 * @returns {*Server} New server instance
 */
func NewServer(source ConfigSource, runs RunRepository) *Server {
	return &Server{
		config:    source,
		runs:      runs,
		startTime: time.Now(),
	}
}

func (s *Server) Runs() RunRepository {
	return s.runs
}

// Plan resolves the configured modules without touching the chain.
func (s *Server) Plan() (*models.DeploymentPlan, error) {
	cfg := s.config()
	return NewDeployService(&cfg, nil, nil, nil).Plan(nil)
}

/**
 * Get health check information
 * @returns {models.HealthResponse} Version, uptime, request counters and run statistics
 * @description
 * - Status is "UP" unless the run history cannot be read
 * - Run statistics count every stored run
 * @example
 * health := server.GetHealthz(ctx)
 * fmt.Printf("Server status: %s, Uptime: %s\n", health.Status, health.Uptime)
 */
func (s *Server) GetHealthz(ctx context.Context) models.HealthResponse {
	response := models.HealthResponse{
		Version:   env.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(s.startTime).String(),
		Network:   s.config().Chain.Network,
		Metrics: models.Metrics{
			TotalRequests: GetTotalRequestCount(),
			ErrorRequests: GetTotalErrorCount(),
		},
	}

	runs, err := s.runs.ListRuns(ctx, 0)
	if err != nil {
		logger.Errorf("Failed to list runs: %v", err)
		response.Status = "DEGRADED"
		return response
	}
	response.Metrics.TotalRuns = len(runs)
	for _, run := range runs {
		switch run.State {
		case models.RunCompleted:
			response.Metrics.CompletedRuns++
		case models.RunFailed:
			response.Metrics.FailedRuns++
		}
		for _, m := range run.Modules {
			if !m.Resumed {
				response.Metrics.ModulesDeployed++
			}
		}
	}
	return response
}
