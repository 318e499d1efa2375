package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"jilai-deployer/internal/chain"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/state"
)

// RunRepository persists run history.
type RunRepository interface {
	CreateRun(ctx context.Context, run *models.Run) error
	UpdateRun(ctx context.Context, run *models.Run) error
	AddModule(ctx context.Context, runID string, m models.DeployedModule) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
}

/**
 * Deploy options
 * @property {*state.ResumeState} resume - Addresses of modules that already exist
 * @property {string} stateFile - Resume state file updated after every module, empty disables it
 * @property {[]string} only - Deploy only these modules; dependencies outside the set must be in resume
 */
type DeployOptions struct {
	Resume    *state.ResumeState
	StateFile string
	Only      []string
}

type DeployService struct {
	cfg      *config.AppConfig
	client   chain.Client
	repo     RunRepository
	progress io.Writer
}

// NewDeployService wires configuration, chain client and optional run history. repo may be nil.
func NewDeployService(cfg *config.AppConfig, client chain.Client, repo RunRepository, progress io.Writer) *DeployService {
	return &DeployService{cfg: cfg, client: client, repo: repo, progress: progress}
}

/**
 * Build and validate the deployment plan from configuration
 * @param {[]string} only - Optional subset of module names
 * @returns {*models.DeploymentPlan} Validated plan
 * @throws
 * - Configuration errors from module conversion or plan resolution
 */
func (s *DeployService) Plan(only []string) (*models.DeploymentPlan, error) {
	specs, err := s.cfg.ModuleSpecs()
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return ResolvePlan(specs)
	}

	selected := map[string]bool{}
	for _, name := range only {
		if _, err := s.cfg.Module(name); err != nil {
			return nil, &models.ConfigurationError{Module: name, Err: err}
		}
		selected[name] = true
	}
	var subset []models.ModuleSpec
	external := map[string]bool{}
	for _, spec := range specs {
		if !selected[spec.Name] {
			continue
		}
		subset = append(subset, spec)
		for _, d := range spec.DependsOn {
			if !selected[d] {
				external[d] = true
			}
		}
	}
	names := make([]string, 0, len(external))
	for n := range external {
		names = append(names, n)
	}
	return ResolvePlan(subset, WithExternal(names...))
}

func (s *DeployService) checkResume(plan *models.DeploymentPlan, resume *state.ResumeState) error {
	network := s.cfg.Chain.Network
	if resume != nil && resume.Network != "" && resume.Network != network {
		return &models.ConfigurationError{Reason: fmt.Sprintf("resume state belongs to network %q, deploying to %q", resume.Network, network)}
	}
	for _, name := range plan.External {
		if _, ok := resume.Address(name); !ok {
			return &models.ConfigurationError{Module: name, Reason: "dependency outside the selected modules has no address in the resume state"}
		}
	}
	return nil
}

/**
 * Plan and execute a deployment run
 * @param {context.Context} ctx - Bounds the whole run; cancelling stops before the next module
 * @param {DeployOptions} opts - Resume and subset options
 * @returns {*models.Run} The run with its final state and recorded modules
 * @returns {error} Configuration, client or *models.DeploymentFailedError
 * @description
 * - planning: configuration, plan and resume state are validated, nothing touches the chain
 * - executing: modules are created in plan order, each recorded in the state file and run history
 * - completed/failed: final state is stored and metrics are pushed
 */
func (s *DeployService) Deploy(ctx context.Context, opts DeployOptions) (*models.Run, error) {
	network := s.cfg.Chain.Network
	run := models.NewRun(uuid.NewString(), network)

	plan, err := s.Plan(opts.Only)
	if err != nil {
		run.Error = err.Error()
		return run, err
	}
	run.Plan = plan.Names()
	if err := s.checkResume(plan, opts.Resume); err != nil {
		run.Error = err.Error()
		return run, err
	}

	account, err := s.client.CurrentAccount(ctx)
	if err != nil {
		err = &models.ClientError{Op: "account", Err: err}
		run.Error = err.Error()
		return run, err
	}
	run.Account = account
	fmt.Fprintf(s.progress, "Deploying with account: %s\n", account)

	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, run); err != nil {
			return run, fmt.Errorf("record run: %w", err)
		}
	}
	if err := run.Transition(models.RunExecuting); err != nil {
		return run, err
	}
	s.saveRun(ctx, run)
	logger.Infof("Run %s executing %d modules on %s: %v", run.ID, plan.Len(), network, run.Plan)

	var stateFile *state.File
	if opts.StateFile != "" {
		resume := opts.Resume
		if resume == nil {
			resume = state.New(network)
		}
		resume.Network = network
		stateFile = state.NewFile(opts.StateFile, resume)
	}

	orch := NewOrchestrator(s.client,
		WithProgress(s.progress),
		WithResume(opts.Resume),
		OnDeployed(func(m models.DeployedModule) {
			if stateFile != nil {
				if err := stateFile.Record(run.ID, m); err != nil {
					logger.Warnf("Failed to record %s in %s: %v", m.Name, stateFile.Path(), err)
				}
			}
			if s.repo != nil {
				if err := s.repo.AddModule(context.WithoutCancel(ctx), run.ID, m); err != nil {
					logger.Warnf("Failed to store %s of run %s: %v", m.Name, run.ID, err)
				}
			}
		}),
	)

	modules, execErr := orch.Execute(ctx, plan)
	run.Modules = modules
	if execErr != nil {
		run.Error = execErr.Error()
		_ = run.Transition(models.RunFailed)
	} else {
		_ = run.Transition(models.RunCompleted)
	}
	s.saveRun(context.WithoutCancel(ctx), run)
	ObserveRun(network, run.State)

	if err := PushMetrics(s.cfg.Metrics.Pushgateway, s.cfg.Metrics.Job, network); err != nil {
		logger.Warnf("%v", err)
	}
	return run, execErr
}

func (s *DeployService) saveRun(ctx context.Context, run *models.Run) {
	if s.repo == nil {
		return
	}
	if err := s.repo.UpdateRun(ctx, run); err != nil {
		logger.Warnf("Failed to update run %s: %v", run.ID, err)
	}
}
