package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jilai-deployer/internal/chain"
	"jilai-deployer/internal/duration"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/state"
	"jilai-deployer/internal/utils"
)

// Orchestrator creates the modules of a plan one after another against a chain client.
type Orchestrator struct {
	client     chain.Client
	progress   io.Writer
	resume     *state.ResumeState
	onDeployed []func(models.DeployedModule)
	tracer     trace.Tracer
}

type Option func(*Orchestrator)

// WithProgress sets the operator-facing stream, stdout by default.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) { o.progress = w }
}

// WithResume supplies addresses of modules that already exist; they are never created again.
func WithResume(s *state.ResumeState) Option {
	return func(o *Orchestrator) { o.resume = s }
}

// OnDeployed registers fn to be called after every recorded module, in plan order.
func OnDeployed(fn func(models.DeployedModule)) Option {
	return func(o *Orchestrator) { o.onDeployed = append(o.onDeployed, fn) }
}

func NewOrchestrator(client chain.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		progress: os.Stdout,
		tracer:   otel.Tracer("jilai-deployer/services"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

/**
 * Execute a deployment plan
 * @param {context.Context} ctx - Context passed to every chain client call
 * @param {*models.DeploymentPlan} plan - Validated plan from ResolvePlan
 * @returns {[]models.DeployedModule} Modules recorded so far, in plan order
 * @returns {error} *models.DeploymentFailedError naming the failed module
 * @description
 * - Strictly sequential: a module's initializer may need the addresses of earlier modules
 * - Modules with an address in the resume state are recorded without a creation call
 * - Timestamp arguments use a now() taken right before the module is created
 * - On failure nothing is retried or rolled back; earlier modules stay recorded
 */
func (o *Orchestrator) Execute(ctx context.Context, plan *models.DeploymentPlan) ([]models.DeployedModule, error) {
	total := plan.Len()
	results := make([]models.DeployedModule, 0, total)
	addresses := make(map[string]string, total+len(plan.External))

	for _, name := range plan.External {
		addr, ok := o.resume.Address(name)
		if !ok {
			return nil, &models.ConfigurationError{Module: name, Reason: "external module has no known address"}
		}
		addresses[name] = addr
	}

	fail := func(spec models.ModuleSpec, position int, err error) ([]models.DeployedModule, error) {
		deployed := make([]models.DeployedModule, len(results))
		copy(deployed, results)
		logger.Errorf("Deployment of %s (%d/%d) failed: %v", spec.Name, position, total, err)
		return results, &models.DeploymentFailedError{
			Module:   spec.Name,
			Position: position,
			Total:    total,
			Deployed: deployed,
			Err:      err,
		}
	}

	for i, spec := range plan.Modules {
		position := i + 1

		if addr, ok := o.resume.Address(spec.Name); ok {
			m := models.DeployedModule{Name: spec.Name, Address: addr, Position: position, Resumed: true}
			results = append(results, m)
			addresses[spec.Name] = addr
			logger.Infof("%s already deployed at %s, skipping", spec.Name, addr)
			fmt.Fprintf(o.progress, "%s already deployed at: %s\n", spec.Name, addr)
			o.notify(m)
			continue
		}

		if err := ctx.Err(); err != nil {
			return fail(spec, position, err)
		}

		m, err := o.create(ctx, spec, position, addresses)
		if err != nil {
			return fail(spec, position, err)
		}
		results = append(results, m)
		addresses[spec.Name] = m.Address

		logger.Infof("%s deployed to %s (tx %s)", spec.Name, m.Address, m.TxHash)
		fmt.Fprintf(o.progress, "%s deployed to: %s\n", spec.Name, m.Address)
		o.notify(m)
	}
	return results, nil
}

func (o *Orchestrator) create(ctx context.Context, spec models.ModuleSpec, position int, addresses map[string]string) (models.DeployedModule, error) {
	ctx, span := o.tracer.Start(ctx, "create "+spec.Name, trace.WithAttributes(
		attribute.String("module.name", spec.Name),
		attribute.String("module.factory", spec.FactoryRef()),
		attribute.String("module.kind", string(spec.ProxyKind())),
		attribute.Int("module.position", position),
	))
	defer span.End()

	args, err := o.resolveArgs(ctx, spec, addresses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve arguments")
		return models.DeployedModule{}, err
	}

	req := chain.CreateRequest{
		Module:      spec.Name,
		Factory:     spec.FactoryRef(),
		Args:        args,
		Initializer: spec.InitializerName(),
		Kind:        spec.ProxyKind(),
	}
	logger.Debugf("Creating %s via %s.%s%v", spec.Name, req.Factory, req.Initializer, req.Args)

	start := time.Now()
	receipt, err := o.client.CreateUpgradeableModule(ctx, req)
	ObserveModuleCreate(spec.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create module")
		return models.DeployedModule{}, &models.ClientError{Op: "create", Module: spec.Name, Err: err}
	}
	span.SetAttributes(attribute.String("module.address", receipt.Address))

	ts := receipt.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	return models.DeployedModule{
		Name:      spec.Name,
		Address:   receipt.Address,
		Timestamp: ts,
		Position:  position,
		TxHash:    receipt.TxHash,
		Args:      args,
	}, nil
}

/**
 * Resolve the initializer arguments of one module
 * @description
 * - Literal slots pass through
 * - Address slots take the address recorded for the referenced module
 * - Timestamp slots share one now() per module, so opening < closing holds within a module
 */
func (o *Orchestrator) resolveArgs(ctx context.Context, spec models.ModuleSpec, addresses map[string]string) ([]string, error) {
	args := make([]string, 0, len(spec.Args))
	var now *int64
	for i, slot := range spec.Args {
		switch slot.Kind {
		case models.ArgLiteral:
			args = append(args, slot.Value)
		case models.ArgAddress:
			addr, ok := addresses[slot.Ref]
			if !ok {
				return nil, &models.ConfigurationError{Module: spec.Name, Reason: fmt.Sprintf("argument %d: no address recorded for %q", i, slot.Ref)}
			}
			args = append(args, addr)
		case models.ArgTimestamp:
			if now == nil {
				t, err := o.client.Now(ctx)
				if err != nil {
					return nil, &models.ClientError{Op: "now", Module: spec.Name, Err: err}
				}
				now = &t
			}
			t, err := duration.Offset(*now, slot.Offsets...)
			if err != nil {
				return nil, err
			}
			args = append(args, strconv.FormatInt(t, 10))
		case models.ArgUnits:
			n, err := utils.ParseUnits(slot.Value, slot.Decimals)
			if err != nil {
				return nil, &models.ConfigurationError{Module: spec.Name, Reason: fmt.Sprintf("argument %d", i), Err: err}
			}
			args = append(args, n.String())
		case models.ArgAccount:
			account, err := o.client.CurrentAccount(ctx)
			if err != nil {
				return nil, &models.ClientError{Op: "account", Module: spec.Name, Err: err}
			}
			args = append(args, account)
		default:
			return nil, &models.ConfigurationError{Module: spec.Name, Reason: fmt.Sprintf("argument %d: unknown slot kind %q", i, slot.Kind)}
		}
	}
	return args, nil
}

func (o *Orchestrator) notify(m models.DeployedModule) {
	for _, fn := range o.onDeployed {
		fn(m)
	}
}
