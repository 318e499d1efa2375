package services

import (
	"fmt"
	"sort"

	"jilai-deployer/internal/duration"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/utils"
)

type planOptions struct {
	external map[string]bool
}

type PlanOption func(*planOptions)

// WithExternal marks modules as deployed outside the plan; their addresses are supplied at execution.
func WithExternal(names ...string) PlanOption {
	return func(o *planOptions) {
		for _, n := range names {
			o.external[n] = true
		}
	}
}

/**
 * Order module specs so every dependency comes first
 * @param {[]models.ModuleSpec} specs - Modules to deploy
 * @param {...PlanOption} opts - Plan options
 * @returns {*models.DeploymentPlan} Validated plan, stable with respect to input order
 * @description
 * - Runs before anything touches the chain and has no side effects
 * - Address slots must reference a declared dependency
 * - Every argument slot is checked here so a bad slot never surfaces mid-run
 * @throws
 * - *models.DuplicateModuleError, *models.ConfigurationError for bad declarations
 * - *models.UnresolvedDependencyError when a dependency is neither in specs nor external
 * - *models.CyclicDependencyError when no valid order exists
 */
func ResolvePlan(specs []models.ModuleSpec, opts ...PlanOption) (*models.DeploymentPlan, error) {
	o := planOptions{external: map[string]bool{}}
	for _, opt := range opts {
		opt(&o)
	}

	index := make(map[string]int, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, &models.ConfigurationError{Reason: fmt.Sprintf("module #%d has no name", i+1)}
		}
		if _, dup := index[s.Name]; dup {
			return nil, &models.DuplicateModuleError{Module: s.Name}
		}
		if o.external[s.Name] {
			return nil, &models.ConfigurationError{Module: s.Name, Reason: "module is both planned and external"}
		}
		if err := validateArgs(s); err != nil {
			return nil, err
		}
		index[s.Name] = i
	}

	// deps[i] holds the in-plan dependencies of specs[i], without duplicates.
	deps := make([][]int, len(specs))
	dependents := make([][]int, len(specs))
	indegree := make([]int, len(specs))
	for i, s := range specs {
		declared := map[string]bool{}
		for _, d := range s.DependsOn {
			if declared[d] {
				continue
			}
			declared[d] = true
			if d == s.Name {
				return nil, &models.CyclicDependencyError{Cycle: []string{s.Name, s.Name}}
			}
			j, ok := index[d]
			if !ok {
				if o.external[d] {
					continue
				}
				return nil, &models.UnresolvedDependencyError{Module: s.Name, Dependency: d}
			}
			deps[i] = append(deps[i], j)
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
		for _, ref := range s.References() {
			if !declared[ref] {
				return nil, &models.ConfigurationError{
					Module: s.Name,
					Reason: fmt.Sprintf("argument references %q which is not a declared dependency", ref),
				}
			}
		}
	}

	// Kahn, always taking the earliest ready spec so the input order is kept where possible.
	done := make([]bool, len(specs))
	order := make([]models.ModuleSpec, 0, len(specs))
	for len(order) < len(specs) {
		next := -1
		for i := range specs {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &models.CyclicDependencyError{Cycle: findCycle(specs, deps, done)}
		}
		done[next] = true
		order = append(order, specs[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}

	plan := &models.DeploymentPlan{Modules: order}
	for name := range o.external {
		plan.External = append(plan.External, name)
	}
	sort.Strings(plan.External)
	return plan, nil
}

// validateArgs checks the slots that resolveArgs would otherwise reject during execution.
func validateArgs(s models.ModuleSpec) error {
	switch s.Kind {
	case "", models.ProxyUUPS, models.ProxyTransparent:
	default:
		return &models.ConfigurationError{Module: s.Name, Reason: fmt.Sprintf("unknown proxy kind %q", s.Kind)}
	}
	for i, slot := range s.Args {
		var err error
		switch slot.Kind {
		case models.ArgLiteral, models.ArgAccount:
		case models.ArgAddress:
			if slot.Ref == "" {
				err = fmt.Errorf("address slot without module reference")
			}
		case models.ArgTimestamp:
			// 时间偏移之和也不能溢出
			_, err = duration.Offset(0, slot.Offsets...)
		case models.ArgUnits:
			_, err = utils.ParseUnits(slot.Value, slot.Decimals)
		default:
			err = fmt.Errorf("unknown slot kind %q", slot.Kind)
		}
		if err != nil {
			return &models.ConfigurationError{Module: s.Name, Reason: fmt.Sprintf("argument %d", i), Err: err}
		}
	}
	return nil
}

// findCycle walks the not yet ordered specs and returns one cycle as a closed name path.
func findCycle(specs []models.ModuleSpec, deps [][]int, done []bool) []string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(specs))
	var stack []int
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = grey
		stack = append(stack, i)
		for _, j := range deps[i] {
			if done[j] {
				continue
			}
			if color[j] == grey {
				for k := len(stack) - 1; k >= 0; k-- {
					if stack[k] == j {
						for _, n := range stack[k:] {
							cycle = append(cycle, specs[n].Name)
						}
						cycle = append(cycle, specs[j].Name)
						return true
					}
				}
			}
			if color[j] == white && visit(j) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return false
	}

	for i := range specs {
		if !done[i] && color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}
