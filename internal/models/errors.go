package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every error caught before the first on-chain action.
var ErrConfiguration = errors.New("configuration error")

var ErrInvalidTransition = errors.New("invalid run state transition")

// ConfigurationError 配置错误(模块定义不合法)
type ConfigurationError struct {
	Module string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Module != "" {
		msg += fmt.Sprintf(" in module %q", e.Module)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// CyclicDependencyError 模块依赖存在环
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrConfiguration }

// UnresolvedDependencyError 依赖的模块不在输入集合中
type UnresolvedDependencyError struct {
	Module     string
	Dependency string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("module %q depends on unknown module %q", e.Module, e.Dependency)
}

func (e *UnresolvedDependencyError) Is(target error) bool { return target == ErrConfiguration }

type DuplicateModuleError struct {
	Module string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q declared more than once", e.Module)
}

func (e *DuplicateModuleError) Is(target error) bool { return target == ErrConfiguration }

// ClientError wraps a failure reported by the chain client.
type ClientError struct {
	Op     string
	Module string
	Err    error
}

func (e *ClientError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("chain client %s %s: %v", e.Op, e.Module, e.Err)
	}
	return fmt.Sprintf("chain client %s: %v", e.Op, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

/**
 * Creation of one module failed, the run halted
 * @property {string} module - Failed module
 * @property {int} position - 1-based position of the failed module
 * @property {int} total - Number of modules in the plan
 * @property {[]DeployedModule} deployed - Modules 1..position-1, still on chain
 * @property {error} err - Underlying error, usually a *ClientError
 */
type DeploymentFailedError struct {
	Module   string
	Position int
	Total    int
	Deployed []DeployedModule
	Err      error
}

func (e *DeploymentFailedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "deployment of %q failed at step %d/%d: %v", e.Module, e.Position, e.Total, e.Err)
	if len(e.Deployed) > 0 {
		sb.WriteString("; already deployed:")
		for _, m := range e.Deployed {
			fmt.Fprintf(&sb, " %s=%s", m.Name, m.Address)
		}
	}
	return sb.String()
}

func (e *DeploymentFailedError) Unwrap() error { return e.Err }

// ResumeAddresses returns the addresses an operator feeds back to resume the run.
func (e *DeploymentFailedError) ResumeAddresses() map[string]string {
	out := make(map[string]string, len(e.Deployed))
	for _, m := range e.Deployed {
		out[m.Name] = m.Address
	}
	return out
}
