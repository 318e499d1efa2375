package models

import (
	"fmt"
	"strings"
)

// DurationUnit 时间单位名称(seconds/minutes/hours/days/weeks/years)
type DurationUnit string

// DurationSpec is a (unit, magnitude) pair such as {minutes, 4}.
type DurationSpec struct {
	Unit  DurationUnit `mapstructure:"unit" json:"unit" yaml:"unit"`
	Value int64        `mapstructure:"value" json:"value" yaml:"value"`
}

func (d DurationSpec) String() string {
	return fmt.Sprintf("%d %s", d.Value, d.Unit)
}

// ArgKind 初始化参数槽类型
type ArgKind string

const (
	ArgLiteral   ArgKind = "literal"
	ArgAddress   ArgKind = "address"
	ArgTimestamp ArgKind = "timestamp"
	ArgUnits     ArgKind = "units"
	ArgAccount   ArgKind = "account"
)

/**
 * One position of a module's initializer call
 * @property {ArgKind} kind - How the slot is resolved
 * @property {string} value - Literal value, or decimal amount for units slots
 * @property {string} ref - Module whose address fills an address slot
 * @property {int} decimals - Scale of a units slot
 * @property {[]DurationSpec} offsets - Offsets added to now() for a timestamp slot
 */
type ArgSlot struct {
	Kind     ArgKind        `json:"kind"`
	Value    string         `json:"value,omitempty"`
	Ref      string         `json:"ref,omitempty"`
	Decimals int            `json:"decimals,omitempty"`
	Offsets  []DurationSpec `json:"offsets,omitempty"`
}

func Literal(v string) ArgSlot {
	return ArgSlot{Kind: ArgLiteral, Value: v}
}

func AddressOf(module string) ArgSlot {
	return ArgSlot{Kind: ArgAddress, Ref: module}
}

func Timestamp(offsets ...DurationSpec) ArgSlot {
	return ArgSlot{Kind: ArgTimestamp, Offsets: offsets}
}

func Units(amount string, decimals int) ArgSlot {
	return ArgSlot{Kind: ArgUnits, Value: amount, Decimals: decimals}
}

func Account() ArgSlot {
	return ArgSlot{Kind: ArgAccount}
}

func (a ArgSlot) String() string {
	switch a.Kind {
	case ArgLiteral:
		return a.Value
	case ArgAddress:
		return "&" + a.Ref
	case ArgUnits:
		return fmt.Sprintf("%se%d", a.Value, a.Decimals)
	case ArgAccount:
		return "<account>"
	case ArgTimestamp:
		parts := []string{"now"}
		for _, o := range a.Offsets {
			parts = append(parts, o.String())
		}
		return strings.Join(parts, " + ")
	default:
		return fmt.Sprintf("<%s>", a.Kind)
	}
}

// ProxyKind 可升级代理类型
type ProxyKind string

const (
	ProxyUUPS        ProxyKind = "uups"
	ProxyTransparent ProxyKind = "transparent"
)

const DefaultInitializer = "initialize"

/**
 * Deployable module description
 * @property {string} name - Stable module name, unique within a plan
 * @property {string} factory - Contract/artifact name, defaults to name
 * @property {string} initializer - Function invoked once at proxy creation
 * @property {ProxyKind} kind - Proxy flavour
 * @property {[]ArgSlot} args - Ordered initializer argument slots
 * @property {[]string} dependsOn - Modules that must be deployed first
 */
type ModuleSpec struct {
	Name        string    `json:"name"`
	Factory     string    `json:"factory,omitempty"`
	Initializer string    `json:"initializer,omitempty"`
	Kind        ProxyKind `json:"kind,omitempty"`
	Args        []ArgSlot `json:"args"`
	DependsOn   []string  `json:"dependsOn,omitempty"`
}

func (m ModuleSpec) FactoryRef() string {
	if m.Factory == "" {
		return m.Name
	}
	return m.Factory
}

func (m ModuleSpec) InitializerName() string {
	if m.Initializer == "" {
		return DefaultInitializer
	}
	return m.Initializer
}

func (m ModuleSpec) ProxyKind() ProxyKind {
	if m.Kind == "" {
		return ProxyUUPS
	}
	return m.Kind
}

// References returns the modules named by address slots, in slot order.
func (m ModuleSpec) References() []string {
	var refs []string
	for _, a := range m.Args {
		if a.Kind == ArgAddress {
			refs = append(refs, a.Ref)
		}
	}
	return refs
}

/**
 * Result of deploying one module
 * @property {string} name - Module name
 * @property {string} address - Proxy address, opaque to the orchestrator
 * @property {int64} timestamp - Confirmation time, unix seconds
 * @property {int} position - 1-based position in the plan
 * @property {bool} resumed - Address was taken from a resume state, nothing was created
 */
type DeployedModule struct {
	Name      string   `json:"name" yaml:"name"`
	Address   string   `json:"address" yaml:"address"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Position  int      `json:"position" yaml:"position"`
	TxHash    string   `json:"txHash,omitempty" yaml:"tx_hash,omitempty"`
	Args      []string `json:"args,omitempty" yaml:"args,omitempty"`
	Resumed   bool     `json:"resumed,omitempty" yaml:"resumed,omitempty"`
}

// DeploymentPlan 按依赖拓扑排序后的部署计划
type DeploymentPlan struct {
	Modules []ModuleSpec `json:"modules"`
	// External names modules deployed outside this plan whose addresses are supplied at execution.
	External []string `json:"external,omitempty"`
}

func (p *DeploymentPlan) Len() int {
	return len(p.Modules)
}

func (p *DeploymentPlan) Names() []string {
	names := make([]string, 0, len(p.Modules))
	for _, m := range p.Modules {
		names = append(names, m.Name)
	}
	return names
}

// Index returns the 0-based position of name in the plan, or -1.
func (p *DeploymentPlan) Index(name string) int {
	for i, m := range p.Modules {
		if m.Name == name {
			return i
		}
	}
	return -1
}
