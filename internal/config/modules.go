package config

import (
	"fmt"
	"strconv"
	"strings"

	"jilai-deployer/internal/duration"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/utils"
)

/**
 * Initializer argument slot as written in deployer.yaml; exactly one field must be set
 * @property {interface{}} value - Literal, may contain {{ env "NAME" }} or {{ .Network }}
 * @property {string} ref - Module whose address fills the slot
 * @property {string} units - Decimal amount scaled by 10^decimals
 * @property {[]models.DurationSpec} timestamp - Offsets added to now() at creation time
 * @property {bool} account - Deployer account
 */
type ArgConfig struct {
	Value     interface{}           `mapstructure:"value"`
	Ref       string                `mapstructure:"ref"`
	Units     string                `mapstructure:"units"`
	Decimals  int                   `mapstructure:"decimals"`
	Timestamp []models.DurationSpec `mapstructure:"timestamp"`
	Account   bool                  `mapstructure:"account"`
}

type ModuleConfig struct {
	Name        string      `mapstructure:"name"`
	Factory     string      `mapstructure:"factory"`
	Initializer string      `mapstructure:"initializer"`
	Kind        string      `mapstructure:"kind"`
	DependsOn   []string    `mapstructure:"depends_on"`
	Args        []ArgConfig `mapstructure:"args"`
}

// TemplateData is visible to literal value templates.
type TemplateData struct {
	Network string
}

func (a ArgConfig) slot(data TemplateData) (models.ArgSlot, error) {
	set := 0
	if a.Value != nil {
		set++
	}
	if a.Ref != "" {
		set++
	}
	if a.Units != "" {
		set++
	}
	if len(a.Timestamp) > 0 {
		set++
	}
	if a.Account {
		set++
	}
	if set != 1 {
		return models.ArgSlot{}, fmt.Errorf("exactly one of value/ref/units/timestamp/account must be set, got %d", set)
	}

	switch {
	case a.Value != nil:
		v, err := utils.RenderValue(literalString(a.Value), data)
		if err != nil {
			return models.ArgSlot{}, err
		}
		return models.Literal(v), nil
	case a.Ref != "":
		return models.AddressOf(a.Ref), nil
	case a.Units != "":
		if _, err := utils.ParseUnits(a.Units, a.Decimals); err != nil {
			return models.ArgSlot{}, err
		}
		return models.Units(a.Units, a.Decimals), nil
	case len(a.Timestamp) > 0:
		offsets := make([]models.DurationSpec, 0, len(a.Timestamp))
		for _, o := range a.Timestamp {
			unit, err := duration.ParseUnit(string(o.Unit))
			if err != nil {
				return models.ArgSlot{}, err
			}
			o.Unit = unit
			if _, err := duration.ToBaseUnits(o); err != nil {
				return models.ArgSlot{}, err
			}
			offsets = append(offsets, o)
		}
		return models.Timestamp(offsets...), nil
	default:
		return models.Account(), nil
	}
}

func literalString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

/**
 * Convert a configured module to a ModuleSpec
 * @param {TemplateData} data - Values available to literal templates
 * @returns {models.ModuleSpec} Immutable module description
 * @returns {error} *models.ConfigurationError naming the module and the bad field
 */
func (m ModuleConfig) Spec(data TemplateData) (models.ModuleSpec, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return models.ModuleSpec{}, &models.ConfigurationError{Reason: "module without name"}
	}
	kind := models.ProxyKind(strings.ToLower(m.Kind))
	switch kind {
	case "", models.ProxyUUPS, models.ProxyTransparent:
	default:
		return models.ModuleSpec{}, &models.ConfigurationError{Module: name, Reason: fmt.Sprintf("unknown proxy kind %q", m.Kind)}
	}

	spec := models.ModuleSpec{
		Name:        name,
		Factory:     m.Factory,
		Initializer: m.Initializer,
		Kind:        kind,
		DependsOn:   append([]string(nil), m.DependsOn...),
		Args:        make([]models.ArgSlot, 0, len(m.Args)),
	}
	for i, a := range m.Args {
		slot, err := a.slot(data)
		if err != nil {
			return models.ModuleSpec{}, &models.ConfigurationError{Module: name, Reason: fmt.Sprintf("argument %d", i), Err: err}
		}
		spec.Args = append(spec.Args, slot)
	}
	return spec, nil
}

// ModuleSpecs converts every configured module, stopping at the first bad one.
func (c *AppConfig) ModuleSpecs() ([]models.ModuleSpec, error) {
	data := TemplateData{Network: c.Chain.Network}
	specs := make([]models.ModuleSpec, 0, len(c.Modules))
	for _, m := range c.Modules {
		spec, err := m.Spec(data)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
