package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jilai-deployer/internal/models"
)

func module(name string, deps ...string) models.ModuleSpec {
	return models.ModuleSpec{Name: name, DependsOn: deps}
}

func assertOrdered(t *testing.T, plan *models.DeploymentPlan) {
	t.Helper()
	for i, m := range plan.Modules {
		for _, d := range m.DependsOn {
			j := plan.Index(d)
			if j < 0 {
				continue
			}
			assert.Less(t, j, i, "%s must come before %s", d, m.Name)
		}
	}
}

func TestResolvePlanOrdersDependenciesFirst(t *testing.T) {
	specs := []models.ModuleSpec{
		module("JilaiCrowdSale", "JilaiToken", "JilaiVesting"),
		module("JilaiVesting", "JilaiToken"),
		module("JilaiAirdrop"),
		module("JilaiToken"),
	}
	plan, err := ResolvePlan(specs)
	require.NoError(t, err)
	require.Equal(t, 4, plan.Len())
	assertOrdered(t, plan)
	assert.Equal(t, []string{"JilaiAirdrop", "JilaiToken", "JilaiVesting", "JilaiCrowdSale"}, plan.Names())
}

func TestResolvePlanKeepsInputOrderWhenFree(t *testing.T) {
	specs := []models.ModuleSpec{module("c"), module("a"), module("b")}
	plan, err := ResolvePlan(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, plan.Names())
}

func TestResolvePlanCycle(t *testing.T) {
	specs := []models.ModuleSpec{
		module("a", "b"),
		module("b", "c"),
		module("c", "a"),
		module("d"),
	}
	before := append([]models.ModuleSpec(nil), specs...)

	plan, err := ResolvePlan(specs)
	assert.Nil(t, plan)

	var cyc *models.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	require.GreaterOrEqual(t, len(cyc.Cycle), 4)
	assert.Equal(t, cyc.Cycle[0], cyc.Cycle[len(cyc.Cycle)-1])
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cyc.Cycle[:len(cyc.Cycle)-1])
	assert.Equal(t, before, specs)
}

func TestResolvePlanSelfDependency(t *testing.T) {
	_, err := ResolvePlan([]models.ModuleSpec{module("a", "a")})
	var cyc *models.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"a", "a"}, cyc.Cycle)
}

func TestResolvePlanUnresolved(t *testing.T) {
	_, err := ResolvePlan([]models.ModuleSpec{module("vesting", "token")})
	var unresolved *models.UnresolvedDependencyError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "vesting", unresolved.Module)
	assert.Equal(t, "token", unresolved.Dependency)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestResolvePlanDuplicate(t *testing.T) {
	_, err := ResolvePlan([]models.ModuleSpec{module("a"), module("a")})
	var dup *models.DuplicateModuleError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Module)
}

func TestResolvePlanEmptyName(t *testing.T) {
	_, err := ResolvePlan([]models.ModuleSpec{module("")})
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestResolvePlanRejectsUndeclaredReference(t *testing.T) {
	specs := []models.ModuleSpec{
		module("token"),
		{Name: "vesting", Args: []models.ArgSlot{models.AddressOf("token")}},
	}
	_, err := ResolvePlan(specs)
	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "vesting", cfgErr.Module)
}

func TestResolvePlanRejectsMalformedSlots(t *testing.T) {
	tests := []struct {
		name string
		slot models.ArgSlot
	}{
		{"unknown unit", models.Timestamp(models.DurationSpec{Unit: "fortnights", Value: 1})},
		{"negative offset", models.Timestamp(models.DurationSpec{Unit: "days", Value: -1})},
		{"overflowing offset", models.Timestamp(models.DurationSpec{Unit: "years", Value: 300000000000})},
		{"overflowing sum", models.Timestamp(
			models.DurationSpec{Unit: "seconds", Value: math.MaxInt64},
			models.DurationSpec{Unit: "seconds", Value: 1},
		)},
		{"malformed units", models.Units("2e9", 18)},
		{"too many decimals", models.Units("1.5", 0)},
		{"unknown kind", models.ArgSlot{Kind: "blob", Value: "0x00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := []models.ModuleSpec{
				module("token"),
				{Name: "sale", DependsOn: []string{"token"}, Args: []models.ArgSlot{models.AddressOf("token"), tt.slot}},
			}
			_, err := ResolvePlan(specs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
			var cfgErr *models.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "sale", cfgErr.Module)
		})
	}
}

func TestResolvePlanRejectsUnknownProxyKind(t *testing.T) {
	_, err := ResolvePlan([]models.ModuleSpec{{Name: "token", Kind: "beacon"}})
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestResolvePlanExternal(t *testing.T) {
	specs := []models.ModuleSpec{
		{Name: "crowdsale", DependsOn: []string{"vesting", "token"}, Args: []models.ArgSlot{models.AddressOf("token"), models.AddressOf("vesting")}},
	}
	plan, err := ResolvePlan(specs, WithExternal("vesting", "token"))
	require.NoError(t, err)
	assert.Equal(t, []string{"crowdsale"}, plan.Names())
	assert.Equal(t, []string{"token", "vesting"}, plan.External)

	_, err = ResolvePlan([]models.ModuleSpec{module("token")}, WithExternal("token"))
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestResolvePlanEmpty(t *testing.T) {
	plan, err := ResolvePlan(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Len())
}
