package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTransitions(t *testing.T) {
	run := NewRun("r", "sepolia")
	assert.Equal(t, RunPlanning, run.State)
	assert.False(t, run.Terminal())

	assert.ErrorIs(t, run.Transition(RunCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, run.Transition(RunFailed), ErrInvalidTransition)

	require.NoError(t, run.Transition(RunExecuting))
	assert.Nil(t, run.FinishedAt)
	require.NoError(t, run.Transition(RunFailed))
	assert.True(t, run.Terminal())
	assert.NotNil(t, run.FinishedAt)

	assert.ErrorIs(t, run.Transition(RunExecuting), ErrInvalidTransition)
	assert.ErrorIs(t, run.Transition(RunCompleted), ErrInvalidTransition)
}

func TestDeploymentFailedError(t *testing.T) {
	cause := errors.New("out of gas")
	err := &DeploymentFailedError{
		Module:   "JilaiCrowdSale",
		Position: 4,
		Total:    4,
		Deployed: []DeployedModule{{Name: "JilaiToken", Address: "0x01"}},
		Err:      &ClientError{Op: "create", Module: "JilaiCrowdSale", Err: cause},
	}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"JilaiCrowdSale" failed at step 4/4`)
	assert.Contains(t, err.Error(), "JilaiToken=0x01")
	assert.Equal(t, map[string]string{"JilaiToken": "0x01"}, err.ResumeAddresses())
	assert.False(t, errors.Is(err, ErrConfiguration))
}

func TestConfigurationErrors(t *testing.T) {
	for _, err := range []error{
		&ConfigurationError{Module: "x", Reason: "bad"},
		&CyclicDependencyError{Cycle: []string{"a", "b", "a"}},
		&UnresolvedDependencyError{Module: "a", Dependency: "b"},
		&DuplicateModuleError{Module: "a"},
	} {
		assert.True(t, errors.Is(err, ErrConfiguration), err.Error())
	}
	assert.Equal(t, "cyclic dependency: a -> b -> a", (&CyclicDependencyError{Cycle: []string{"a", "b", "a"}}).Error())
}

func TestArgSlotAndSpecDefaults(t *testing.T) {
	spec := ModuleSpec{
		Name:      "JilaiCrowdSale",
		DependsOn: []string{"JilaiToken", "JilaiVesting"},
		Args:      []ArgSlot{AddressOf("JilaiToken"), AddressOf("JilaiVesting"), Literal("0xfeed"), AddressOf("JilaiToken")},
	}
	assert.Equal(t, "JilaiCrowdSale", spec.FactoryRef())
	assert.Equal(t, DefaultInitializer, spec.InitializerName())
	assert.Equal(t, ProxyUUPS, spec.ProxyKind())
	assert.Equal(t, []string{"JilaiToken", "JilaiVesting", "JilaiToken"}, spec.References())
}
