package chain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vestingABI = `[{"type":"function","name":"initialize","inputs":[{"name":"token","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}]`

func writeArtifact(t *testing.T, dir, name, bytecode string) {
	t.Helper()
	path := filepath.Join(dir, "contracts", name+".sol", name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	body := `{"contractName":"` + name + `","abi":` + vestingABI + `,"bytecode":"` + bytecode + `"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestArtifactStoreLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "JilaiVesting", "0x6080604052")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build-info"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build-info", "JilaiVesting.json"), []byte("{"), 0644))

	store := NewArtifactStore(dir)
	a, err := store.Load("JilaiVesting")
	require.NoError(t, err)
	assert.Equal(t, "JilaiVesting", a.Name)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
	method, ok := a.ABI.Methods["initialize"]
	require.True(t, ok)
	assert.Len(t, method.Inputs, 1)

	again, err := store.Load("JilaiVesting")
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestArtifactStoreErrors(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "Abstract", "0x")
	writeArtifact(t, dir, "Linked", "0x6080__$abcdef$__")
	store := NewArtifactStore(dir)

	_, err := store.Load("Missing")
	assert.True(t, errors.Is(err, ErrArtifactNotFound))

	_, err = store.Load("Abstract")
	assert.ErrorContains(t, err, "no bytecode")

	_, err = store.Load("Linked")
	assert.ErrorContains(t, err, "library linking")
}
