package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jilai-deployer/internal/env"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	mu.RLock()
	saved, savedFile := Config, configFile
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		Config, configFile = saved, savedFile
		mu.Unlock()
	})
}

func TestReloadWhileReading(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "deployer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  network: holesky\n"), 0644))
	require.NoError(t, Load(path))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cfg := Current()
				assert.Equal(t, "holesky", cfg.Chain.Network)
				assert.Len(t, cfg.Modules, 4)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, ReloadConfig())
	}
	wg.Wait()
}

func TestReloadPicksUpChanges(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "deployer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  network: holesky\n"), 0644))
	require.NoError(t, Load(path))

	require.NoError(t, os.WriteFile(path, []byte("chain:\n  network: mainnet\n"), 0644))
	require.NoError(t, ReloadConfig())
	assert.Equal(t, "mainnet", Current().Chain.Network)

	require.NoError(t, os.Remove(path))
	assert.Error(t, ReloadConfig())
	assert.Equal(t, "mainnet", Current().Chain.Network)
}

func TestLoadDotEnvReportsMalformedFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, env.LoadDotEnv())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRIVATE_KEY=\"0xabc\n"), 0644))
	err = env.LoadDotEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "deployer.yaml"))
	require.NoError(t, err)
	got, err := cfg.ModuleSpecs()
	require.NoError(t, err)

	defaults := AppConfig{Chain: cfg.Chain, Modules: DefaultModules()}
	want, err := defaults.ModuleSpecs()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCrowdsaleWithoutSaleWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployer.yaml")
	body := `
modules:
  - name: JilaiToken
  - name: JilaiVesting
    depends_on: [JilaiToken]
    args:
      - ref: JilaiToken
  - name: JilaiCrowdSale
    depends_on: [JilaiToken, JilaiVesting]
    args:
      - ref: JilaiToken
      - ref: JilaiVesting
      - value: "0x694AA1769357215DE4FAC081bf1f309aDC325306"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	specs, err := cfg.ModuleSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Len(t, specs[2].Args, 3)
	assert.Equal(t, []string{"JilaiToken", "JilaiVesting"}, specs[2].References())
}
