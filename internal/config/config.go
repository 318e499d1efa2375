package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"jilai-deployer/internal/env"
)

/**
 * Server configuration parameters
 * @property {string} address - Status server listening address (e.g. "127.0.0.1:8999")
 * @property {string} mode - gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stdout
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address, empty disables pushing
 * @property {string} job - Job label used when pushing
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

type TraceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"`
}

/**
 * Chain client configuration
 * @property {string} network - Network name, used for state files and run records
 * @property {string} rpc_url - JSON-RPC endpoint (env RPC)
 * @property {int64} chain_id - Expected chain id, 0 accepts the node's
 * @property {string} private_key - Deployer key (env PRIVATE_KEY)
 * @property {string} account - Deployer address used by dry runs without a key
 * @property {string} artifacts - Hardhat artifacts directory
 * @property {time.Duration} timeout - Upper bound for a whole run
 */
type ChainConfig struct {
	Network          string        `mapstructure:"network"`
	RPCURL           string        `mapstructure:"rpc_url"`
	ChainID          int64         `mapstructure:"chain_id"`
	PrivateKey       string        `mapstructure:"private_key"`
	Account          string        `mapstructure:"account"`
	Artifacts        string        `mapstructure:"artifacts"`
	UUPSProxy        string        `mapstructure:"uups_proxy"`
	TransparentProxy string        `mapstructure:"transparent_proxy"`
	ProxyOwner       string        `mapstructure:"proxy_owner"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

var ErrModuleNotFound = errors.New("module not found")

type AppConfig struct {
	Server  ServerConfig   `mapstructure:"server"`
	Log     LogConfig      `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Store   StoreConfig    `mapstructure:"store"`
	State   StateConfig    `mapstructure:"state"`
	Trace   TraceConfig    `mapstructure:"trace"`
	Chain   ChainConfig    `mapstructure:"chain"`
	Modules []ModuleConfig `mapstructure:"modules"`
}

// Module looks up a configured module by name.
func (c *AppConfig) Module(name string) (*ModuleConfig, error) {
	for i := range c.Modules {
		if c.Modules[i].Name == name {
			return &c.Modules[i], nil
		}
	}
	return nil, ErrModuleNotFound
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8999")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", "jilai-deployer")
	v.SetDefault("store.path", "")
	v.SetDefault("state.dir", "deployments")
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.output", "")
	v.SetDefault("chain.network", "sepolia")
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.chain_id", 0)
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.account", "")
	v.SetDefault("chain.artifacts", "artifacts")
	v.SetDefault("chain.uups_proxy", "ERC1967Proxy")
	v.SetDefault("chain.transparent_proxy", "TransparentUpgradeableProxy")
	v.SetDefault("chain.proxy_owner", "")
	v.SetDefault("chain.timeout", 30*time.Minute)
}

/**
 * Load application configuration
 * @param {string} file - Explicit config file, empty searches deployer.yaml in . and the deployer dir
 * @returns {*AppConfig} Loaded configuration with defaults applied
 * @returns {error} Read or decode failure. A missing default config file is not an error
 * @description
 * - DEPLOYER_ prefixed variables override file values (DEPLOYER_CHAIN_RPC_URL ...)
 * - RPC and PRIVATE_KEY are honoured as in the hardhat setup
 */
func LoadConfig(file string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEPLOYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("chain.rpc_url", "DEPLOYER_CHAIN_RPC_URL", "RPC")
	_ = v.BindEnv("chain.private_key", "DEPLOYER_CHAIN_PRIVATE_KEY", "PRIVATE_KEY")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("deployer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(env.DeployerDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return collectConfig(&cfg), nil
}

var (
	// Config 全局配置；server 模式下通过 Current 读取，reload 期间受 mu 保护
	Config     AppConfig
	configFile string
	mu         sync.RWMutex
)

// Current returns a copy of the global configuration, safe to call while ReloadConfig runs.
func Current() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return Config
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Log.Path == "" {
		cfg.Log.Path = "console"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(env.DeployerDir, "deployer.db")
	}
	if len(cfg.Modules) == 0 {
		cfg.Modules = DefaultModules()
	}
	return cfg
}

// Load replaces the global configuration, remembering file for ReloadConfig.
func Load(file string) error {
	cfg, err := LoadConfig(file)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	configFile = file
	Config = *cfg
	return nil
}

func ReloadConfig() error {
	mu.RLock()
	file := configFile
	mu.RUnlock()
	return Load(file)
}

var dotEnvErr error

// DotEnvError reports a .env file that exists but could not be parsed at startup.
func DotEnvError() error {
	return dotEnvErr
}

func init() {
	dotEnvErr = env.LoadDotEnv()
	cfg, err := LoadConfig("")
	if err == nil {
		Config = *cfg
	} else {
		collectConfig(&Config)
	}
}
