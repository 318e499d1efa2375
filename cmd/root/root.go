package root

import (
	"context"
	"fmt"
	"time"

	"jilai-deployer/internal/config"
	"jilai-deployer/internal/env"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/tracing"

	"github.com/spf13/cobra"
)

var (
	configFile string
	shutdown   tracing.ShutdownFunc
)

var RootCmd = &cobra.Command{
	Use:   "jilai-deployer",
	Short: "可升级合约模块部署工具",
	Long: `jilai-deployer 按依赖顺序部署 token/vesting/airdrop/crowdsale 等可升级代理模块,
后部署的模块通过构造参数引用先部署模块的地址`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		Shutdown()
	},
}

// setup 加载配置文件、初始化日志和链路追踪
func setup(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := config.Load(configFile); err != nil {
			return fmt.Errorf("load config %s: %w", configFile, err)
		}
	}
	if env.Verbose {
		config.Config.Log.Level = "debug"
	}
	logger.InitLoggerWithMode(&config.Config.Log, cmd.Name() == "server")
	if err := config.DotEnvError(); err != nil {
		logger.Warnf("Ignoring environment file: %v", err)
	}

	fn, err := tracing.Init(config.Config.Trace, env.Version)
	if err != nil {
		return err
	}
	shutdown = fn
	return nil
}

// Shutdown 刷新未导出的 trace span
func Shutdown() {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warnf("Failed to flush traces: %v", err)
	}
	shutdown = nil
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径(默认 ./deployer.yaml 或 ~/.jilai-deployer/deployer.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&env.Verbose, "verbose", "v", false, "输出调试日志")
}
