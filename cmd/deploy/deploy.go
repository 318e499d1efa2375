package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/state"
	"jilai-deployer/internal/store"
	"jilai-deployer/internal/utils"
	"jilai-deployer/services"

	"github.com/spf13/cobra"
)

var (
	dryRun    bool
	resume    bool
	stateFile string
	only      []string
	network   string
	timeout   time.Duration
	noHistory bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "部署配置中的全部模块",
	Long: `按依赖顺序创建配置中的可升级模块, 每个模块创建完成后打印地址并写入状态文件。
失败时已部署的模块保留在链上, 使用 --resume 从状态文件继续`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd.Context())
	},
}

const deployExample = `  # Deploy every configured module to sepolia
  jilai-deployer deploy

  # Preview addresses without sending transactions
  jilai-deployer deploy --dry-run

  # Continue a failed run, skipping modules recorded in deployments/sepolia.yaml
  jilai-deployer deploy --resume

  # Redeploy only the crowdsale, reusing the recorded token and vesting
  jilai-deployer deploy --resume --only JilaiCrowdSale`

func runDeploy(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := &config.Config
	if network != "" {
		cfg.Chain.Network = network
	}
	if timeout <= 0 {
		timeout = cfg.Chain.Timeout
	}
	if stateFile == "" && !dryRun {
		stateFile = state.PathFor(cfg.State.Dir, cfg.Chain.Network)
	}

	var resumeState *state.ResumeState
	if resume {
		path := stateFile
		if path == "" {
			path = state.PathFor(cfg.State.Dir, cfg.Chain.Network)
		}
		loaded, err := state.Load(path)
		if err != nil {
			return err
		}
		resumeState = loaded
		logger.Infof("Resuming from %s with %d recorded modules", path, len(loaded.Modules))
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	client, closeClient, err := newChainClient(ctx, &cfg.Chain, dryRun)
	if err != nil {
		return err
	}
	defer closeClient()

	var repo services.RunRepository
	if !noHistory {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = &store.RunRepo{DB: db}
	}

	svc := services.NewDeployService(cfg, client, repo, os.Stdout)
	run, err := svc.Deploy(ctx, services.DeployOptions{
		Resume:    resumeState,
		StateFile: stateFile,
		Only:      only,
	})
	printSummary(run)

	var failed *models.DeploymentFailedError
	if errors.As(err, &failed) && stateFile != "" {
		fmt.Printf("\n%d module(s) remain on chain and are recorded in %s\n", len(failed.Deployed), stateFile)
		fmt.Println("Fix the cause and run again with --resume to continue")
	}
	return err
}

func printSummary(run *models.Run) {
	if run == nil || len(run.Modules) == 0 {
		return
	}
	fmt.Println()
	rows := make([][]string, 0, len(run.Modules))
	for _, m := range run.Modules {
		status := "deployed"
		if m.Resumed {
			status = "resumed"
		}
		rows = append(rows, []string{strconv.Itoa(m.Position), m.Name, m.Address, status})
	}
	utils.PrintTable(os.Stdout, []string{"#", "Module", "Address", "Status"}, rows)
	fmt.Printf("Run %s %s on %s\n", run.ID, run.State, run.Network)
}

func init() {
	deployCmd.Flags().SortFlags = false
	deployCmd.Flags().BoolVar(&dryRun, "dry-run", false, "只计算地址, 不发送交易")
	deployCmd.Flags().BoolVar(&resume, "resume", false, "跳过状态文件中已记录的模块")
	deployCmd.Flags().StringVar(&stateFile, "state-file", "", "状态文件路径(默认 <state.dir>/<network>.yaml)")
	deployCmd.Flags().StringSliceVar(&only, "only", nil, "只部署指定模块, 其余依赖从状态文件读取")
	deployCmd.Flags().StringVarP(&network, "network", "n", "", "目标网络名称")
	deployCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "整个部署的超时时间(默认 chain.timeout)")
	deployCmd.Flags().BoolVar(&noHistory, "no-history", false, "不写入本地运行记录")
	deployCmd.Example = deployExample
	root.RootCmd.AddCommand(deployCmd)
}
