package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/utils"
	"jilai-deployer/services"

	"github.com/spf13/cobra"
)

var (
	only       []string
	jsonOutput bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "显示部署顺序和每个模块的构造参数",
	Long:  "校验模块配置并按依赖关系输出部署顺序, 不连接任何节点",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := services.NewDeployService(&config.Config, nil, nil, nil)
		plan, err := svc.Plan(only)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}
		printPlan(plan)
		return nil
	},
}

func printPlan(plan *models.DeploymentPlan) {
	rows := make([][]string, 0, plan.Len())
	for i, m := range plan.Modules {
		args := make([]string, len(m.Args))
		for j, a := range m.Args {
			args[j] = a.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			m.Name,
			m.FactoryRef(),
			string(m.ProxyKind()),
			strings.Join(m.DependsOn, ", "),
			strings.Join(args, ", "),
		})
	}
	utils.PrintTable(os.Stdout, []string{"#", "Module", "Factory", "Proxy", "Depends On", "Args"}, rows)
	if len(plan.External) > 0 {
		fmt.Printf("External modules (from resume state): %s\n", strings.Join(plan.External, ", "))
	}
}

func init() {
	planCmd.Flags().SortFlags = false
	planCmd.Flags().StringSliceVar(&only, "only", nil, "只规划指定模块")
	planCmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出")
	planCmd.Example = `  jilai-deployer plan
  jilai-deployer plan --only JilaiCrowdSale --json`
	root.RootCmd.AddCommand(planCmd)
}
