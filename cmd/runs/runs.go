package runs

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/config"
	"jilai-deployer/internal/logger"
	"jilai-deployer/internal/models"
	"jilai-deployer/internal/rpc"
	"jilai-deployer/internal/store"
	"jilai-deployer/internal/utils"

	"github.com/spf13/cobra"
)

var local bool

var Cmd = &cobra.Command{
	Use:   "runs",
	Short: "查看部署运行记录",
	Long:  "查看部署运行记录; 优先询问正在运行的 server, 连接失败时直接读取本地数据库",
}

// fetch 先请求 server, 失败后读本地数据库
func fetch(path string, params map[string]interface{}, out interface{}, fallback func(*store.RunRepo) error) error {
	if !local {
		client := rpc.NewHTTPClient(nil)
		defer client.Close()
		resp, err := client.Get(path, params)
		if err == nil {
			if !resp.OK() {
				return fmt.Errorf("deployer API returned error: %s", resp.Error)
			}
			return resp.Decode(out)
		}
		logger.Debugf("Server unavailable, reading local store: %v", err)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return fallback(&store.RunRepo{DB: db})
}

func openStore() (*sql.DB, error) {
	return store.Open(config.Config.Store.Path)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func printRuns(runs []models.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		started := r.StartedAt
		rows = append(rows, []string{
			r.ID,
			r.Network,
			string(r.State),
			strconv.Itoa(len(r.Modules)) + "/" + strconv.Itoa(len(r.Plan)),
			formatTime(&started),
			formatTime(r.FinishedAt),
		})
	}
	utils.PrintTable(os.Stdout, []string{"ID", "Network", "State", "Modules", "Started", "Finished"}, rows)
}

func printRun(run *models.Run) {
	fmt.Printf("=== Run %s ===\n", run.ID)
	fmt.Printf("Network:  %s\n", run.Network)
	fmt.Printf("Account:  %s\n", run.Account)
	fmt.Printf("State:    %s\n", run.State)
	fmt.Printf("Plan:     %s\n", strings.Join(run.Plan, " -> "))
	fmt.Printf("Started:  %s\n", formatTime(&run.StartedAt))
	fmt.Printf("Finished: %s\n", formatTime(run.FinishedAt))
	if run.Error != "" {
		fmt.Printf("Error:    %s\n", run.Error)
	}
	if len(run.Modules) == 0 {
		return
	}
	fmt.Println()
	rows := make([][]string, 0, len(run.Modules))
	for _, m := range run.Modules {
		status := "deployed"
		if m.Resumed {
			status = "resumed"
		}
		rows = append(rows, []string{strconv.Itoa(m.Position), m.Name, m.Address, m.TxHash, status, strings.Join(m.Args, ", ")})
	}
	utils.PrintTable(os.Stdout, []string{"#", "Module", "Address", "Tx", "Status", "Args"}, rows)
}

func init() {
	Cmd.PersistentFlags().BoolVar(&local, "local", false, "只读取本地数据库")
	root.RootCmd.AddCommand(Cmd)
}
