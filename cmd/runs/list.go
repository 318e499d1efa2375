package runs

import (
	"context"

	"jilai-deployer/internal/models"
	"jilai-deployer/internal/store"

	"github.com/spf13/cobra"
)

var limit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出最近的部署运行",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var runs []models.Run
		err := fetch("/deployer/api/v1/runs", map[string]interface{}{"limit": limit}, &runs,
			func(repo *store.RunRepo) error {
				var err error
				runs, err = repo.ListRuns(context.Background(), limit)
				return err
			})
		if err != nil {
			return err
		}
		printRuns(runs)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "最多显示条数, 0 表示全部")
	Cmd.AddCommand(listCmd)
}
