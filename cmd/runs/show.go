package runs

import (
	"context"
	"errors"
	"fmt"

	"jilai-deployer/internal/models"
	"jilai-deployer/internal/store"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <run id>",
	Short: "显示一次部署运行的详细信息",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		var run models.Run
		err := fetch("/deployer/api/v1/runs/"+id, nil, &run,
			func(repo *store.RunRepo) error {
				r, err := repo.GetRun(context.Background(), id)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("run [%s] isn't exist", id)
				}
				if err != nil {
					return err
				}
				run = *r
				return nil
			})
		if err != nil {
			return err
		}
		printRun(&run)
		return nil
	},
}

func init() {
	Cmd.AddCommand(showCmd)
}
