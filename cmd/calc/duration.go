package calc

import (
	"fmt"
	"strconv"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/duration"

	"github.com/spf13/cobra"
)

var durationCmd = &cobra.Command{
	Use:   "duration <value> <unit>",
	Short: "把时长换算成秒",
	Long:  "支持 seconds/minutes/hours/days/weeks/years, 单复数均可; 1 year 按 365 天计算",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		unit, err := duration.ParseUnit(args[1])
		if err != nil {
			return err
		}
		secs, err := duration.ToBaseUnits(duration.Spec{Unit: unit, Value: v})
		if err != nil {
			return err
		}
		fmt.Println(secs)
		return nil
	},
}

func init() {
	durationCmd.Example = `  jilai-deployer duration 90 days
  7776000`
	root.RootCmd.AddCommand(durationCmd)
}
