package calc

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"jilai-deployer/cmd/root"
	"jilai-deployer/internal/duration"

	"github.com/spf13/cobra"
)

var (
	now        int64
	opening    string
	closing    string
	jsonOutput bool
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "计算众筹开始和结束时间",
	Long:  "openingTime = now + opening, closingTime = openingTime + closing, 均为 unix 秒",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		open, err := duration.ParseSpec(opening)
		if err != nil {
			return err
		}
		cls, err := duration.ParseSpec(closing)
		if err != nil {
			return err
		}
		ref := now
		if ref == 0 {
			ref = time.Now().Unix()
		}
		w, err := duration.SaleWindow(ref, open, cls)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(w)
		}
		fmt.Printf("now:          %d (%s)\n", w.Now, time.Unix(w.Now, 0).UTC().Format(time.RFC3339))
		fmt.Printf("openingTime:  %d (%s)\n", w.OpeningTime, time.Unix(w.OpeningTime, 0).UTC().Format(time.RFC3339))
		fmt.Printf("closingTime:  %d (%s)\n", w.ClosingTime, time.Unix(w.ClosingTime, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	windowCmd.Flags().SortFlags = false
	windowCmd.Flags().Int64Var(&now, "now", 0, "参考时间(unix 秒), 默认当前时间")
	windowCmd.Flags().StringVar(&opening, "opening", duration.DefaultOpening.String(), "从 now 到开始的时长")
	windowCmd.Flags().StringVar(&closing, "closing", duration.DefaultClosing.String(), "从开始到结束的时长")
	windowCmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出")
	windowCmd.Example = `  jilai-deployer window --now 1000000
  jilai-deployer window --opening "1 hours" --closing "30 days"`
	root.RootCmd.AddCommand(windowCmd)
}
