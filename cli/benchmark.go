package cli

import (
	"github.com/spf13/cobra"

	"github.com/Jesteban247/Med-vision-detect/service"
)

// benchmarkCmd represents the checkpoint benchmark command.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Benchmark trained checkpoints under each quantization profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cliLogger().Info("benchmark command called")

		records, err := service.NewBenchmarkService().CollectAll()
		if err != nil {
			return err
		}
		return service.NewReportService().Publish(records)
	},
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
}
