package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jesteban247/Med-vision-detect/config"
)

var configPath string

// rootCmd is the entry point of the medvision command tree.
var rootCmd = &cobra.Command{
	Use:   "medvision",
	Short: "Training and benchmark automation for medical detection models",
	Long: `medvision drives an external detection CLI over medical imaging datasets:
it launches the training sweep across datasets and freeze settings, then
benchmarks the resulting checkpoints under FP32, FP16 and INT8 and aggregates
the scraped metrics into a CSV report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(configPath); err != nil {
			return fmt.Errorf("load config failed: %w", err)
		}
		config.InitLogger()
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file (default "+config.DefaultConfigPath+")")
}
