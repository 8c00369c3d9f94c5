package cli

import (
	"github.com/spf13/cobra"

	"github.com/Jesteban247/Med-vision-detect/service"
)

// experimentsCmd represents the training sweep command.
var experimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "Launch one training run per dataset and freeze setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cliLogger().Info("experiments command called")
		return service.NewExperimentService().RunAll()
	},
}

func init() {
	rootCmd.AddCommand(experimentsCmd)
}
