package cli

import (
	"github.com/spf13/cobra"

	"abtest-sizer/internal/app"
)

var (
	calculateDesign designFlags
	calculateOutput string
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute sample size, traffic split and minimum duration for one design",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := calculateDesign.resolveMode()
		if err != nil {
			return err
		}

		a := getApp()
		opts := app.CalculateOptions{
			Design: calculateDesign.apply(cmd.Flags(), a.DefaultDesign()),
			Mode:   mode,
			Format: calculateOutput,
			Out:    cmd.OutOrStdout(),
		}
		return a.Calculate(cmd.Context(), opts)
	},
}

func init() {
	calculateDesign.register(calculateCmd.Flags())
	calculateCmd.Flags().StringVarP(&calculateOutput, "output", "o", app.FormatTable, "Output format: table or json")
}
