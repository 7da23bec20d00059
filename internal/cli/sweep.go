package cli

import (
	"github.com/spf13/cobra"

	"abtest-sizer/internal/app"
)

var (
	sweepDesign  designFlags
	sweepFrom    float64
	sweepTo      float64
	sweepSteps   int
	sweepCSVPath string
	sweepPNGPath string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Export sample size across a range of minimum detectable effects as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := sweepDesign.resolveMode()
		if err != nil {
			return err
		}

		a := getApp()
		opts := app.SweepOptions{
			Design:  sweepDesign.apply(cmd.Flags(), a.DefaultDesign()),
			Mode:    mode,
			From:    sweepFrom,
			To:      sweepTo,
			Steps:   sweepSteps,
			CSVPath: sweepCSVPath,
			PNGPath: sweepPNGPath,
		}
		return a.Sweep(cmd.Context(), opts)
	},
}

func init() {
	sweepDesign.register(sweepCmd.Flags())
	sweepCmd.Flags().Float64Var(&sweepFrom, "mde-from", 0.01, "Smallest minimum detectable effect")
	sweepCmd.Flags().Float64Var(&sweepTo, "mde-to", 0.2, "Largest minimum detectable effect")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 0, "Number of points (defaults to config)")
	sweepCmd.Flags().StringVar(&sweepCSVPath, "csv", "", "Path to write CSV data")
	sweepCmd.Flags().StringVar(&sweepPNGPath, "png", "", "Path to write PNG chart")
}
