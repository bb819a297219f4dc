// Package cmd wires the roost command line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aviarylab/roost/cmd/serve"
)

// Execute runs the root command.
func Execute() error {
	return rootCommand().Execute()
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roost",
		Short: "Acoustic detection station backend",
		Long: `roost ingests raw audio chunks pushed by remote sensors, runs them
through an acoustic classifier over a rolling window, and stores the
detections with a compressed clip for later retrieval.`,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(serve.Command())
	return rootCmd
}
