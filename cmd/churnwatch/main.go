package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "churnwatch",
		Short: "Customer churn simulation and risk scoring",
		Long: `churnwatch simulates a population of bank customers that drift and churn
over time, and scores the active population with a trained churn model.

Run "simulate" in one process and "score --watch" or "serve" in another
against the same record store.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("model", "", "Path to the model artifact (overrides MODEL_PATH)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSimulateCmd(),
		newScoreCmd(),
		newStatsCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "churnwatch version %s\n", version)
		},
	}
}
