package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "quintus",
		Short: "Fifth-species counterpoint generator",
		Long: `Quintus searches for counterpoint lines against a fixed cantus firmus
with a Monte-Carlo beam search under strict voice-leading rules, and renders
the best lines for downstream audio tooling.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration (defaults apply when empty)")
	rootCmd.AddCommand(composeCmd, serveCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
