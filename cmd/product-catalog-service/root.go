package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the root command without a
// subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "product-catalog-service",
		Short: "Read-only product catalog with filtering, statistics and highlighting",
		Long: `Serves a product catalog loaded from an upstream JSON document.
Products can be filtered by price and size; responses carry price bounds,
the available sizes, the most common description words and optional
keyword highlighting.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newQueryCmd(&cfgFile))
	return root
}
