package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFileFlag string
	var profileFlag string

	ctx := newCommandContext(&envFileFlag, &profileFlag)

	rootCmd := &cobra.Command{
		Use:           "fern",
		Short:         "Resolve consumer records across two datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Env file to load before reading FERN_* settings (default .env)")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "Match profile YAML (overrides FERN_MATCH_PROFILE)")

	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
