package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate settings and the match profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.matchProfile(); err != nil {
				return err
			}

			cfg := ctx.config
			profile := cfg.MatchProfilePath
			if profile == "" {
				profile = "(built-in defaults)"
			}
			rows := [][]string{
				{"Match profile", profile},
				{"Workers", strconv.Itoa(cfg.Workers)},
				{"Run store", storeSummary(cfg.DatabaseEnabled, cfg.DatabaseDriver)},
				{"Event publishing", yesNo(cfg.KafkaEnabled)},
				{"Tracing", yesNo(cfg.TracingEnabled)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective match profile as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := ctx.matchProfile()
			if err != nil {
				return err
			}
			data, err := profile.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func storeSummary(enabled bool, driver string) string {
	if !enabled {
		return "disabled"
	}
	return driver
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
