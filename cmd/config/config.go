// Package config implements the config command, which prints the effective
// configuration.
package config

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/acousticvault/internal/conf"
)

// Command creates the config command.
func Command(configFile *string) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Merge defaults, the config file, environment variables and flags, validate the result and print it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := conf.Load(*configFile); err != nil {
				return err
			}

			out, err := conf.EffectiveConfigYAML(showSecrets)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords and DSNs instead of redacting them")

	return cmd
}
