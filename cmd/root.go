// Package cmd assembles the acousticvault command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/tphakala/acousticvault/cmd/config"
	"github.com/tphakala/acousticvault/cmd/serve"
	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/conf"
)

// flagBindings maps persistent flags to configuration keys.
var flagBindings = map[string]string{
	"debug": "debug",
	"host":  "webserver.host",
	"port":  "webserver.port",
}

// RootCommand creates and returns the root command. Without a subcommand it
// runs the server.
func RootCommand(info buildinfo.BuildInfo) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "acousticvault",
		Short:         "AcousticVault audio classification service",
		Version:       fmt.Sprintf("%s (built %s)", info.Version(), info.BuildDate()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, &configFile)

	serveCmd := serve.Command(info, &configFile)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, configcmd.Command(&configFile))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// bind here rather than at setup so the executing command's flags win
		return bindFlags(cmd)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/acousticvault, /etc/acousticvault)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("host", conf.DefaultHost, "Interface to bind the HTTP server to")
	flags.Int("port", conf.DefaultPort, "Port of the HTTP server")
}

func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
