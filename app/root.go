// Package app implements the main application commands.
package app

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/runtime-config/runtime-config/internal/config"
)

const (
	keyConfigPath = "path"
	envPrefix     = "RUNTIME_CONFIG"
)

var rootCmd = &cobra.Command{
	Use:   "runtime-config",
	Short: "runtime-config serves scoped runtime settings with an audit trail",
	Long: `runtime-config stores settings grouped by scope, keeps the history of every
edit and delete, and authenticates callers with JWT access and refresh tokens.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().String("config", "./etc/", "Directory containing main.toml")

	// RUNTIME_CONFIG_PATH overrides the default, an explicit flag wins over both
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = viper.BindEnv(keyConfigPath)
	_ = viper.BindPFlag(keyConfigPath, rootCmd.PersistentFlags().Lookup("config"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configPath returns the config directory with a trailing slash.
func configPath() string {
	path := viper.GetString(keyConfigPath)
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return path
}

func readConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(configPath())
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
