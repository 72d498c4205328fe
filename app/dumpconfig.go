package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runtime-config/runtime-config/internal/config"
)

func init() { //nolint: gochecknoinits
	dumpConfigCmd.Flags().BoolVar(&dumpAsJSON, "json", false, "Print as JSON instead of TOML")

	rootCmd.AddCommand(dumpConfigCmd)
}

var (
	dumpAsJSON bool

	dumpConfigCmd = &cobra.Command{
		Use:   "dump-config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			dump := config.DumpConfig
			if dumpAsJSON {
				dump = config.DumpConfigJSON
			}

			out, err := dump(cfg)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)

			return err
		},
	}
)
