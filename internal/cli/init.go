package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/internal/paths"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tablesync storage",
		Long:  "Create the configuration and data directories, then initialize the store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return sysErr("resolve config dir: %w", err)
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return sysErr("create config directory: %w", err)
			}
			dataDir := ""
			if flags.dataDir != "" {
				if dataDir, err = paths.ResolveDataDir(flags.dataDir, ""); err != nil {
					return sysErr("resolve data dir: %w", err)
				}
			}
			if err := writeConfigIfMissing(configDir, dataDir); err != nil {
				return sysErr("write config: %w", err)
			}
			return withSession(cmd, flags, func(s *session) error {
				fmt.Fprintf(cmd.OutOrStdout(), "tablesync initialized (data: %s)\n", s.store.Config().DataDir)
				return nil
			})
		},
	}
}
