package cmd

import (
	"db-move/internal/engine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var restoreCmd = &cobra.Command{
	Use:   "restore-constraints",
	Short: "Re-enable target constraints left disabled by an interrupted run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return engine.RestoreConstraints(cmd.Context(), cfg.Target)
	},
}

func init() {
	RootCmd.AddCommand(restoreCmd)
}
