package cmd

import (
	"fmt"

	"db-move/internal/engine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare row counts between source and target",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		results, err := engine.New(cfg.Job()).VerifyOnly(cmd.Context())
		if err != nil {
			return err
		}

		mismatches := 0
		for i, v := range results {
			icon := "✓"
			if !v.Matched {
				icon = "!"
				mismatches++
			}
			fmt.Printf("[%s] [%02d/%02d] %s\n", icon, i+1, len(results), v)
		}
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Verification: %d/%d matched\n", len(results)-mismatches, len(results))
		if mismatches > 0 {
			return fmt.Errorf("%d table(s) do not match", mismatches)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}
