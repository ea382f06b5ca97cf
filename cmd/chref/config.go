// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage chref configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := config.GenerateTOML(cfg)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the config directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.Save(config.DefaultConfig()); err != nil {
				return err
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(SuccessStyle.Render("✓") + " default configuration written to " + dir)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
