package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradecore/client/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tradectl configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./tradectl.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.Default().SaveToFile(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("endpoint:   %s\n", cfg.Endpoint.URL)
		fmt.Printf("eu client:  %v\n", cfg.Session.IsEU)
		fmt.Printf("cache:      %s", cfg.Cache.Type)
		if cfg.Cache.Type == "sqlite" {
			fmt.Printf(" (%s)", cfg.Cache.DBPath)
		}
		fmt.Println()
		fmt.Printf("log level:  %s\n", cfg.Log.Level)
		if cfg.Session.Token != "" {
			fmt.Println("token:      (set)")
		} else {
			fmt.Println("token:      (unset)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
