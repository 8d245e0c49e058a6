package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradecore/client/account"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show aggregate balances per scope",
	Long: `Log in, ingest the initial balance snapshot and print the aggregate
real and demo balances. External platform accounts contribute their cached
subtotals to the real figure.`,
	RunE: runBalance,
}

var topupCmd = &cobra.Command{
	Use:   "topup",
	Short: "Reset the active demo account's balance",
	RunE:  runTopup,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(topupCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Session.Token == "" {
		return fmt.Errorf("no token: set session.token or TRADECORE_TOKEN")
	}

	ctx := context.Background()
	ctrl, client, err := newLiveController(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := ctrl.Login(ctx, cfg.Session.Token); err != nil {
		return err
	}

	fmt.Printf("Real total: %s\n", ctrl.TotalBalance(account.Real).StringFixed(2))
	fmt.Printf("Demo total: %s\n", ctrl.TotalBalance(account.Demo).StringFixed(2))
	return nil
}

func runTopup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Session.Token == "" {
		return fmt.Errorf("no token: set session.token or TRADECORE_TOKEN")
	}

	ctx := context.Background()
	ctrl, client, err := newLiveController(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := ctrl.Login(ctx, cfg.Session.Token); err != nil {
		return err
	}
	if err := ctrl.TopUpDemo(ctx); err != nil {
		return err
	}

	active, _ := ctrl.ActiveAccount()
	fmt.Printf("Demo account %s reset, new balance %s\n",
		active.ID, ctrl.TotalBalance(account.Demo).StringFixed(2))
	return nil
}
