package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradecore/client/account"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize with the configured token and list the accounts",
	Long: `Authorize against the backend with the token from the configuration
(or the TRADECORE_TOKEN environment variable), populate the account list and
persist the session so later commands can restore it.`,
	RunE: runLogin,
}

var switchCmd = &cobra.Command{
	Use:   "switch <account-id>",
	Short: "Make another account the active one",
	Long: `Re-authorize with the credential of the given account and make it the
active selection. Switching to an account without a stored credential falls
back to the first account that has one.`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitch,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the local cache",
	RunE:  runLogout,
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the accounts of the cached session",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
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

	active, _ := ctrl.ActiveAccount()
	fmt.Printf("Logged in as %s\n\n", active.ID)
	printAccounts(ctrl.Accounts(), active.ID)
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	ctrl, client, err := newLiveController(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, rerr := ctrl.Restore(); rerr != nil || !ok {
		return fmt.Errorf("no cached session, run 'tradectl login' first")
	}
	if err := ctrl.SwitchAccount(ctx, account.ID(args[0])); err != nil {
		return err
	}

	active, _ := ctrl.ActiveAccount()
	fmt.Printf("Active account is now %s (%s)\n", active.ID, active.Currency)
	for _, n := range ctrl.Notices() {
		fmt.Printf("  note: %s\n", n.Message)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	ctrl, client, err := newLiveController(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, rerr := ctrl.Restore(); rerr != nil || !ok {
		fmt.Println("No cached session.")
		return nil
	}
	if err := ctrl.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	snap, ok, err := store.Load()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No cached session, run 'tradectl login' first.")
		return nil
	}
	printAccounts(snap.Accounts, snap.Active)
	return nil
}

func printAccounts(accounts []account.Account, active account.ID) {
	fmt.Printf("%-12s %-8s %-6s %-12s %-12s %s\n", "ID", "CCY", "KIND", "PLATFORM", "BALANCE", "")
	for _, a := range accounts {
		marker := ""
		if a.ID == active {
			marker = "*"
		}
		bal := "-"
		if a.Balance.Valid {
			bal = a.Balance.Decimal.StringFixed(2)
		}
		status := ""
		if a.Disabled {
			status = "(disabled)"
		}
		if a.HasError {
			status = "(unavailable)"
		}
		fmt.Printf("%-12s %-8s %-6s %-12s %-12s %s%s\n",
			a.ID, a.Currency, a.Kind, a.Platform, bal, marker, status)
	}
}
