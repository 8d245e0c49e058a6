package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/landing"
	"github.com/tradecore/client/session"
	"github.com/tradecore/client/transport"
	"github.com/tradecore/client/transport/scripted"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted session against an in-memory backend",
	Long: `Run a full session lifecycle against canned responses, with no network:

  1. Log in and populate the account list
  2. Ingest a multi-account balance snapshot
  3. Switch to the demo account and top it up
  4. Attempt a switch to a credential-less account (falls back)
  5. Log out

Examples:
  tradectl demo`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func demoTransport() *scripted.Transport {
	tr := scripted.New()
	accounts := []transport.AccountEntry{
		{ID: "CR1001", Currency: "USD", LandingCompany: "svg", Residence: "ao", Token: "demo-token"},
		{ID: "VRTC9001", Currency: "USD", IsDemo: true, LandingCompany: "virtual", Residence: "ao", Token: "demo-token-v"},
		{ID: "CR2002", Currency: "BTC", LandingCompany: "svg", Residence: "ao"},
	}
	for _, tok := range []string{"demo-token", "demo-token-v"} {
		activeID := "CR1001"
		if tok == "demo-token-v" {
			activeID = "VRTC9001"
		}
		tr.Identities[tok] = &transport.AuthorizeResult{
			AccountID:      activeID,
			Currency:       "USD",
			LandingCompany: "svg",
			Residence:      "ao",
			AccountList:    accounts,
		}
	}
	tr.LandingConfigs["ao"] = &landing.Config{
		Shortcode: "svg",
		Companies: map[landing.CompanyKey]landing.Company{
			landing.GamingCompany:    {Shortcode: "svg", Currencies: []string{"USD", "BTC"}},
			landing.FinancialCompany: {Shortcode: "svg", Currencies: []string{"USD", "EUR"}},
		},
	}
	tr.PlatformLists[account.PlatformA] = []transport.PlatformAccount{
		{ID: "MTR100", Currency: "USD", Kind: account.Real, SubKind: account.Synthetic, Balance: "250.00"},
	}
	return tr
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	tr := demoTransport()
	ctrl := session.New(session.Deps{Transport: tr, Logger: zerolog.Nop()})

	fmt.Println("=== Session Demo ===")
	fmt.Println()

	if err := ctrl.Login(ctx, "demo-token"); err != nil {
		return err
	}
	active, _ := ctrl.ActiveAccount()
	fmt.Printf("Logged in as %s\n\n", active.ID)
	printAccounts(ctrl.Accounts(), active.ID)

	ctrl.HandleBalanceMessage(transport.BalanceMessage{Accounts: map[string]string{
		"CR1001":   "1250.50",
		"VRTC9001": "10000.00",
	}})
	fmt.Printf("\nReal total:  %s\n", ctrl.TotalBalance(account.Real).StringFixed(2))
	fmt.Printf("Demo total:  %s\n\n", ctrl.TotalBalance(account.Demo).StringFixed(2))

	if err := ctrl.SwitchAccount(ctx, "VRTC9001"); err != nil {
		return err
	}
	if err := ctrl.TopUpDemo(ctx); err != nil {
		return err
	}
	active, _ = ctrl.ActiveAccount()
	fmt.Printf("Switched to %s and topped up, demo total now %s\n\n",
		active.ID, ctrl.TotalBalance(account.Demo).StringFixed(2))

	// CR2002 has no stored credential; the switch falls back.
	if err := ctrl.SwitchAccount(ctx, "CR2002"); err != nil {
		return err
	}
	active, _ = ctrl.ActiveAccount()
	fmt.Printf("Switch to CR2002 fell back to %s\n", active.ID)
	for _, n := range ctrl.Notices() {
		fmt.Printf("  note: %s\n", n.Message)
	}

	if err := ctrl.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("\nLogged out.")
	return nil
}
