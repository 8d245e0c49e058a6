package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var offeringsCmd = &cobra.Command{
	Use:   "offerings",
	Short: "Show which account types may still be opened",
	Long: `Log in and print the remaining signup offerings for the session's
jurisdiction: platform, scope and trading category, in presentation order.`,
	RunE: runOfferings,
}

func init() {
	rootCmd.AddCommand(offeringsCmd)
}

func runOfferings(cmd *cobra.Command, args []string) error {
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

	offerings := ctrl.RemainingOfferings()
	if len(offerings) == 0 {
		fmt.Println("No further account types can be opened.")
		return nil
	}
	for _, o := range offerings {
		line := fmt.Sprintf("%s %s", o.Platform, o.Kind)
		if o.SubKind != "" {
			line += fmt.Sprintf(" (%s)", o.SubKind)
		}
		if o.ChooseCurrencyFirst {
			line += "  [choose a currency first]"
		}
		fmt.Println(line)
	}

	if ups := ctrl.UpgradeableLandingCompanies(); len(ups) > 0 {
		fmt.Printf("\nUpgradeable jurisdictions: %v\n", ups)
	}
	return nil
}
