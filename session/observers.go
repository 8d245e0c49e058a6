package session

import (
	"github.com/shopspring/decimal"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/landing"
)

// Read-only observers for collaborators (UI, cashier, marketplace). None
// of these mutate session state.

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsLoggedIn reports whether an authorized account is active: at least one
// account with a token must exist and the active selection must point at a
// token-bearing account.
func (c *Controller) IsLoggedIn() bool {
	active, ok := c.reg.Active()
	return ok && active.HasToken()
}

// IsSwitching reports whether a switch transition is in flight.
func (c *Controller) IsSwitching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSwitching
}

// ActiveAccount returns a snapshot of the active account, false pre-login.
func (c *Controller) ActiveAccount() (account.Account, bool) {
	return c.reg.Active()
}

// Accounts returns snapshots of every registered account in insertion
// order.
func (c *Controller) Accounts() []account.Account {
	return c.reg.All()
}

// RemainingOfferings returns the account types the client may still open.
func (c *Controller) RemainingOfferings() []landing.Offering {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]landing.Offering, len(c.offerings))
	copy(out, c.offerings)
	return out
}

// TotalBalance returns the aggregate balance for the given scope.
func (c *Controller) TotalBalance(kind account.Kind) decimal.Decimal {
	return c.agg.Total(kind)
}

// RealityCheckDue reports whether the session-duration disclosure is due.
func (c *Controller) RealityCheckDue() bool {
	return c.rc.Due()
}

// CanChangeCurrency reports whether the active account's settlement
// currency may still be changed.
func (c *Controller) CanChangeCurrency() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canChange
}

// Notices returns the informational notices recorded this session.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// UpgradeableLandingCompanies returns the jurisdictions the client may
// upgrade into, as reported by the last authorize.
func (c *Controller) UpgradeableLandingCompanies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.upgradeable))
	copy(out, c.upgradeable)
	return out
}

// LandingConfig returns the loaded landing-company configuration, nil
// until the fetch succeeds.
func (c *Controller) LandingConfig() *landing.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.landingCfg
}

// SignupDisabled reports whether account creation for the given platform
// and kind is suppressed because provisioning failed.
func (c *Controller) SignupDisabled(p account.Platform, kind account.Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabledSignup[p][kind]
}
