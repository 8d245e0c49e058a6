// Package transport defines the call shapes the session core consumes from
// the remote trading backend. The ws subpackage implements them over a
// websocket; the scripted subpackage is a deterministic in-memory
// implementation for tests and demos.
package transport

import (
	"context"
	"fmt"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/landing"
)

// AuthError is a credential rejection from the backend. It is never retried
// automatically.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("transport: authorize failed: %s (%s)", e.Message, e.Code)
}

// AccountEntry is one account descriptor from the authorize response.
type AccountEntry struct {
	ID             string `json:"loginid"`
	Currency       string `json:"currency"`
	IsDemo         bool   `json:"is_virtual"`
	IsDisabled     bool   `json:"is_disabled"`
	LandingCompany string `json:"landing_company_shortcode"`
	Residence      string `json:"residence"`
	Token          string `json:"token,omitempty"`
}

// AuthorizeResult is the identity the backend confirmed for a token.
type AuthorizeResult struct {
	AccountID                   string         `json:"loginid"`
	Currency                    string         `json:"currency"`
	IsDemo                      bool           `json:"is_virtual"`
	LandingCompany              string         `json:"landing_company_name"`
	Residence                   string         `json:"country"`
	AccountList                 []AccountEntry `json:"account_list"`
	UpgradeableLandingCompanies []string       `json:"upgradeable_landing_companies"`
}

// PlatformError describes a provisioning failure for one external-platform
// account; the backend sends it in place of the account data.
type PlatformError struct {
	Kind   account.Kind `json:"account_type"`
	Server string       `json:"server"`
}

// PlatformAccount is one entry of an external platform's account list.
type PlatformAccount struct {
	ID       string          `json:"account_id"`
	Currency string          `json:"currency"`
	Kind     account.Kind    `json:"account_type"`
	SubKind  account.SubKind `json:"market_type"`
	Balance  string          `json:"balance"`
	Err      *PlatformError  `json:"error,omitempty"`
}

// Totals carries per-platform subtotal figures attached to a multi-account
// balance message. Amounts are raw decimal strings; an empty string means
// the backend did not resend that platform's subtotal and the previously
// cached figure still stands.
type Totals struct {
	Native    string `json:"native"`
	PlatformA string `json:"platform_a"`
	PlatformB string `json:"platform_b"`
	Currency  string `json:"currency"`
}

// BalanceMessage is one message of the balance subscription. Either
// AccountID/Balance is set (single-account delta) or Accounts is set
// (multi-account update, optionally with Totals).
type BalanceMessage struct {
	AccountID string            `json:"loginid,omitempty"`
	Balance   string            `json:"balance,omitempty"`
	Accounts  map[string]string `json:"accounts,omitempty"`
	Totals    *Totals           `json:"total,omitempty"`
}

// IsMulti reports whether the message is a multi-account update.
func (m BalanceMessage) IsMulti() bool { return len(m.Accounts) > 0 }

// Transport is the request/response and subscription channel to the
// backend. All calls honour context cancellation.
type Transport interface {
	Authorize(ctx context.Context, token string) (*AuthorizeResult, error)
	LandingCompany(ctx context.Context, residence string) (*landing.Config, error)
	PlatformAccounts(ctx context.Context, p account.Platform) ([]PlatformAccount, error)
	SubscribeBalance(ctx context.Context) (<-chan BalanceMessage, error)
	// TopUpDemo resets the active demo account's balance and returns the
	// new raw amount.
	TopUpDemo(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}
