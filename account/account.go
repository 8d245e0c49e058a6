package account

import (
	"github.com/shopspring/decimal"
)

// Platform identifies the trading venue an account lives on. Native is the
// built-in platform; PlatformA and PlatformB are the two external CFD
// platforms reachable through the same session.
type Platform string

const (
	Native    Platform = "native"
	PlatformA Platform = "platform_a"
	PlatformB Platform = "platform_b"
)

// Kind distinguishes real-money accounts from demo accounts.
type Kind string

const (
	Real Kind = "real"
	Demo Kind = "demo"
)

// SubKind is the account flavour on an external platform. Native accounts
// carry the zero value.
type SubKind string

const (
	Synthetic    SubKind = "synthetic"
	Financial    SubKind = "financial"
	FinancialSTP SubKind = "financial_stp"
)

// Account is one trading identity. Balance is unset until the first balance
// message arrives. Token is present only for native accounts the client is
// authorized to use. HasError is set when external-platform provisioning
// failed; Server carries the failing server name in that case.
type Account struct {
	ID             ID
	Currency       string
	Kind           Kind
	Platform       Platform
	SubKind        SubKind
	LandingCompany string
	Residence      string
	Balance        decimal.NullDecimal
	Disabled       bool
	Token          string
	HasError       bool
	Server         string
}

// IsExternal reports whether the account lives on one of the external
// platforms rather than the native one.
func (a Account) IsExternal() bool {
	return a.Platform == PlatformA || a.Platform == PlatformB
}

// HasToken reports whether the account carries a usable session credential.
func (a Account) HasToken() bool {
	return a.Token != ""
}

// BalanceOrZero returns the account balance, or zero when no balance message
// has been seen yet.
func (a Account) BalanceOrZero() decimal.Decimal {
	if !a.Balance.Valid {
		return decimal.Zero
	}
	return a.Balance.Decimal
}
