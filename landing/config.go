// Package landing models the per-jurisdiction landing-company configuration
// and computes which account types a client may still open.
package landing

import (
	"github.com/tradecore/client/account"
)

// CompanyKey names one legal-entity slot in a jurisdiction's configuration.
// The gaming slots cover synthetic trading, the financial slots cover
// financial and financial-STP trading.
type CompanyKey string

const (
	GamingCompany             CompanyKey = "gaming_company"
	FinancialCompany          CompanyKey = "financial_company"
	PlatformAGamingCompany    CompanyKey = "platform_a_gaming_company"
	PlatformAFinancialCompany CompanyKey = "platform_a_financial_company"
	PlatformBGamingCompany    CompanyKey = "platform_b_gaming_company"
	PlatformBFinancialCompany CompanyKey = "platform_b_financial_company"
)

// Company is one legal entity offered to the jurisdiction.
type Company struct {
	Shortcode  string            `json:"shortcode" yaml:"shortcode"`
	Currencies []string          `json:"legal_allowed_currencies,omitempty" yaml:"legal_allowed_currencies,omitempty"`
	SubKinds   []account.SubKind `json:"sub_account_types,omitempty" yaml:"sub_account_types,omitempty"`
}

// Config describes which account kinds a jurisdiction legally offers on
// each platform, plus session requirements such as the reality check. It is
// fetched once per session and read-only thereafter.
type Config struct {
	Shortcode           string                 `json:"shortcode" yaml:"shortcode"`
	Companies           map[CompanyKey]Company `json:"companies" yaml:"companies"`
	HasRealityCheck     bool                   `json:"has_reality_check" yaml:"has_reality_check"`
	RealityCheckMinutes int                    `json:"reality_check_minutes" yaml:"reality_check_minutes"`
}

// company returns the entity in the given slot, if the jurisdiction has one.
func (c *Config) company(key CompanyKey) (Company, bool) {
	if c == nil || len(c.Companies) == 0 {
		return Company{}, false
	}
	co, ok := c.Companies[key]
	return co, ok
}

// AllowedCurrencies returns the settlement currencies the jurisdiction's
// native companies permit.
func (c *Config) AllowedCurrencies() []string {
	var out []string
	seen := map[string]bool{}
	for _, key := range []CompanyKey{GamingCompany, FinancialCompany} {
		co, ok := c.company(key)
		if !ok {
			continue
		}
		for _, cur := range co.Currencies {
			if !seen[cur] {
				seen[cur] = true
				out = append(out, cur)
			}
		}
	}
	return out
}

// PlatformAllowed reports whether the platform may be shown to the client
// at all. An absent or empty configuration fails open: most clients are
// allowed, and the session should not block while the config is loading.
func PlatformAllowed(c *Config, p account.Platform) bool {
	if c == nil || len(c.Companies) == 0 {
		return true
	}
	switch p {
	case account.Native:
		return true
	case account.PlatformA:
		_, gaming := c.company(PlatformAGamingCompany)
		_, financial := c.company(PlatformAFinancialCompany)
		return gaming || financial
	case account.PlatformB:
		_, gaming := c.company(PlatformBGamingCompany)
		_, financial := c.company(PlatformBFinancialCompany)
		return gaming || financial
	}
	return false
}
