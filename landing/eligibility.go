package landing

import (
	"github.com/tradecore/client/account"
)

// Offering is a (platform, kind, sub-kind) combination the client is
// legally permitted to open but does not hold yet. ChooseCurrencyFirst
// marks native offerings where the client must settle on a currency before
// the account can be created.
type Offering struct {
	Platform            account.Platform
	Kind                account.Kind
	SubKind             account.SubKind
	ChooseCurrencyFirst bool
}

type holdKey struct {
	platform account.Platform
	kind     account.Kind
	subKind  account.SubKind
}

// Remaining computes the offerings still open to the client. It is a pure
// function over the current account set and the jurisdiction configuration
// and never fails: an absent configuration fails open for the native
// platform and yields nothing for the external platforms (their legality is
// simply not known yet), and an unrecognized company slot yields an empty
// branch.
//
// EU clients are restricted to the financial sub-kind everywhere; synthetic
// is never offered to them. For everyone else synthetic sorts ahead of
// financial when both buckets are open.
func Remaining(existing []account.Account, cfg *Config, isEU bool) []Offering {
	held := make(map[holdKey]bool)
	heldNativeCompany := make(map[string]bool)
	chooseCurrency := false
	for _, a := range existing {
		if a.Disabled {
			continue
		}
		held[holdKey{a.Platform, a.Kind, a.SubKind}] = true
		if a.Platform == account.Native && a.Kind == account.Real {
			heldNativeCompany[a.LandingCompany] = true
			if a.Currency == "" {
				chooseCurrency = true
			}
		}
	}

	var out []Offering
	out = append(out, nativeOfferings(cfg, isEU, heldNativeCompany, chooseCurrency)...)
	for _, p := range []account.Platform{account.PlatformA, account.PlatformB} {
		out = append(out, externalOfferings(cfg, p, isEU, held)...)
	}
	return out
}

func nativeOfferings(cfg *Config, isEU bool, heldCompany map[string]bool, chooseCurrency bool) []Offering {
	if cfg == nil || len(cfg.Companies) == 0 {
		// Config not loaded yet; most clients are allowed a native real
		// account, so fail open with a generic offering.
		return []Offering{{
			Platform:            account.Native,
			Kind:                account.Real,
			ChooseCurrencyFirst: chooseCurrency,
		}}
	}

	var out []Offering
	appendBucket := func(key CompanyKey, sub account.SubKind) {
		co, ok := cfg.company(key)
		if !ok || heldCompany[co.Shortcode] {
			return
		}
		out = append(out, Offering{
			Platform:            account.Native,
			Kind:                account.Real,
			SubKind:             sub,
			ChooseCurrencyFirst: chooseCurrency,
		})
	}

	if isEU {
		appendBucket(FinancialCompany, account.Financial)
		return out
	}
	appendBucket(GamingCompany, account.Synthetic)
	appendBucket(FinancialCompany, account.Financial)
	return out
}

func externalOfferings(cfg *Config, p account.Platform, isEU bool, held map[holdKey]bool) []Offering {
	if cfg == nil || len(cfg.Companies) == 0 {
		return nil
	}

	gamingKey, financialKey := PlatformAGamingCompany, PlatformAFinancialCompany
	if p == account.PlatformB {
		gamingKey, financialKey = PlatformBGamingCompany, PlatformBFinancialCompany
	}

	var candidates []account.SubKind
	if _, ok := cfg.company(gamingKey); ok {
		candidates = append(candidates, account.Synthetic)
	}
	if co, ok := cfg.company(financialKey); ok {
		if len(co.SubKinds) > 0 {
			candidates = append(candidates, co.SubKinds...)
		} else {
			candidates = append(candidates, account.Financial)
		}
	}

	var out []Offering
	for _, sub := range candidates {
		if isEU && sub != account.Financial {
			continue
		}
		for _, kind := range []account.Kind{account.Real, account.Demo} {
			if held[holdKey{p, kind, sub}] {
				continue
			}
			out = append(out, Offering{Platform: p, Kind: kind, SubKind: sub})
		}
	}
	return out
}
