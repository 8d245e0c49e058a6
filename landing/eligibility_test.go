package landing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradecore/client/account"
)

func svgConfig() *Config {
	return &Config{
		Shortcode: "svg",
		Companies: map[CompanyKey]Company{
			GamingCompany:             {Shortcode: "svg", Currencies: []string{"USD", "BTC"}},
			FinancialCompany:          {Shortcode: "svg", Currencies: []string{"USD", "EUR"}},
			PlatformAGamingCompany:    {Shortcode: "svg"},
			PlatformAFinancialCompany: {Shortcode: "vanuatu", SubKinds: []account.SubKind{account.Financial, account.FinancialSTP}},
			PlatformBGamingCompany:    {Shortcode: "svg"},
			PlatformBFinancialCompany: {Shortcode: "svg"},
		},
	}
}

func euConfig() *Config {
	return &Config{
		Shortcode: "maltainvest",
		Companies: map[CompanyKey]Company{
			FinancialCompany:          {Shortcode: "maltainvest", Currencies: []string{"USD", "EUR", "GBP"}},
			PlatformAFinancialCompany: {Shortcode: "maltainvest", SubKinds: []account.SubKind{account.Financial}},
		},
		HasRealityCheck:     true,
		RealityCheckMinutes: 60,
	}
}

func offeringSet(t *testing.T, offerings []Offering) map[Offering]bool {
	t.Helper()
	set := make(map[Offering]bool, len(offerings))
	for _, o := range offerings {
		o.ChooseCurrencyFirst = false
		set[o] = true
	}
	return set
}

func TestRemainingFailsOpenWithoutConfig(t *testing.T) {
	t.Parallel()

	got := Remaining(nil, nil, false)
	assert.Len(t, got, 1, "only the native fail-open offering")
	assert.Equal(t, account.Native, got[0].Platform)
	assert.Equal(t, account.Real, got[0].Kind)

	got = Remaining(nil, &Config{Shortcode: "svg"}, false)
	assert.Len(t, got, 1, "empty company map behaves like no config")
}

func TestRemainingExcludesHeldCombinations(t *testing.T) {
	t.Parallel()

	existing := []account.Account{
		{ID: "MTR1", Platform: account.PlatformA, Kind: account.Real, SubKind: account.Synthetic},
		{ID: "DX1", Platform: account.PlatformB, Kind: account.Demo, SubKind: account.Financial},
	}

	set := offeringSet(t, Remaining(existing, svgConfig(), false))

	assert.False(t, set[Offering{Platform: account.PlatformA, Kind: account.Real, SubKind: account.Synthetic}])
	assert.False(t, set[Offering{Platform: account.PlatformB, Kind: account.Demo, SubKind: account.Financial}])
	// The mirror combinations stay open.
	assert.True(t, set[Offering{Platform: account.PlatformA, Kind: account.Demo, SubKind: account.Synthetic}])
	assert.True(t, set[Offering{Platform: account.PlatformB, Kind: account.Real, SubKind: account.Financial}])
}

func TestRemainingDisabledAccountsDoNotBlock(t *testing.T) {
	t.Parallel()

	existing := []account.Account{
		{ID: "MTR1", Platform: account.PlatformA, Kind: account.Real, SubKind: account.Synthetic, Disabled: true},
	}

	set := offeringSet(t, Remaining(existing, svgConfig(), false))
	assert.True(t, set[Offering{Platform: account.PlatformA, Kind: account.Real, SubKind: account.Synthetic}])
}

func TestRemainingEUFinancialOnly(t *testing.T) {
	t.Parallel()

	got := Remaining(nil, euConfig(), true)
	assert.NotEmpty(t, got)
	for _, o := range got {
		if o.Platform == account.Native {
			assert.Equal(t, account.Financial, o.SubKind)
			continue
		}
		assert.Equal(t, account.Financial, o.SubKind, "EU clients never see synthetic or STP")
	}
}

func TestRemainingSyntheticSortsFirstOutsideEU(t *testing.T) {
	t.Parallel()

	got := Remaining(nil, svgConfig(), false)
	assert.NotEmpty(t, got)
	assert.Equal(t, account.Native, got[0].Platform)
	assert.Equal(t, account.Synthetic, got[0].SubKind, "synthetic bucket wins for non-EU")
	assert.Equal(t, account.Financial, got[1].SubKind)
}

func TestRemainingIncludesFinancialSTP(t *testing.T) {
	t.Parallel()

	set := offeringSet(t, Remaining(nil, svgConfig(), false))
	assert.True(t, set[Offering{Platform: account.PlatformA, Kind: account.Real, SubKind: account.FinancialSTP}])
	// Platform B's financial company declares no sub kinds; plain financial only.
	assert.False(t, set[Offering{Platform: account.PlatformB, Kind: account.Real, SubKind: account.FinancialSTP}])
}

func TestRemainingChooseCurrencyFirst(t *testing.T) {
	t.Parallel()

	existing := []account.Account{
		{ID: "CR1", Platform: account.Native, Kind: account.Real, LandingCompany: "svg", Currency: ""},
	}

	got := Remaining(existing, euConfig(), true)
	for _, o := range got {
		if o.Platform == account.Native {
			assert.True(t, o.ChooseCurrencyFirst)
		}
	}
}

func TestPlatformAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, PlatformAllowed(nil, account.PlatformA), "fail open before config loads")
	assert.True(t, PlatformAllowed(svgConfig(), account.PlatformA))
	assert.True(t, PlatformAllowed(euConfig(), account.PlatformA))
	assert.False(t, PlatformAllowed(euConfig(), account.PlatformB), "no platform B company for EU jurisdiction")
	assert.True(t, PlatformAllowed(euConfig(), account.Native))
}

func TestAllowedCurrencies(t *testing.T) {
	t.Parallel()

	got := svgConfig().AllowedCurrencies()
	assert.ElementsMatch(t, []string{"USD", "BTC", "EUR"}, got)
}
