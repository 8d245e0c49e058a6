package account

// Settlement currencies the platform supports, split by type. The split
// matters for the currency lock: only fiat currencies may ever be changed.
var fiatCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"AUD": true,
}

var cryptoCurrencies = map[string]bool{
	"BTC":   true,
	"ETH":   true,
	"LTC":   true,
	"USDC":  true,
	"eUSDT": true,
	"tUSDT": true,
}

// IsFiat reports whether code is a supported fiat settlement currency.
func IsFiat(code string) bool { return fiatCurrencies[code] }

// IsCrypto reports whether code is a supported crypto settlement currency.
func IsCrypto(code string) bool { return cryptoCurrencies[code] }

// CanChangeCurrency decides whether the client may still change the
// settlement currency of the given account. The lock engages permanently as
// soon as any disqualifier holds:
//
//   - the account is a demo account
//   - the currency is not fiat (crypto currencies are never changeable)
//   - an external-platform account exists
//   - any transaction has been recorded
//   - a deposit attempt has been flagged on the account status
//
// The predicate is pure; callers re-evaluate it after every account or
// balance mutation instead of caching the result.
func CanChangeCurrency(a Account, hasExternalAccount, hasTransactions, depositAttempted bool) bool {
	if a.Kind == Demo {
		return false
	}
	if !IsFiat(a.Currency) {
		return false
	}
	if hasExternalAccount || hasTransactions || depositAttempted {
		return false
	}
	return true
}
