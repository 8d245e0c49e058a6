package account

import "testing"

func TestCanChangeCurrency(t *testing.T) {
	t.Parallel()

	fiat := Account{ID: "CR1", Kind: Real, Currency: "USD"}
	crypto := Account{ID: "CR2", Kind: Real, Currency: "BTC"}
	demo := Account{ID: "VRTC1", Kind: Demo, Currency: "USD"}

	tests := []struct {
		name     string
		acct     Account
		external bool
		txns     bool
		deposit  bool
		expected bool
	}{
		{"fresh fiat account", fiat, false, false, false, true},
		{"external account exists", fiat, true, false, false, false},
		{"has transactions", fiat, false, true, false, false},
		{"deposit attempted", fiat, false, false, true, false},
		{"everything locked", fiat, true, true, true, false},
		{"crypto never changeable", crypto, false, false, false, false},
		{"demo never changeable", demo, false, false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CanChangeCurrency(tt.acct, tt.external, tt.txns, tt.deposit)
			if got != tt.expected {
				t.Fatalf("CanChangeCurrency() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCurrencyTypes(t *testing.T) {
	t.Parallel()

	if !IsFiat("USD") || IsFiat("BTC") {
		t.Fatal("fiat table wrong")
	}
	if !IsCrypto("BTC") || IsCrypto("USD") {
		t.Fatal("crypto table wrong")
	}
}
