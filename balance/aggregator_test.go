package balance

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/transport"
)

func newAggregator(t *testing.T) (*Aggregator, *account.Registry) {
	t.Helper()
	reg := account.NewRegistry()
	return NewAggregator(reg, zerolog.Nop()), reg
}

func addAccount(t *testing.T, reg *account.Registry, raw string, kind account.Kind, opts ...func(*account.Account)) {
	t.Helper()
	id, err := account.ParseID(raw)
	assert.NoError(t, err)
	a := account.Account{ID: id, Kind: kind, Platform: account.Native, Currency: "USD"}
	for _, opt := range opts {
		opt(&a)
	}
	assert.NoError(t, reg.Add(a))
}

func TestTotalRealExcludesDemoAndDisabled(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)
	ag.Apply(transport.BalanceMessage{AccountID: "CR100", Balance: "100"})

	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(100)))

	// A disabled demo account must not leak into the real total.
	addAccount(t, reg, "VRTC500", account.Demo, func(a *account.Account) { a.Disabled = true })
	ag.Apply(transport.BalanceMessage{AccountID: "VRTC500", Balance: "500"})

	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(100)))
	assert.True(t, ag.Total(account.Demo).IsZero(), "disabled accounts excluded everywhere")
}

func TestApplySnapshotReplacesListedBalances(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)
	addAccount(t, reg, "CR200", account.Real)

	ag.Apply(transport.BalanceMessage{Accounts: map[string]string{
		"CR100": "10.50",
		"CR200": "20.25",
	}})
	assert.True(t, ag.Total(account.Real).Equal(decimal.RequireFromString("30.75")))

	// Snapshot replaces, it does not add.
	ag.Apply(transport.BalanceMessage{Accounts: map[string]string{
		"CR100": "5",
	}})
	assert.True(t, ag.Total(account.Real).Equal(decimal.RequireFromString("25.25")))
}

func TestApplyIsIdempotentUnderReplay(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)

	msg := transport.BalanceMessage{
		Accounts: map[string]string{"CR100": "42"},
		Totals:   &transport.Totals{PlatformA: "8", Currency: "USD"},
	}
	ag.Apply(msg)
	once := ag.Total(account.Real)
	ag.Apply(msg)
	twice := ag.Total(account.Real)

	assert.True(t, once.Equal(twice), "replaying a message must not change the total")
	assert.True(t, once.Equal(decimal.NewFromInt(50)))
}

func TestTotalsRetainedWhenOmitted(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)

	ag.Apply(transport.BalanceMessage{
		Accounts: map[string]string{"CR100": "100"},
		Totals:   &transport.Totals{Native: "100", PlatformA: "55", PlatformB: "7", Currency: "USD"},
	})
	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(162)))

	// Later ticks do not resend external subtotals; the cache must hold.
	ag.Apply(transport.BalanceMessage{
		Accounts: map[string]string{"CR100": "110"},
		Totals:   &transport.Totals{Native: "110", Currency: "USD"},
	})
	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(172)))
	assert.Equal(t, "USD", ag.Currency())
}

func TestMalformedAmountCoercedToZero(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)
	addAccount(t, reg, "CR200", account.Real)

	ag.Apply(transport.BalanceMessage{Accounts: map[string]string{
		"CR100": "not-a-number",
		"CR200": "30",
	}})

	// The bad field becomes zero but the rest of the message still applies.
	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(30)))

	got, ok := reg.Get("CR100")
	assert.True(t, ok)
	assert.True(t, got.Balance.Valid, "balance is set, just coerced")
	assert.True(t, got.Balance.Decimal.IsZero())
}

func TestSingleDeltaUpdatesNonActiveAccount(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)
	addAccount(t, reg, "CR200", account.Real)
	assert.NoError(t, reg.SetActive("CR100"))

	ag.Apply(transport.BalanceMessage{AccountID: "CR200", Balance: "77"})

	got, _ := reg.Get("CR200")
	assert.True(t, got.Balance.Decimal.Equal(decimal.NewFromInt(77)))
}

func TestSetExternalSubtotalFeedsDemoScope(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "VRTC1", account.Demo)
	ag.Apply(transport.BalanceMessage{AccountID: "VRTC1", Balance: "10000"})

	ag.SetExternalSubtotal(account.PlatformA, account.Demo, decimal.NewFromInt(500))

	assert.True(t, ag.Total(account.Demo).Equal(decimal.NewFromInt(10500)))
	assert.True(t, ag.Total(account.Real).IsZero())
}

func TestClearDropsSubtotals(t *testing.T) {
	t.Parallel()

	ag, reg := newAggregator(t)
	addAccount(t, reg, "CR100", account.Real)
	ag.Apply(transport.BalanceMessage{
		AccountID: "CR100", Balance: "1",
		Totals: &transport.Totals{PlatformA: "99"},
	})
	ag.Clear()

	assert.True(t, ag.Total(account.Real).Equal(decimal.NewFromInt(1)), "account balances survive, subtotals do not")
	assert.Equal(t, "", ag.Currency())
}
