// Package balance merges streamed and snapshot balance data across the
// native platform and the external trading platforms into per-scope totals.
package balance

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/transport"
)

type subtotalKey struct {
	platform account.Platform
	kind     account.Kind
}

// Aggregator applies balance messages to the registry and keeps the cached
// external-platform subtotals. It is the only component that mutates
// account balances.
type Aggregator struct {
	mu        sync.Mutex
	reg       *account.Registry
	subtotals map[subtotalKey]decimal.Decimal
	currency  string
	log       zerolog.Logger
}

// NewAggregator returns an aggregator bound to the given registry.
func NewAggregator(reg *account.Registry, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		reg:       reg,
		subtotals: make(map[subtotalKey]decimal.Decimal),
		log:       log.With().Str("component", "balance").Logger(),
	}
}

// Apply ingests one balance message: either the initial snapshot
// enumerating every account, a later multi-account update, or a
// single-account delta. Applying the same message twice leaves the totals
// unchanged; amounts that fail to parse are coerced to zero and the message
// is still applied.
func (ag *Aggregator) Apply(msg transport.BalanceMessage) {
	ag.mu.Lock()
	defer ag.mu.Unlock()

	if msg.IsMulti() {
		for raw, amount := range msg.Accounts {
			ag.applyOne(raw, amount)
		}
	} else if msg.AccountID != "" {
		ag.applyOne(msg.AccountID, msg.Balance)
	}

	if msg.Totals != nil {
		ag.applyTotals(*msg.Totals)
	}
}

func (ag *Aggregator) applyOne(raw, amount string) {
	id, err := account.ParseID(raw)
	if err != nil {
		ag.log.Warn().Str("loginid", raw).Msg("balance message for unparseable account id")
		return
	}
	if !ag.reg.SetBalance(id, ag.parseAmount(raw, amount)) {
		ag.log.Warn().Str("loginid", raw).Msg("balance message for unregistered account")
	}
}

// applyTotals overwrites cached subtotal figures with whatever the message
// carries. A platform the message omits keeps its previous figure: external
// subtotals are not resent on every tick.
func (ag *Aggregator) applyTotals(t transport.Totals) {
	set := func(p account.Platform, raw string) {
		if raw == "" {
			return
		}
		ag.subtotals[subtotalKey{p, account.Real}] = ag.parseAmount(string(p), raw)
	}
	set(account.Native, t.Native)
	set(account.PlatformA, t.PlatformA)
	set(account.PlatformB, t.PlatformB)
	if t.Currency != "" {
		ag.currency = t.Currency
	}
}

// SetExternalSubtotal caches a subtotal computed outside the stream, e.g.
// from a fetched external-platform account list. Demo subtotals only ever
// arrive through this path.
func (ag *Aggregator) SetExternalSubtotal(p account.Platform, kind account.Kind, amount decimal.Decimal) {
	ag.mu.Lock()
	defer ag.mu.Unlock()
	ag.subtotals[subtotalKey{p, kind}] = amount
}

// Total returns the aggregate balance for one scope: native balances of
// matching kind plus the cached external-platform subtotals of that kind.
// Disabled accounts are excluded. The result is always a finite figure;
// terms that never arrived contribute zero.
func (ag *Aggregator) Total(kind account.Kind) decimal.Decimal {
	ag.mu.Lock()
	defer ag.mu.Unlock()

	total := decimal.Zero
	for _, a := range ag.reg.All() {
		if a.Platform != account.Native || a.Kind != kind || a.Disabled {
			continue
		}
		total = total.Add(a.BalanceOrZero())
	}
	for _, p := range []account.Platform{account.PlatformA, account.PlatformB} {
		if sub, ok := ag.subtotals[subtotalKey{p, kind}]; ok {
			total = total.Add(sub)
		}
	}
	return total
}

// Currency returns the currency of the streamed totals, empty until the
// first totals message arrives.
func (ag *Aggregator) Currency() string {
	ag.mu.Lock()
	defer ag.mu.Unlock()
	return ag.currency
}

// Clear drops the cached subtotals. Called on logout.
func (ag *Aggregator) Clear() {
	ag.mu.Lock()
	defer ag.mu.Unlock()
	ag.subtotals = make(map[subtotalKey]decimal.Decimal)
	ag.currency = ""
}

// parseAmount coerces a raw amount to a decimal. Malformed amounts become
// zero so a bad field never aborts the stream or poisons a total.
func (ag *Aggregator) parseAmount(field, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		ag.log.Warn().Str("field", field).Str("raw", raw).Msg("malformed balance amount, coercing to 0")
		return decimal.Zero
	}
	return d
}
