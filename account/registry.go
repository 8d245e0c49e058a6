package account

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownAccount is returned when an operation references an id that
	// is not in the registry.
	ErrUnknownAccount = errors.New("account: unknown account")

	// ErrDisabledAccount is returned when a disabled account is asked to
	// become active.
	ErrDisabledAccount = errors.New("account: account is disabled")

	// ErrDuplicateAccount is returned by Add for an id that already exists.
	ErrDuplicateAccount = errors.New("account: duplicate account id")
)

// Registry holds the authoritative map of known accounts plus the active
// selection. Accounts are kept in insertion order, which is the documented
// order used when a fallback account has to be chosen. All methods are safe
// for concurrent use and each call is atomic.
type Registry struct {
	mu       sync.Mutex
	accounts map[ID]*Account
	order    []ID
	active   ID
}

// NewRegistry returns an empty registry with no active account.
func NewRegistry() *Registry {
	return &Registry{accounts: make(map[ID]*Account)}
}

// Add registers a newly created account. Unlike Upsert it creates a new
// entry, and it rejects duplicates.
func (r *Registry) Add(a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.ID]; ok {
		return ErrDuplicateAccount
	}
	acct := a
	r.accounts[a.ID] = &acct
	r.order = append(r.order, a.ID)
	return nil
}

// Upsert merges incoming account descriptors into the registry by id. Only
// the mutable fields are copied: currency, balance, disabled flag, landing
// company and residence. Ids that are not already registered are ignored;
// new accounts enter only through Add.
func (r *Registry) Upsert(list []Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range list {
		acct, ok := r.accounts[in.ID]
		if !ok {
			continue
		}
		if in.Currency != "" {
			acct.Currency = in.Currency
		}
		if in.Balance.Valid {
			acct.Balance = in.Balance
		}
		acct.Disabled = in.Disabled
		if in.LandingCompany != "" {
			acct.LandingCompany = in.LandingCompany
		}
		if in.Residence != "" {
			acct.Residence = in.Residence
		}
	}
}

// SetActive updates the active selection. A disabled account can never
// become active.
func (r *Registry) SetActive(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrUnknownAccount
	}
	if acct.Disabled {
		return ErrDisabledAccount
	}
	r.active = id
	return nil
}

// ClearActive drops the active selection without touching the account map.
func (r *Registry) ClearActive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
}

// Get returns a copy of the account with the given id.
func (r *Registry) Get(id ID) (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

// Active returns a copy of the active account, or false before login.
func (r *Registry) Active() (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == "" {
		return Account{}, false
	}
	acct, ok := r.accounts[r.active]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

// ActiveID returns the active account id, empty before login.
func (r *Registry) ActiveID() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// All returns copies of every account in insertion order.
func (r *Registry) All() []Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.accounts[id])
	}
	return out
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// SetBalance overwrites the balance of one account. Balance mutation is
// reserved for the aggregator; nothing else should call this.
func (r *Registry) SetBalance(id ID, amount decimal.Decimal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return false
	}
	acct.Balance = decimal.NewNullDecimal(amount)
	return true
}

// Clear removes every account and the active selection.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[ID]*Account)
	r.order = nil
	r.active = ""
}

// Snapshot captures the full registry state for persistence.
type Snapshot struct {
	Active   ID        `json:"active"`
	Accounts []Account `json:"accounts"`
}

// Snapshot returns a copy of the registry suitable for serialization.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{Active: r.ActiveID(), Accounts: r.All()}
}

// RestoreSnapshot replaces the registry contents with a previously captured
// snapshot. A stale active id that no longer resolves is dropped rather
// than restored.
func (r *Registry) RestoreSnapshot(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = make(map[ID]*Account, len(s.Accounts))
	r.order = r.order[:0]
	for _, in := range s.Accounts {
		acct := in
		if _, ok := r.accounts[acct.ID]; ok {
			continue
		}
		r.accounts[acct.ID] = &acct
		r.order = append(r.order, acct.ID)
	}
	r.active = ""
	if acct, ok := r.accounts[s.Active]; ok && !acct.Disabled {
		r.active = s.Active
	}
}
