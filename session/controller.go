// Package session implements the client session state machine: login,
// account switching, logout and re-authorization sequencing over a
// transport to the trading backend.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/balance"
	"github.com/tradecore/client/landing"
	"github.com/tradecore/client/transport"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateLoggedOut     State = "logged_out"
	StateLoggingIn     State = "logging_in"
	StateReady         State = "ready"
	StateSwitching     State = "switching"
	StateReauthorizing State = "reauthorizing"
)

const logoutTimeout = 5 * time.Second

// Store persists a session snapshot so a client can restore its account map
// across restarts. The cache package provides a SQLite implementation.
type Store interface {
	Save(account.Snapshot) error
	Load() (account.Snapshot, bool, error)
	Clear() error
}

// Deps carries the collaborators a controller is constructed from. There
// are no package-level singletons; everything the controller touches comes
// in here.
type Deps struct {
	Transport transport.Transport
	Store     Store // optional
	Logger    zerolog.Logger
	IsEU      bool
	// RealityCheckDefault is used when a jurisdiction requires a reality
	// check but does not specify a duration.
	RealityCheckDefault time.Duration
	// OnPreSwitch lets collaborators clear per-account ephemeral state
	// before a switch re-authorizes. Called outside the controller lock.
	OnPreSwitch func(from, to account.ID)
}

// Controller is the orchestrating state machine. All mutation entry points
// run to completion under one mutex; transport calls are the only awaited
// suspension points and happen outside the lock, guarded by an epoch check
// on resumption so a logout always wins over an in-flight operation.
type Controller struct {
	tr          transport.Transport
	store       Store
	log         zerolog.Logger
	isEU        bool
	rcDefault   time.Duration
	onPreSwitch func(from, to account.ID)

	reg *account.Registry
	agg *balance.Aggregator
	rc  *RealityCheck

	mu             sync.Mutex
	state          State
	epoch          uint64
	isSwitching    bool
	switchInFlight bool
	queuedSwitch   *account.ID
	buffered       map[account.ID]transport.BalanceMessage
	landingCfg     *landing.Config
	offerings      []landing.Offering
	canChange      bool
	upgradeable    []string
	// disabledSignup marks (platform, kind) combinations whose external
	// provisioning failed; signup for them is suppressed.
	disabledSignup map[account.Platform]map[account.Kind]bool
	hasTxns        bool
	depositTried   bool
	notices        []Notice
	balCancel      context.CancelFunc
}

// New builds a controller in the LoggedOut state.
func New(deps Deps) *Controller {
	reg := account.NewRegistry()
	log := deps.Logger.With().Str("component", "session").Logger()
	return &Controller{
		tr:             deps.Transport,
		store:          deps.Store,
		log:            log,
		isEU:           deps.IsEU,
		rcDefault:      deps.RealityCheckDefault,
		onPreSwitch:    deps.OnPreSwitch,
		reg:            reg,
		agg:            balance.NewAggregator(reg, deps.Logger),
		rc:             NewRealityCheck(),
		state:          StateLoggedOut,
		buffered:       make(map[account.ID]transport.BalanceMessage),
		disabledSignup: make(map[account.Platform]map[account.Kind]bool),
	}
}

// Login authorizes the given token, populates the registry from the
// returned account list and runs the post-login initialization. On any
// failure the session remains logged out.
func (c *Controller) Login(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.state != StateLoggedOut {
		c.mu.Unlock()
		return ErrAlreadyLoggedIn
	}
	c.state = StateLoggingIn
	epoch := c.epoch
	c.mu.Unlock()

	res, err := c.tr.Authorize(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSessionEnded
	}
	if err != nil {
		c.state = StateLoggedOut
		c.log.Warn().Err(err).Msg("login authorize rejected")
		return err
	}

	c.reg.Clear()
	for _, e := range res.AccountList {
		acct, perr := accountFromEntry(e)
		if perr != nil {
			c.log.Warn().Str("loginid", e.ID).Err(perr).Msg("skipping account with invalid id")
			continue
		}
		if aerr := c.reg.Add(acct); aerr != nil {
			c.log.Warn().Str("loginid", e.ID).Err(aerr).Msg("skipping duplicate account")
		}
	}

	activeID, perr := account.ParseID(res.AccountID)
	if perr == nil {
		err = c.reg.SetActive(activeID)
	} else {
		err = perr
	}
	if err != nil {
		c.reg.Clear()
		c.state = StateLoggedOut
		return fmt.Errorf("authorized identity %q not usable: %w", res.AccountID, ErrLoginFailed)
	}

	c.upgradeable = dedupe(res.UpgradeableLandingCompanies)
	c.initAfterAuthorizeLocked(ctx, res, epoch)
	if c.epoch != epoch {
		return ErrSessionEnded
	}
	c.state = StateReady
	c.persistLocked()
	c.log.Info().Str("loginid", string(activeID)).Msg("logged in")
	return nil
}

// SwitchAccount makes target the active account, re-authorizing with its
// token. Switching to the already-active account is a no-op. A switch
// requested while another is in flight is queued with depth one; newer
// requests supersede a queued one that has not started.
func (c *Controller) SwitchAccount(ctx context.Context, target account.ID) error {
	c.mu.Lock()
	if c.state == StateLoggedOut || c.state == StateLoggingIn {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	if c.switchInFlight {
		t := target
		c.queuedSwitch = &t
		c.mu.Unlock()
		return nil
	}

	err := c.switchLocked(ctx, target)

	// Drain the queue. Errors from a queued switch cannot reach its
	// caller anymore, so they are surfaced as notices instead.
	for c.queuedSwitch != nil && c.state == StateReady {
		next := *c.queuedSwitch
		c.queuedSwitch = nil
		if qerr := c.switchLocked(ctx, next); qerr != nil {
			c.addNoticeLocked(NoticeWarning, fmt.Sprintf("Could not switch to %s: %v.", next, qerr))
		}
	}
	c.mu.Unlock()
	return err
}

// switchLocked performs one switch. Called and returned with the lock
// held; it releases the lock around transport calls.
func (c *Controller) switchLocked(ctx context.Context, target account.ID) error {
	active := c.reg.ActiveID()
	if target == active {
		return nil
	}

	acct, ok := c.reg.Get(target)
	if !ok {
		return account.ErrUnknownAccount
	}
	if !acct.HasToken() {
		// One automatic fallback: the first account, in registry
		// insertion order, that does carry a token.
		c.log.Info().Str("target", string(target)).Err(ErrMissingCredential).Msg("switch target has no credential")
		fallback, found := c.firstWithTokenLocked()
		if !found {
			c.log.Warn().Str("target", string(target)).Msg("no account with a usable credential, logging out")
			c.logoutLocked()
			return ErrNoSwitchableAccount
		}
		c.addNoticeLocked(NoticeInfo, "Switching to default account.")
		if fallback == active {
			return nil
		}
		target = fallback
		acct, _ = c.reg.Get(target)
	}

	epoch := c.epoch
	c.isSwitching = true
	c.switchInFlight = true
	c.state = StateSwitching
	hook := c.onPreSwitch
	c.mu.Unlock()

	if hook != nil {
		hook(active, target)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		return nil
	}
	c.state = StateReauthorizing
	token := acct.Token
	c.mu.Unlock()

	res, err := c.tr.Authorize(ctx, token)

	c.mu.Lock()
	if c.epoch != epoch {
		// Logged out while the authorization was in flight; the stale
		// resolution is discarded.
		c.log.Debug().Str("target", string(target)).Msg("discarding stale switch resolution")
		return nil
	}
	if err != nil {
		c.settleSwitchLocked()
		c.log.Warn().Str("target", string(target)).Err(err).Msg("switch re-authorization rejected")
		return err
	}
	if serr := c.reg.SetActive(target); serr != nil {
		c.settleSwitchLocked()
		return serr
	}

	c.initAfterAuthorizeLocked(ctx, res, epoch)
	if c.epoch != epoch {
		return nil
	}
	c.settleSwitchLocked()
	c.persistLocked()
	c.log.Info().Str("loginid", string(target)).Msg("switched account")
	return nil
}

// settleSwitchLocked leaves the Switching/Reauthorizing states and replays
// balance messages buffered while the switch was in flight.
func (c *Controller) settleSwitchLocked() {
	c.isSwitching = false
	c.switchInFlight = false
	c.state = StateReady
	for id, msg := range c.buffered {
		delete(c.buffered, id)
		c.agg.Apply(msg)
	}
	c.recomputeLocked()
}

// Logout tears the session down locally and requests transport-side
// termination without waiting for it. It always wins over an in-flight
// switch: bumping the epoch invalidates every suspended operation.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.logoutLocked()
	c.mu.Unlock()
	return nil
}

// logoutLocked does the local cleanup and fires the transport logout in
// the background.
func (c *Controller) logoutLocked() {
	c.epoch++
	if c.balCancel != nil {
		c.balCancel()
		c.balCancel = nil
	}
	c.state = StateLoggedOut
	c.isSwitching = false
	c.switchInFlight = false
	c.queuedSwitch = nil
	c.buffered = make(map[account.ID]transport.BalanceMessage)
	c.reg.Clear()
	c.agg.Clear()
	c.landingCfg = nil
	c.offerings = nil
	c.canChange = false
	c.upgradeable = nil
	c.disabledSignup = make(map[account.Platform]map[account.Kind]bool)
	c.hasTxns = false
	c.depositTried = false
	c.notices = nil
	c.rc.Cancel()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("clearing session store failed")
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if err := c.tr.Logout(ctx); err != nil {
			c.log.Warn().Err(err).Msg("transport logout failed")
		}
	}()
	c.log.Info().Msg("logged out")
}

// HandleBalanceMessage ingests one message of the balance subscription.
// Messages arriving while a switch is in flight are buffered, latest per
// account id, and replayed once the switch settles.
func (c *Controller) HandleBalanceMessage(msg transport.BalanceMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoggedOut {
		return
	}
	if c.switchInFlight {
		// Latest message per account id wins; multi-account messages
		// share the empty key so only the newest of those replays.
		key := account.ID(msg.AccountID)
		c.buffered[key] = msg
		return
	}
	c.agg.Apply(msg)
	c.recomputeLocked()
}

// TopUpDemo resets the active demo account's balance through the backend.
func (c *Controller) TopUpDemo(ctx context.Context) error {
	c.mu.Lock()
	active, ok := c.reg.Active()
	epoch := c.epoch
	c.mu.Unlock()
	if !ok {
		return ErrNotLoggedIn
	}
	if active.Kind != account.Demo {
		return fmt.Errorf("session: %s is not a demo account", active.ID)
	}

	raw, err := c.tr.TopUpDemo(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSessionEnded
	}
	c.agg.Apply(transport.BalanceMessage{AccountID: string(active.ID), Balance: raw})
	c.recomputeLocked()
	return nil
}

// RegisterNewAccount records an account created through an explicit signup
// flow. This is the only path that grows the registry after login.
func (c *Controller) RegisterNewAccount(a account.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoggedOut {
		return ErrNotLoggedIn
	}
	if err := c.reg.Add(a); err != nil {
		return err
	}
	c.recomputeLocked()
	c.persistLocked()
	return nil
}

// DismissRealityCheck acknowledges the session-duration disclosure.
func (c *Controller) DismissRealityCheck() {
	c.rc.Dismiss()
}

// MarkTransaction records that the session has transaction history, which
// engages the currency lock.
func (c *Controller) MarkTransaction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasTxns = true
	c.recomputeLocked()
}

// MarkDepositAttempt records a deposit attempt, which engages the currency
// lock.
func (c *Controller) MarkDepositAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depositTried = true
	c.recomputeLocked()
}

// initAfterAuthorizeLocked runs the shared post-authorize initialization:
// merge the account list, fetch the landing-company configuration and the
// external platform account lists, resubscribe to balances, recompute the
// derived fields and arm the reality check. Called with the lock held; it
// releases the lock around the transport calls and returns with it held.
// Callers must re-check the epoch afterwards.
func (c *Controller) initAfterAuthorizeLocked(ctx context.Context, res *transport.AuthorizeResult, epoch uint64) {
	var ups []account.Account
	for _, e := range res.AccountList {
		if acct, perr := accountFromEntry(e); perr == nil {
			ups = append(ups, acct)
		}
	}
	c.reg.Upsert(ups)
	residence := res.Residence
	if c.balCancel != nil {
		c.balCancel()
		c.balCancel = nil
	}
	c.mu.Unlock()

	cfg, cfgErr := c.tr.LandingCompany(ctx, residence)
	platA, errA := c.tr.PlatformAccounts(ctx, account.PlatformA)
	platB, errB := c.tr.PlatformAccounts(ctx, account.PlatformB)
	subCtx, cancel := context.WithCancel(context.Background())
	ch, subErr := c.tr.SubscribeBalance(subCtx)

	c.mu.Lock()
	if c.epoch != epoch {
		cancel()
		return
	}
	if cfgErr != nil {
		// Non-fatal: eligibility fails open for the native platform and
		// stays unknown for the external ones until a fetch succeeds.
		c.log.Warn().Err(cfgErr).Msg("landing company fetch failed")
	} else {
		c.landingCfg = cfg
	}
	c.ingestPlatformAccountsLocked(account.PlatformA, platA, errA)
	c.ingestPlatformAccountsLocked(account.PlatformB, platB, errB)
	if subErr != nil {
		cancel()
		c.log.Warn().Err(subErr).Msg("balance subscription failed")
	} else {
		c.balCancel = cancel
		go c.consumeBalances(ch, epoch)
	}
	c.recomputeLocked()
	c.armRealityCheckLocked()
}

// ingestPlatformAccountsLocked registers the fetched external-platform
// accounts and caches their per-scope subtotals. Entries carrying an error
// descriptor mark the account as failed and suppress further signup for
// that (platform, kind).
func (c *Controller) ingestPlatformAccountsLocked(p account.Platform, list []transport.PlatformAccount, err error) {
	if err != nil {
		c.log.Warn().Str("platform", string(p)).Err(err).Msg("platform account list fetch failed")
		return
	}

	subtotals := map[account.Kind]decimal.Decimal{}
	for _, entry := range list {
		id, perr := account.ParseID(entry.ID)
		if perr != nil {
			c.log.Warn().Str("account_id", entry.ID).Msg("skipping platform account with invalid id")
			continue
		}
		acct := account.Account{
			ID:       id,
			Currency: entry.Currency,
			Kind:     entry.Kind,
			Platform: p,
			SubKind:  entry.SubKind,
		}
		if entry.Err != nil {
			acct.HasError = true
			acct.Server = entry.Err.Server
			if c.disabledSignup[p] == nil {
				c.disabledSignup[p] = make(map[account.Kind]bool)
			}
			c.disabledSignup[p][entry.Err.Kind] = true
		} else if d, derr := decimal.NewFromString(entry.Balance); derr == nil {
			acct.Balance = decimal.NewNullDecimal(d)
			subtotals[entry.Kind] = subtotals[entry.Kind].Add(d)
		}
		if aerr := c.reg.Add(acct); aerr != nil {
			// Already known from a previous fetch; refresh mutable fields.
			c.reg.Upsert([]account.Account{acct})
		}
	}
	for kind, sub := range subtotals {
		c.agg.SetExternalSubtotal(p, kind, sub)
	}
}

func (c *Controller) consumeBalances(ch <-chan transport.BalanceMessage, epoch uint64) {
	for msg := range ch {
		c.mu.Lock()
		stale := c.epoch != epoch
		c.mu.Unlock()
		if stale {
			return
		}
		c.HandleBalanceMessage(msg)
	}
}

// recomputeLocked refreshes the derived fields (offerings, currency lock)
// synchronously after each mutation.
func (c *Controller) recomputeLocked() {
	all := c.reg.All()
	c.offerings = landing.Remaining(all, c.landingCfg, c.isEU)

	active, ok := c.reg.Active()
	if !ok {
		c.canChange = false
		return
	}
	hasExternal := false
	for _, a := range all {
		if a.IsExternal() && a.Kind == account.Real && !a.Disabled && !a.HasError {
			hasExternal = true
			break
		}
	}
	c.canChange = account.CanChangeCurrency(active, hasExternal, c.hasTxns, c.depositTried)
}

func (c *Controller) armRealityCheckLocked() {
	if c.landingCfg == nil || !c.landingCfg.HasRealityCheck || c.rc.Dismissed() {
		return
	}
	d := time.Duration(c.landingCfg.RealityCheckMinutes) * time.Minute
	if d <= 0 {
		d = c.rcDefault
	}
	if d <= 0 {
		return
	}
	c.rc.Arm(d)
}

func (c *Controller) firstWithTokenLocked() (account.ID, bool) {
	for _, a := range c.reg.All() {
		if a.HasToken() && !a.Disabled {
			return a.ID, true
		}
	}
	return "", false
}

func (c *Controller) addNoticeLocked(level NoticeLevel, message string) {
	c.notices = append(c.notices, newNotice(level, message))
}

func (c *Controller) persistLocked() {
	if c.store == nil {
		return
	}
	if err := c.store.Save(c.reg.Snapshot()); err != nil {
		c.log.Warn().Err(err).Msg("saving session snapshot failed")
	}
}

// Serialize writes the current account map and active selection to the
// configured store.
func (c *Controller) Serialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.Save(c.reg.Snapshot())
}

// Restore loads a previously serialized session. The restored session is
// Ready if the snapshot's active account is still usable; the next
// transport call re-validates it.
func (c *Controller) Restore() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	snap, ok, err := c.store.Load()
	if err != nil || !ok {
		return false, err
	}
	c.reg.RestoreSnapshot(snap)
	if active, aok := c.reg.Active(); aok && active.HasToken() {
		c.state = StateReady
	}
	c.recomputeLocked()
	return true, nil
}

func accountFromEntry(e transport.AccountEntry) (account.Account, error) {
	id, err := account.ParseID(e.ID)
	if err != nil {
		return account.Account{}, err
	}
	kind := account.Real
	if e.IsDemo || account.IsDemoID(id) {
		kind = account.Demo
	}
	return account.Account{
		ID:             id,
		Currency:       e.Currency,
		Kind:           kind,
		Platform:       account.Native,
		LandingCompany: e.LandingCompany,
		Residence:      e.Residence,
		Disabled:       e.IsDisabled,
		Token:          e.Token,
	}, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
