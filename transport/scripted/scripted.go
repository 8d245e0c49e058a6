// Package scripted is a deterministic in-memory transport. Tests, examples
// and the CLI demo mode drive the session core against canned responses
// instead of a live backend.
package scripted

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/tradecore/client/account"
	"github.com/tradecore/client/landing"
	"github.com/tradecore/client/transport"
)

// Transport implements transport.Transport from in-memory fixtures. Zero
// value is not usable; construct with New.
type Transport struct {
	mu sync.Mutex

	// Identities maps tokens to the authorize result they yield. Tokens
	// not present fail with an AuthError.
	Identities map[string]*transport.AuthorizeResult
	// LandingConfigs maps residences to their jurisdiction configuration.
	LandingConfigs map[string]*landing.Config
	// PlatformLists holds the canned external-platform account lists.
	PlatformLists map[account.Platform][]transport.PlatformAccount

	// LandingErr, when set, makes every landing-company fetch fail.
	LandingErr error
	// PlatformErrs fails the account-list fetch for specific platforms.
	PlatformErrs map[account.Platform]error
	// TopUpAmount is the balance a demo top-up resets to.
	TopUpAmount string

	// AuthorizeHold, when set, blocks Authorize until the channel is
	// closed or the context ends. Lets tests interleave a logout with an
	// in-flight authorization.
	AuthorizeHold chan struct{}

	balCh       chan transport.BalanceMessage
	logoutCalls int
}

// New returns an empty scripted transport.
func New() *Transport {
	return &Transport{
		Identities:     make(map[string]*transport.AuthorizeResult),
		LandingConfigs: make(map[string]*landing.Config),
		PlatformLists:  make(map[account.Platform][]transport.PlatformAccount),
		PlatformErrs:   make(map[account.Platform]error),
		TopUpAmount:    "10000.00",
	}
}

func (t *Transport) Authorize(ctx context.Context, token string) (*transport.AuthorizeResult, error) {
	t.mu.Lock()
	hold := t.AuthorizeHold
	t.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "scripted: authorize interrupted")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.Identities[token]
	if !ok {
		return nil, &transport.AuthError{Code: "InvalidToken", Message: "the token is invalid or expired"}
	}
	out := *res
	return &out, nil
}

func (t *Transport) LandingCompany(ctx context.Context, residence string) (*landing.Config, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.LandingErr != nil {
		return nil, t.LandingErr
	}
	cfg, ok := t.LandingConfigs[residence]
	if !ok {
		return nil, errors.Errorf("scripted: no landing company for residence %q", residence)
	}
	return cfg, nil
}

func (t *Transport) PlatformAccounts(ctx context.Context, p account.Platform) ([]transport.PlatformAccount, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.PlatformErrs[p]; err != nil {
		return nil, err
	}
	list := t.PlatformLists[p]
	out := make([]transport.PlatformAccount, len(list))
	copy(out, list)
	return out, nil
}

func (t *Transport) SubscribeBalance(ctx context.Context) (<-chan transport.BalanceMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balCh != nil {
		close(t.balCh)
	}
	ch := make(chan transport.BalanceMessage, 16)
	t.balCh = ch
	go func() {
		<-ctx.Done()
		t.mu.Lock()
		if t.balCh == ch {
			close(ch)
			t.balCh = nil
		}
		t.mu.Unlock()
	}()
	return ch, nil
}

// PushBalance delivers a balance message to the current subscriber. It is
// a no-op when nothing is subscribed.
func (t *Transport) PushBalance(msg transport.BalanceMessage) {
	t.mu.Lock()
	ch := t.balCh
	t.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- msg
}

func (t *Transport) TopUpDemo(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.TopUpAmount, nil
}

func (t *Transport) Logout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logoutCalls++
	if t.balCh != nil {
		close(t.balCh)
		t.balCh = nil
	}
	return nil
}

// LogoutCalls reports how many times the backend logout was requested.
func (t *Transport) LogoutCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logoutCalls
}

var _ transport.Transport = (*Transport)(nil)
