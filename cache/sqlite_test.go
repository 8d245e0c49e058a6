package cache

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tradecore/client/account"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dir := t.TempDir()
	s, err := NewSQLite(filepath.Join(dir, "session.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func testSnapshot() account.Snapshot {
	return account.Snapshot{
		Active: "CR1001",
		Accounts: []account.Account{
			{
				ID:             "CR1001",
				Currency:       "USD",
				Kind:           account.Real,
				Platform:       account.Native,
				LandingCompany: "svg",
				Residence:      "ao",
				Balance:        decimal.NewNullDecimal(decimal.RequireFromString("123.45")),
				Token:          "tok-a",
			},
			{
				ID:       "VRTC9001",
				Currency: "USD",
				Kind:     account.Demo,
				Platform: account.Native,
				Token:    "tok-v",
			},
			{
				ID:       "MTR100",
				Currency: "USD",
				Kind:     account.Real,
				Platform: account.PlatformA,
				SubKind:  account.Synthetic,
				HasError: true,
				Server:   "p01",
			},
		},
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := testSnapshot()
	assert.NoError(t, s.Save(want))

	got, ok, err := s.Load()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want.Active, got.Active)
	assert.Equal(t, want.Accounts, got.Accounts)
}

func TestSQLiteLoadEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, ok, err := s.Load()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteSaveReplaces(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.NoError(t, s.Save(testSnapshot()))

	want := account.Snapshot{
		Active: "VRTC9001",
		Accounts: []account.Account{
			{ID: "VRTC9001", Currency: "USD", Kind: account.Demo, Platform: account.Native, Token: "tok-v"},
		},
	}
	assert.NoError(t, s.Save(want))

	got, ok, err := s.Load()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSQLiteClear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.NoError(t, s.Save(testSnapshot()))
	assert.NoError(t, s.Clear())

	_, ok, err := s.Load()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePreservesOrder(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	snap := account.Snapshot{Accounts: []account.Account{
		{ID: "MF300", Currency: "EUR", Kind: account.Real, Platform: account.Native},
		{ID: "CR1001", Currency: "USD", Kind: account.Real, Platform: account.Native},
		{ID: "VRTC9001", Currency: "USD", Kind: account.Demo, Platform: account.Native},
	}}
	assert.NoError(t, s.Save(snap))

	got, ok, err := s.Load()
	assert.NoError(t, err)
	assert.True(t, ok)

	var ids []account.ID
	for _, a := range got.Accounts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []account.ID{"MF300", "CR1001", "VRTC9001"}, ids)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, ok, err := m.Load()
	assert.NoError(t, err)
	assert.False(t, ok)

	want := testSnapshot()
	assert.NoError(t, m.Save(want))
	got, ok, err := m.Load()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	assert.NoError(t, m.Clear())
	_, ok, err = m.Load()
	assert.NoError(t, err)
	assert.False(t, ok)
}
