// Package cache persists session snapshots so a client can restore its
// account map across restarts without re-fetching everything at startup.
package cache

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tradecore/client/account"
)

const activeKey = "active_account"

// SQLiteStore keeps the snapshot in a local SQLite database. It implements
// the session package's Store interface.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: opening %s", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cache: applying schema")
	}

	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored snapshot atomically.
func (s *SQLiteStore) Save(snap account.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "cache: beginning save")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return errors.Wrap(err, "cache: clearing accounts")
	}
	for i, a := range snap.Accounts {
		var bal sql.NullString
		if a.Balance.Valid {
			bal = sql.NullString{String: a.Balance.Decimal.String(), Valid: true}
		}
		_, err := tx.Exec(`
			INSERT INTO accounts
			(position, id, currency, kind, platform, sub_kind, landing_company, residence, balance, disabled, token, has_error, server)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, string(a.ID), a.Currency, string(a.Kind), string(a.Platform), string(a.SubKind),
			a.LandingCompany, a.Residence, bal, a.Disabled, a.Token, a.HasError, a.Server,
		)
		if err != nil {
			return errors.Wrapf(err, "cache: inserting account %s", a.ID)
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO session (key, value) VALUES (?, ?)`,
		activeKey, string(snap.Active))
	if err != nil {
		return errors.Wrap(err, "cache: saving active selection")
	}
	return errors.Wrap(tx.Commit(), "cache: committing save")
}

// Load returns the stored snapshot; the second return is false when nothing
// has been saved yet.
func (s *SQLiteStore) Load() (account.Snapshot, bool, error) {
	var snap account.Snapshot

	rows, err := s.db.Query(`
		SELECT id, currency, kind, platform, sub_kind, landing_company, residence, balance, disabled, token, has_error, server
		FROM accounts ORDER BY position`)
	if err != nil {
		return snap, false, errors.Wrap(err, "cache: querying accounts")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a   account.Account
			id  string
			bal sql.NullString
		)
		err := rows.Scan(&id, &a.Currency, (*string)(&a.Kind), (*string)(&a.Platform), (*string)(&a.SubKind),
			&a.LandingCompany, &a.Residence, &bal, &a.Disabled, &a.Token, &a.HasError, &a.Server)
		if err != nil {
			return snap, false, errors.Wrap(err, "cache: scanning account row")
		}
		a.ID = account.ID(id)
		if bal.Valid {
			d, derr := decimal.NewFromString(bal.String)
			if derr != nil {
				return snap, false, errors.Wrapf(derr, "cache: corrupt balance for %s", id)
			}
			a.Balance = decimal.NewNullDecimal(d)
		}
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return snap, false, errors.Wrap(err, "cache: reading account rows")
	}
	if len(snap.Accounts) == 0 {
		return snap, false, nil
	}

	var active string
	err = s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, activeKey).Scan(&active)
	if err != nil && err != sql.ErrNoRows {
		return snap, false, errors.Wrap(err, "cache: reading active selection")
	}
	snap.Active = account.ID(active)
	return snap, true, nil
}

// Clear drops the stored snapshot.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM accounts`); err != nil {
		return errors.Wrap(err, "cache: clearing accounts")
	}
	_, err := s.db.Exec(`DELETE FROM session`)
	return errors.Wrap(err, "cache: clearing session")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
