// cache/schema.go
package cache

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	currency TEXT NOT NULL,
	kind TEXT NOT NULL,
	platform TEXT NOT NULL,
	sub_kind TEXT NOT NULL,
	landing_company TEXT NOT NULL,
	residence TEXT NOT NULL,
	balance TEXT,
	disabled INTEGER NOT NULL,
	token TEXT NOT NULL,
	has_error INTEGER NOT NULL,
	server TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_position ON accounts(position);
`
