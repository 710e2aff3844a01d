package sqlite

// schema is idempotent; Migrate runs it on every Start.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address TEXT PRIMARY KEY,
	balance TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS operators (
	holder   TEXT NOT NULL,
	operator TEXT NOT NULL,
	kind     TEXT NOT NULL CHECK (kind IN ('granted', 'revoked_default')),
	PRIMARY KEY (holder, operator)
);

CREATE TABLE IF NOT EXISTS globals (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stakes (
	id           INTEGER PRIMARY KEY,
	owner        TEXT NOT NULL,
	principal    TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	withdrawn_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_stakes_owner ON stakes (owner);

CREATE TABLE IF NOT EXISTS rounds (
	id        INTEGER PRIMARY KEY,
	pot       TEXT NOT NULL DEFAULT '0',
	winner    TEXT,
	closed_at TEXT
);

CREATE TABLE IF NOT EXISTS tickets (
	round_id INTEGER NOT NULL,
	holder   TEXT NOT NULL,
	count    INTEGER NOT NULL,
	PRIMARY KEY (round_id, holder)
);

CREATE TABLE IF NOT EXISTS journal (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	from_addr TEXT,
	to_addr   TEXT,
	operator  TEXT,
	amount    TEXT NOT NULL,
	stake_id  INTEGER,
	round_id  INTEGER,
	at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal (kind);
CREATE INDEX IF NOT EXISTS idx_journal_from ON journal (from_addr);
CREATE INDEX IF NOT EXISTS idx_journal_to   ON journal (to_addr);
`
