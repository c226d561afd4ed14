package store

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	card_hash TEXT PRIMARY KEY,
	added_at TEXT NOT NULL,
	review_stage TEXT NOT NULL DEFAULT 'New',
	last_reviewed_at TEXT,
	stability REAL,
	difficulty REAL,
	interval_raw REAL,
	interval_days INTEGER NOT NULL DEFAULT 0,
	due_date TEXT,
	review_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(review_stage, due_date);

CREATE TABLE IF NOT EXISTS version_update (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_prompted_at TEXT,
	last_version_check_at TEXT
);
`

// timeLayout sorts lexically in UTC, which the due query relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
