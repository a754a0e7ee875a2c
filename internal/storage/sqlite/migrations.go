package sqlite

import (
	"context"
	"database/sql"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// splits must be created before the tables that reference it.
const schema = `
CREATE TABLE IF NOT EXISTS splits (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    total_cents INTEGER NOT NULL CHECK (total_cents > 0),
    method TEXT NOT NULL,
    creator_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    subtotal_cents INTEGER NOT NULL DEFAULT 0,
    tax_cents INTEGER NOT NULL DEFAULT 0,
    tip_cents INTEGER NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS participants (
    split_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    display_name TEXT NOT NULL,
    amount_owed INTEGER NOT NULL CHECK (amount_owed >= 0),
    amount_paid INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (split_id, participant_id),
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS receipt_items (
    id TEXT PRIMARY KEY,
    split_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    price_cents INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_claims (
    item_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (item_id, participant_id),
    FOREIGN KEY (item_id) REFERENCES receipt_items(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE,
    split_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
    received_at INTEGER NOT NULL,
    source TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_splits_creator_id ON splits(creator_id);
CREATE INDEX IF NOT EXISTS idx_participants_split_id ON participants(split_id);
CREATE INDEX IF NOT EXISTS idx_receipt_items_split_id ON receipt_items(split_id);
CREATE INDEX IF NOT EXISTS idx_item_claims_item_id ON item_claims(item_id);
CREATE INDEX IF NOT EXISTS idx_payments_split_id ON payments(split_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
