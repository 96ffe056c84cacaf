package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: accounts must be created BEFORE the tables referencing it.
// Amounts and balances are decimal strings (TEXT), never REAL.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    roles TEXT NOT NULL,
    balance TEXT NOT NULL DEFAULT '0',
    reporting_engineer_id TEXT,
    assigned_cashier_id TEXT,
    cashier_engineer_id TEXT,
    cashier_location_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL CHECK (status IN ('submitted', 'verified', 'approved', 'rejected')),
    assigned_engineer_id TEXT,
    assigned_by_comment TEXT,
    transaction_number INTEGER NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (owner_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    claim_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    action TEXT NOT NULL,
    comment TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS money_assignments (
    id TEXT PRIMARY KEY,
    cashier_id TEXT NOT NULL,
    recipient_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    assigned_at INTEGER NOT NULL,
    is_returned INTEGER NOT NULL DEFAULT 0,
    returned_at INTEGER,
    return_request_id TEXT,
    FOREIGN KEY (cashier_id) REFERENCES accounts(id),
    FOREIGN KEY (recipient_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS money_return_requests (
    id TEXT PRIMARY KEY,
    requester_id TEXT NOT NULL,
    cashier_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
    requested_at INTEGER NOT NULL,
    decided_at INTEGER,
    decided_by TEXT,
    rejection_reason TEXT,
    FOREIGN KEY (requester_id) REFERENCES accounts(id),
    FOREIGN KEY (cashier_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    claim_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_owner_id ON claims(owner_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_claim_id ON audit_log(claim_id);
CREATE INDEX IF NOT EXISTS idx_money_assignments_open ON money_assignments(recipient_id, cashier_id, is_returned, assigned_at);
CREATE INDEX IF NOT EXISTS idx_money_return_requests_cashier_id ON money_return_requests(cashier_id);
CREATE INDEX IF NOT EXISTS idx_notifications_account_id ON notifications(account_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
