package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Decisions audit table
CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	evaluation_id TEXT NOT NULL UNIQUE,
	service TEXT NOT NULL,
	action TEXT NOT NULL,
	policy_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	error_budget_pct REAL NOT NULL,
	burn_rate TEXT NOT NULL,
	wow_change_pct REAL NOT NULL,
	decision_json TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decisions_service ON decisions(service);
CREATE INDEX IF NOT EXISTS idx_decisions_action ON decisions(action);
CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp DESC);

-- Latest state table (one row per service)
CREATE TABLE IF NOT EXISTS latest_state (
	service TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	policy_id TEXT NOT NULL,
	error_budget_pct REAL NOT NULL,
	burn_rate TEXT NOT NULL,
	wow_change_pct REAL NOT NULL,
	decision_json TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
