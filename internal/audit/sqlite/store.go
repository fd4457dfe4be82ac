package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deployguard/deployguard/internal/decision"
)

// Store implements audit.Sink and audit.Reader backed by SQLite. The full
// decision is kept as JSON alongside a few indexed columns for filtering.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Filter defines filtering options for audit queries.
type Filter struct {
	Service string
	Action  string
	Day     *time.Time // records whose evaluation timestamp falls on this UTC day
	Limit   int
	Offset  int
}

// Write appends a decision record. SQLite serializes concurrent writers
// itself, so no additional locking is needed here.
func (s *Store) Write(result *decision.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	service, budget, burn, wow := evidenceColumns(result)

	query := `
		INSERT INTO decisions (
			evaluation_id, service, action, policy_id, reason,
			error_budget_pct, burn_rate, wow_change_pct, decision_json, timestamp
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		result.EvaluationID,
		service,
		string(result.Action),
		result.PolicyID,
		result.Reason,
		budget,
		burn,
		wow,
		string(payload),
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to store decision: %w", err)
	}

	return s.updateLatestState(service, result, payload, budget, burn, wow)
}

func (s *Store) updateLatestState(service string, result *decision.Result, payload []byte, budget float64, burn string, wow float64) error {
	query := `
		INSERT INTO latest_state (
			service, action, policy_id, error_budget_pct, burn_rate,
			wow_change_pct, decision_json, timestamp
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			action = excluded.action,
			policy_id = excluded.policy_id,
			error_budget_pct = excluded.error_budget_pct,
			burn_rate = excluded.burn_rate,
			wow_change_pct = excluded.wow_change_pct,
			decision_json = excluded.decision_json,
			timestamp = excluded.timestamp,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.Exec(query,
		service,
		string(result.Action),
		result.PolicyID,
		budget,
		burn,
		wow,
		string(payload),
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to update latest state: %w", err)
	}

	return nil
}

// Query retrieves decision records with optional filtering, newest first.
func (s *Store) Query(filter Filter) ([]decision.Result, error) {
	query := `SELECT decision_json FROM decisions WHERE 1=1`
	args := []interface{}{}

	if filter.Service != "" {
		query += " AND service = ?"
		args = append(args, filter.Service)
	}

	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}

	if filter.Day != nil {
		start := filter.Day.UTC().Truncate(24 * time.Hour)
		end := start.Add(24 * time.Hour)
		query += " AND timestamp >= ? AND timestamp < ?"
		args = append(args, start, end)
	}

	query += " ORDER BY timestamp DESC"

	// Limit 0 means the default page size; a negative limit disables it.
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Limit == 0 {
		query += " LIMIT 100"
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var records []decision.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var r decision.Result
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ReadDay implements audit.Reader: all records for a given UTC day, in
// write order.
func (s *Store) ReadDay(day time.Time) ([]decision.Result, error) {
	records, err := s.Query(Filter{Day: &day, Limit: -1})
	if err != nil {
		return nil, err
	}

	// Query returns newest first; readers expect write order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LatestState returns the most recent decision for a service, or nil when
// the service has never been evaluated.
func (s *Store) LatestState(service string) (*decision.Result, error) {
	var payload string
	err := s.db.QueryRow(`SELECT decision_json FROM latest_state WHERE service = ?`, service).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest state: %w", err)
	}

	var r decision.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}
	return &r, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// evidenceColumns extracts the indexed columns from a decision, tolerating
// absent evaluator results.
func evidenceColumns(result *decision.Result) (service string, budget float64, burn string, wow float64) {
	service = "unknown"
	if result.SLO != nil {
		if result.SLO.Details.Service != "" {
			service = result.SLO.Details.Service
		}
		budget = result.SLO.ErrorBudgetPct
		burn = string(result.SLO.BurnRate)
	}
	if result.Cost != nil {
		wow = result.Cost.WoWChangePct
		if service == "unknown" && result.Cost.Service != "" {
			service = result.Cost.Service
		}
	}
	return service, budget, burn, wow
}
