package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/deployguard/deployguard/internal/cost"
	"github.com/deployguard/deployguard/internal/decision"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/slo"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedDecision(id, service string, action policy.Action, ts time.Time) *decision.Result {
	return &decision.Result{
		EvaluationID: id,
		Timestamp:    ts,
		Action:       action,
		PolicyID:     "P001",
		PolicyName:   "Block on exhausted budget",
		Reason:       "error budget exhausted",
		Remediation:  "wait for recovery",
		SLO: &slo.Result{
			ErrorBudgetPct: 5.0,
			BurnRate:       slo.BurnCritical,
			Details:        slo.Details{Service: service},
		},
		Cost: &cost.Result{Service: service, WoWChangePct: 45.0, Trend: cost.TrendSpiking},
	}
}

func TestStoreWriteAndQuery(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := storedDecision(fmt.Sprintf("eval-%d", i), "checkout-api", policy.ActionBlock, base.Add(time.Duration(i)*time.Minute))
		if err := store.Write(r); err != nil {
			t.Fatalf("write record %d: %v", i, err)
		}
	}

	records, err := store.Query(Filter{Service: "checkout-api"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Newest first.
	if records[0].EvaluationID != "eval-2" {
		t.Errorf("expected eval-2 first, got %s", records[0].EvaluationID)
	}
	if records[0].SLO == nil || records[0].SLO.ErrorBudgetPct != 5.0 {
		t.Error("expected full decision payload to survive storage")
	}
}

func TestStoreQueryFilters(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	records := []*decision.Result{
		storedDecision("eval-a", "checkout-api", policy.ActionBlock, base),
		storedDecision("eval-b", "checkout-api", policy.ActionAllow, base.Add(time.Hour)),
		storedDecision("eval-c", "payments-api", policy.ActionBlock, base.Add(25*time.Hour)),
	}
	for _, r := range records {
		if err := store.Write(r); err != nil {
			t.Fatalf("write %s: %v", r.EvaluationID, err)
		}
	}

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{
			name:    "by service",
			filter:  Filter{Service: "payments-api"},
			wantIDs: []string{"eval-c"},
		},
		{
			name:    "by action",
			filter:  Filter{Action: "BLOCK"},
			wantIDs: []string{"eval-c", "eval-a"},
		},
		{
			name:    "by day",
			filter:  Filter{Day: &base},
			wantIDs: []string{"eval-b", "eval-a"},
		},
		{
			name:    "service and action",
			filter:  Filter{Service: "checkout-api", Action: "ALLOW"},
			wantIDs: []string{"eval-b"},
		},
		{
			name:    "limit",
			filter:  Filter{Limit: 1},
			wantIDs: []string{"eval-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(tt.filter)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d records, got %d", len(tt.wantIDs), len(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].EvaluationID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].EvaluationID)
				}
			}
		})
	}
}

func TestStoreReadDayWriteOrder(t *testing.T) {
	store := setupTestStore(t)

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := storedDecision(fmt.Sprintf("eval-%d", i), "checkout-api", policy.ActionWarn, day.Add(time.Duration(i)*time.Hour))
		if err := store.Write(r); err != nil {
			t.Fatalf("write record %d: %v", i, err)
		}
	}

	records, err := store.ReadDay(day)
	if err != nil {
		t.Fatalf("read day: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := range records {
		if want := fmt.Sprintf("eval-%d", i); records[i].EvaluationID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, records[i].EvaluationID)
		}
	}
}

func TestStoreLatestState(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	first := storedDecision("eval-1", "checkout-api", policy.ActionBlock, base)
	second := storedDecision("eval-2", "checkout-api", policy.ActionAllow, base.Add(time.Hour))

	if err := store.Write(first); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := store.Write(second); err != nil {
		t.Fatalf("write second: %v", err)
	}

	latest, err := store.LatestState("checkout-api")
	if err != nil {
		t.Fatalf("latest state: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest state record")
	}
	if latest.EvaluationID != "eval-2" {
		t.Errorf("expected eval-2 as latest, got %s", latest.EvaluationID)
	}
	if latest.Action != policy.ActionAllow {
		t.Errorf("expected ALLOW, got %s", latest.Action)
	}
}

func TestStoreLatestStateUnknownService(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.LatestState("never-evaluated")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for an unknown service, got %+v", latest)
	}
}

func TestStoreRejectsDuplicateEvaluationID(t *testing.T) {
	store := setupTestStore(t)

	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	r := storedDecision("eval-dup", "checkout-api", policy.ActionWarn, ts)
	if err := store.Write(r); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := store.Write(r); err == nil {
		t.Error("expected unique constraint violation on duplicate evaluation ID")
	}
}
