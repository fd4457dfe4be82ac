// Package audit persists deployment decisions to an append-only record
// store. Persistence is a separate failure domain from decision
// computation: a write failure is reported to the caller but never
// invalidates the decision itself.
package audit

import (
	"time"

	"github.com/deployguard/deployguard/internal/decision"
)

// Sink appends decision records. Implementations must serialize
// concurrent writers so each record is fully written before the next
// begins.
type Sink interface {
	Write(result *decision.Result) error
	Close() error
}

// Reader retrieves previously written records.
type Reader interface {
	ReadDay(day time.Time) ([]decision.Result, error)
}
