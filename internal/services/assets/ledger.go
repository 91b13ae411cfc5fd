package assets

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mwalther/equipcore/internal/errs"
	"github.com/mwalther/equipcore/internal/models"
)

// FieldSet is one column set the ledger tries to write. Attempts are pure
// data so degradation order can be tested without a live store.
type FieldSet struct {
	Name    string
	Columns []string
}

// coreColumns is the minimal guaranteed field set. Every deployed schema
// has these columns; a degraded append never drops them.
var coreColumns = []string{
	"item_id", "user_id", "kind", "color", "title", "description", "created_at",
}

// appendAttempts is the degradation order for appends carrying return
// details: full write first, then without the newest optional columns
// (second photo and sub-item list), then the core set.
var appendAttempts = []FieldSet{
	{
		Name:    "full",
		Columns: append(append([]string{}, coreColumns...), "return_photo", "return_photo2", "return_notes", "return_items"),
	},
	{
		Name:    "reduced",
		Columns: append(append([]string{}, coreColumns...), "return_photo", "return_notes"),
	},
	{
		Name:    "core",
		Columns: coreColumns,
	},
}

// Ledger appends immutable history events. When the backing schema lacks
// optional columns the write is retried with a reduced field set instead
// of failing the enclosing transaction.
type Ledger struct {
	attempts []FieldSet
}

// NewLedger creates a ledger with the default degradation order.
func NewLedger() *Ledger {
	return &Ledger{attempts: appendAttempts}
}

// Attempts returns the configured degradation order.
func (l *Ledger) Attempts() []FieldSet {
	return l.attempts
}

// Append writes one history event inside tx. Events without return details
// go straight to the core field set. Events with return details start with
// the full set and degrade at most twice, down to the core set.
func (l *Ledger) Append(tx *gorm.DB, event *models.HistoryEvent) error {
	attempts := l.attempts
	if !hasReturnDetails(event) {
		attempts = attempts[len(attempts)-1:]
	}

	var lastErr error
	for i, set := range attempts {
		// Each attempt runs under a savepoint: a rejected INSERT would
		// otherwise poison the enclosing transaction on postgres.
		sp := fmt.Sprintf("ledger_attempt_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			return err
		}
		err := tx.Model(&models.HistoryEvent{}).Select(set.Columns).Create(event).Error
		if err == nil {
			return nil
		}
		if !isUndefinedColumn(err) {
			return err
		}
		if err := tx.RollbackTo(sp).Error; err != nil {
			return err
		}
		// Clear the generated key so the retry inserts fresh.
		event.ID = 0
		lastErr = errs.SchemaMismatchf(err, "history append rejected with field set %q", set.Name)
	}
	return lastErr
}

func hasReturnDetails(event *models.HistoryEvent) bool {
	return event.ReturnPhoto != "" || event.ReturnPhoto2 != "" ||
		event.ReturnNotes != "" || event.ReturnItems != ""
}

// isUndefinedColumn matches "column does not exist" storage errors
// (postgres 42703, sqlite "has no column named"). Detection is confined
// here; callers only ever see a typed SchemaMismatch.
func isUndefinedColumn(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "42703") {
		return true
	}
	if strings.Contains(msg, "no column") {
		return true
	}
	return strings.Contains(msg, "column") && strings.Contains(msg, "does not exist")
}
