package assets

import (
	"testing"
	"time"
)

func TestProberDetectsAndProvisions(t *testing.T) {
	db := setupDB(t)
	prober := NewProber(db, time.Minute)

	if prober.IsAvailable(HistoryReturnColumns) {
		t.Fatal("return columns reported available on a fresh schema")
	}
	if !prober.EnsureAvailable(HistoryReturnColumns) {
		t.Fatal("EnsureAvailable failed to provision columns")
	}
	if !prober.IsAvailable(HistoryReturnColumns) {
		t.Fatal("columns not available after provisioning")
	}
}

func TestProberEnsureIsIdempotent(t *testing.T) {
	db := setupDB(t)
	prober := NewProber(db, time.Minute)

	if !prober.EnsureAvailable(RefreshTokenColumns) {
		t.Fatal("first ensure failed")
	}
	// Second ensure hits the cache / existing columns, never errors.
	if !prober.EnsureAvailable(RefreshTokenColumns) {
		t.Fatal("second ensure failed")
	}

	// A second prober against the same database sees the columns and
	// treats "already exists" as success.
	other := NewProber(db, time.Minute)
	if !other.EnsureAvailable(RefreshTokenColumns) {
		t.Fatal("ensure on pre-provisioned schema failed")
	}
}

func TestProberCachesWithinTTL(t *testing.T) {
	db := setupDB(t)
	prober := NewProber(db, time.Minute)

	now := time.Unix(1700000000, 0)
	prober.now = func() time.Time { return now }

	if prober.IsAvailable(HistoryReturnColumns) {
		t.Fatal("fresh schema must not have the columns")
	}

	// Add the columns behind the prober's back; the cached answer holds
	// until the TTL expires.
	for _, col := range HistoryReturnColumns.Columns {
		if err := db.Exec("ALTER TABLE item_history ADD COLUMN " + col.Name + " " + col.Type).Error; err != nil {
			t.Fatalf("adding column: %v", err)
		}
	}
	if prober.IsAvailable(HistoryReturnColumns) {
		t.Fatal("cached miss expired too early")
	}

	now = now.Add(2 * time.Minute)
	if !prober.IsAvailable(HistoryReturnColumns) {
		t.Fatal("cache not refreshed after TTL")
	}
}
