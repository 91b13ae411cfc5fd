package assets

import (
	"fmt"
	"regexp"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwalther/equipcore/internal/models"
)

// Asset tags look like "#000123": a marker, then a fixed-width sequential number.
const (
	tagPrefix = "#"
	tagWidth  = 6
)

// Advisory lock key guarding tag allocation on Postgres. FOR UPDATE locks
// existing rows only; on an empty table two concurrent creates would both
// scan nothing and compute the same first tag.
const tagAllocationLockID = 7420001

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// lockForUpdate adds a row-level write lock on dialects that support it.
// SQLite serializes writers on its own and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockTagAllocation serializes allocators on Postgres for the whole
// transaction, covering the empty-table case FOR UPDATE cannot. SQLite
// serializes writers on its own.
func lockTagAllocation(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", tagAllocationLockID).Error
}

// nextAssetTag computes the next sequential asset tag. It must run inside
// the transaction that inserts the item: allocation is serialized by an
// advisory lock plus a row-level write lock on the scan, so a concurrent
// allocation blocks until this transaction finishes and can never observe
// the same maximum.
func nextAssetTag(tx *gorm.DB) (string, error) {
	if err := lockTagAllocation(tx); err != nil {
		return "", fmt.Errorf("locking tag allocation: %w", err)
	}

	var rows []struct {
		AssetTag string
		SKU      string
	}
	if err := lockForUpdate(tx).
		Model(&models.Item{}).
		Select("asset_tag", "sku").
		Find(&rows).Error; err != nil {
		return "", fmt.Errorf("scanning asset tags: %w", err)
	}

	max := 0
	for _, row := range rows {
		for _, candidate := range []string{row.AssetTag, row.SKU} {
			if n, ok := tagNumber(candidate); ok && n > max {
				max = n
			}
		}
	}

	return formatTag(max + 1), nil
}

// tagNumber extracts the trailing numeric suffix of a tag or legacy sku.
// Malformed values are skipped, never fatal.
func tagNumber(tag string) (int, bool) {
	m := trailingDigits.FindString(tag)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Suffix longer than an int, e.g. a raw EAN. Ignore it.
		return 0, false
	}
	return n, true
}

func formatTag(n int) string {
	return fmt.Sprintf("%s%0*d", tagPrefix, tagWidth, n)
}
