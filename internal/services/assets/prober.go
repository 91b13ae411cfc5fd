package assets

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// ColumnDef describes one optional column.
type ColumnDef struct {
	Name string
	Type string
}

// ColumnSet is a named group of optional columns on one table, checked and
// provisioned as a unit.
type ColumnSet struct {
	Name    string
	Table   string
	Columns []ColumnDef
}

// HistoryReturnColumns are the return-detail columns of item_history added
// after the first deployments.
var HistoryReturnColumns = ColumnSet{
	Name:  "item_history.return",
	Table: "item_history",
	Columns: []ColumnDef{
		{Name: "return_photo", Type: "text"},
		{Name: "return_photo2", Type: "text"},
		{Name: "return_notes", Type: "text"},
		{Name: "return_items", Type: "text"},
	},
}

// RefreshTokenColumns are the revocation/audit columns of refresh_tokens.
var RefreshTokenColumns = ColumnSet{
	Name:  "refresh_tokens.audit",
	Table: "refresh_tokens",
	Columns: []ColumnDef{
		{Name: "revoked_at", Type: "timestamptz"},
		{Name: "user_agent", Type: "text"},
	},
}

type probeResult struct {
	available bool
	checkedAt time.Time
}

// Prober detects whether optional columns exist and best-effort creates
// them. Results are cached with a short TTL; creation is attempted at most
// once per process per column set. The cache only saves metadata queries,
// so last-writer-wins races between requests are harmless.
type Prober struct {
	db  *gorm.DB
	ttl time.Duration

	mu      sync.Mutex
	cache   map[string]probeResult
	created map[string]bool
	now     func() time.Time
}

// NewProber creates a prober with the given cache TTL.
func NewProber(db *gorm.DB, ttl time.Duration) *Prober {
	return &Prober{
		db:      db,
		ttl:     ttl,
		cache:   make(map[string]probeResult),
		created: make(map[string]bool),
		now:     time.Now,
	}
}

// IsAvailable reports whether every column of the set exists. The answer
// is cached for the configured TTL.
func (p *Prober) IsAvailable(set ColumnSet) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isAvailableLocked(set)
}

func (p *Prober) isAvailableLocked(set ColumnSet) bool {
	if res, ok := p.cache[set.Name]; ok && p.now().Sub(res.checkedAt) < p.ttl {
		return res.available
	}

	available := true
	for _, col := range set.Columns {
		if !p.db.Migrator().HasColumn(set.Table, col.Name) {
			available = false
			break
		}
	}
	p.cache[set.Name] = probeResult{available: available, checkedAt: p.now()}
	return available
}

// EnsureAvailable checks the set and, if columns are missing, attempts to
// add them. Creation runs at most once per process lifetime; a column that
// already exists counts as success.
func (p *Prober) EnsureAvailable(set ColumnSet) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isAvailableLocked(set) {
		return true
	}
	if p.created[set.Name] {
		return false
	}
	p.created[set.Name] = true

	colType := func(c ColumnDef) string {
		// timestamptz is postgres-only; sqlite stores datetime affinity.
		if p.db.Dialector.Name() != "postgres" && c.Type == "timestamptz" {
			return "datetime"
		}
		return c.Type
	}

	for _, col := range set.Columns {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", set.Table, col.Name, colType(col))
		if err := p.db.Exec(stmt).Error; err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			log.Printf("⚠️  Could not add column %s.%s: %v", set.Table, col.Name, err)
		}
	}

	delete(p.cache, set.Name)
	return p.isAvailableLocked(set)
}

// isDuplicateColumn matches "column already exists" errors across dialects
// (postgres 42701, sqlite "duplicate column name").
func isDuplicateColumn(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") ||
		(strings.Contains(msg, "already exists") && strings.Contains(msg, "column")) ||
		strings.Contains(msg, "42701")
}
