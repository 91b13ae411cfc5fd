package assets

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mwalther/equipcore/internal/models"
)

func TestTagNumber(t *testing.T) {
	tests := []struct {
		tag  string
		want int
		ok   bool
	}{
		{"#000123", 123, true},
		{"#000001", 1, true},
		{"EQ-000045", 45, true},
		{"42", 42, true},
		{"ABC", 0, false},
		{"", 0, false},
		{"#12x", 0, false},
		{"tag-999999999999999999999999", 0, false}, // overflows int, skipped
	}

	for _, tt := range tests {
		got, ok := tagNumber(tt.tag)
		if ok != tt.ok || got != tt.want {
			t.Errorf("tagNumber(%q) = (%d, %v), want (%d, %v)", tt.tag, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatTag(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "#000001"},
		{123, "#000123"},
		{999999, "#999999"},
		{1000000, "#1000000"}, // width grows past the pad, no truncation
	}
	for _, tt := range tests {
		if got := formatTag(tt.n); got != tt.want {
			t.Errorf("formatTag(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestNextAssetTagEmptyStore(t *testing.T) {
	db := setupDB(t)

	tag, err := nextAssetTag(db)
	if err != nil {
		t.Fatalf("nextAssetTag: %v", err)
	}
	if tag != "#000001" {
		t.Errorf("tag = %q, want #000001", tag)
	}
}

func TestNextAssetTagScansBothColumns(t *testing.T) {
	db := setupDB(t)

	items := []models.Item{
		{ID: uuid.NewString(), Category: "c", Type: "t", Manufacturer: "m", Model: "m", SerialNumber: "S1", AssetTag: "#000007"},
		{ID: uuid.NewString(), Category: "c", Type: "t", Manufacturer: "m", Model: "m", SerialNumber: "S2", AssetTag: "legacy", SKU: "EQ-000031"},
		{ID: uuid.NewString(), Category: "c", Type: "t", Manufacturer: "m", Model: "m", SerialNumber: "S3", AssetTag: "junk-no-digits"},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tag, err := nextAssetTag(db)
	if err != nil {
		t.Fatalf("nextAssetTag: %v", err)
	}
	if tag != "#000032" {
		t.Errorf("tag = %q, want #000032 (max over asset_tag and sku)", tag)
	}
}
