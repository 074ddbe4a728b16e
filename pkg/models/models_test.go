package models

import (
	"testing"
	"time"
)

func TestHideModeValidation(t *testing.T) {
	tests := []struct {
		mode    HideMode
		isValid bool
	}{
		{"NONE", true},
		{"DEDICATED_INTERMIDIATES", true},
		{"ALL_EXCEPT_BOTTOM", true},
		{HideMode("DEDICATED_INTERMEDIATES"), false},
		{HideMode("none"), false},
		{HideMode(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			valid := ValidHideMode(tt.mode)
			if valid != tt.isValid {
				t.Errorf("Expected isValid %v for hide mode %q", tt.isValid, tt.mode)
			}
		})
	}
}

func TestProjectionCanonicalOrder(t *testing.T) {
	a := &DocumentFact{
		Path:  "notes/alpha.md",
		Tags:  []string{"#project/x", "#review"},
		Links: []string{"notes/beta.md", "notes/gamma.md"},
	}
	b := &DocumentFact{
		Path:  "notes/alpha.md",
		Tags:  []string{"#review", "#project/x"},
		Links: []string{"notes/gamma.md", "notes/beta.md"},
	}

	if a.Projection() != b.Projection() {
		t.Errorf("Projections differ for reordered tag/link sets:\n%q\n%q", a.Projection(), b.Projection())
	}
}

func TestProjectionIgnoresTimestamps(t *testing.T) {
	a := &DocumentFact{
		Path:  "notes/alpha.md",
		Tags:  []string{"#project"},
		MTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	b := &DocumentFact{
		Path:  "notes/alpha.md",
		Tags:  []string{"#project"},
		MTime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	if a.Projection() != b.Projection() {
		t.Error("Expected timestamps to be excluded from the projection")
	}
}

func TestProjectionDistinguishesPaths(t *testing.T) {
	a := &DocumentFact{Path: "notes/alpha.md", Tags: []string{"#project"}}
	b := &DocumentFact{Path: "notes/beta.md", Tags: []string{"#project"}}

	if a.Projection() == b.Projection() {
		t.Error("Expected distinct paths to produce distinct projections")
	}
}

func TestFactFromRawCopies(t *testing.T) {
	raw := &RawDocument{
		Path:  "notes/alpha.md",
		Title: "Alpha",
		Tags:  []string{"#project"},
		Links: []string{"notes/beta.md"},
		MTime: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		CTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}

	fact := FactFromRaw(raw)

	if fact.Path != raw.Path || fact.Title != raw.Title {
		t.Errorf("Expected path/title copied, got %q %q", fact.Path, fact.Title)
	}
	if !fact.MTime.Equal(raw.MTime) || !fact.CTime.Equal(raw.CTime) {
		t.Error("Expected timestamps copied")
	}

	// Mutating the raw slices must not leak into the fact.
	raw.Tags[0] = "#changed"
	raw.Links[0] = "notes/changed.md"
	if fact.Tags[0] != "#project" || fact.Links[0] != "notes/beta.md" {
		t.Error("Expected fact slices to be independent copies")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.View != ViewTags {
		t.Errorf("Expected default view %q, got %q", ViewTags, cfg.View)
	}
	if cfg.HideItems != HideNone {
		t.Errorf("Expected default hide mode %q, got %q", HideNone, cfg.HideItems)
	}
	if cfg.ScanDelay != 250*time.Millisecond {
		t.Errorf("Expected default scan delay 250ms, got %v", cfg.ScanDelay)
	}
	if cfg.SortType != "DISPNAME_ASC" || cfg.SortTypeTag != "NAME_ASC" {
		t.Errorf("Expected default sort keys, got %q %q", cfg.SortType, cfg.SortTypeTag)
	}
}
