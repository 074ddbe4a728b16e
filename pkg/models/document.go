package models

import (
	"sort"
	"strings"
	"time"
)

// RawDocument is what the document store hands the engine for one path:
// raw marker-prefixed tags, resolved link targets, and file metadata.
type RawDocument struct {
	Path  string    `json:"path"`
	Title string    `json:"title"`
	Tags  []string  `json:"tags"`
	Links []string  `json:"links"`
	MTime time.Time `json:"modified_at"`
	CTime time.Time `json:"created_at"`
}

// DocumentFact is the cached last-known state for one document path.
// At most one fact exists per path; replacing a fact is atomic within
// a recompute pass.
type DocumentFact struct {
	Path  string    `json:"path"`
	Title string    `json:"title"`
	Tags  []string  `json:"tags"`
	Links []string  `json:"links"`
	MTime time.Time `json:"modified_at"`
	CTime time.Time `json:"created_at"`
}

// FactFromRaw copies a raw document into its cached fact form.
func FactFromRaw(raw *RawDocument) *DocumentFact {
	return &DocumentFact{
		Path:  raw.Path,
		Title: raw.Title,
		Tags:  append([]string(nil), raw.Tags...),
		Links: append([]string(nil), raw.Links...),
		MTime: raw.MTime,
		CTime: raw.CTime,
	}
}

// Projection serializes the externally observable part of a fact
// (path, tags, links) in canonical order. Two facts with equal
// projections produce identical trees, so the scheduler compares
// projections to decide whether downstream stages must re-run.
func (f *DocumentFact) Projection() string {
	tags := append([]string(nil), f.Tags...)
	sort.Strings(tags)
	links := append([]string(nil), f.Links...)
	sort.Strings(links)

	var sb strings.Builder
	sb.WriteString(f.Path)
	sb.WriteByte(0)
	sb.WriteString(strings.Join(tags, "\x1f"))
	sb.WriteByte(0)
	sb.WriteString(strings.Join(links, "\x1f"))
	return sb.String()
}
