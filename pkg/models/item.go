package models

import "time"

// ViewItem is a (document, grouping) pair produced by the expander.
// In narrowing-down mode a document yields one ViewItem per grouping
// key with the remaining tags carried in ExtraTags; otherwise a single
// ViewItem carries the full effective tag set.
type ViewItem struct {
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Filename    string    `json:"filename"`
	Tags        []string  `json:"tags"`
	ExtraTags   []string  `json:"extra_tags,omitempty"`
	Links       []string  `json:"links,omitempty"`
	MTime       time.Time `json:"modified_at"`
	CTime       time.Time `json:"created_at"`
}
