package models

import "time"

// Tag syntax constants shared by extraction, resolution, and synthesis.
const (
	TagMarker    = "#"
	TagSeparator = "/"

	// TagUntagged groups documents whose effective tag set is empty.
	TagUntagged = "untagged"
	// TagUnlinked is the link-view equivalent of TagUntagged.
	TagUnlinked = "unlinked"

	// Reserved roots for synthetic tags. The underscore keeps them
	// apart from user tags in the tree.
	VirtualFreshRoot    = "_fresh"
	VirtualFiletypeRoot = "_filetype"
	VirtualFolderRoot   = "_folders"
)

// ViewMode selects what the tree groups documents by.
type ViewMode string

const (
	ViewTags  ViewMode = "tags"
	ViewLinks ViewMode = "links"
)

// LinkDirection selects which link references a link-view tree follows.
type LinkDirection string

const (
	LinkOutgoing LinkDirection = "outgoing"
	LinkIncoming LinkDirection = "incoming"
	LinkBoth     LinkDirection = "both"
)

// HideMode controls which tree nodes are marked hidden for rendering.
type HideMode string

const (
	HideNone HideMode = "NONE"

	// HideDedicatedIntermediates hides auto-created nested-tag
	// intermediates that have no directly attached items. The
	// misspelled value is the recognized configuration literal.
	HideDedicatedIntermediates HideMode = "DEDICATED_INTERMIDIATES"

	HideAllExceptBottom HideMode = "ALL_EXCEPT_BOTTOM"
)

// ValidHideMode reports whether m is a recognized hide mode.
func ValidHideMode(m HideMode) bool {
	switch m {
	case HideNone, HideDedicatedIntermediates, HideAllExceptBottom:
		return true
	}
	return false
}

// TagMeta is the per-tag metadata record from the vault sidecar.
// Redirect is a one-hop substitution applied by the resolver, Alias
// and MarkStyle are display metadata, Pinned orders a node before its
// unpinned siblings.
type TagMeta struct {
	Pinned    bool   `yaml:"pinned,omitempty" json:"pinned,omitempty"`
	Alias     string `yaml:"alias,omitempty" json:"alias,omitempty"`
	MarkStyle string `yaml:"mark_style,omitempty" json:"mark_style,omitempty"`
	Redirect  string `yaml:"redirect,omitempty" json:"redirect,omitempty"`
}

// Config is the full knob surface of the synthesis pipeline.
type Config struct {
	View          ViewMode      `json:"view"`
	LinkDirection LinkDirection `json:"link_direction"`

	// Extraction
	CustomTagKey  string   `json:"custom_tag_key,omitempty"`
	TargetFolders []string `json:"target_folders,omitempty"`
	IgnoreFolders []string `json:"ignore_folders,omitempty"`

	// Resolution
	IgnoreTags         []string `json:"ignore_tags,omitempty"`
	IgnoreDocTags      []string `json:"ignore_doc_tags,omitempty"`
	DisableNestedTags  bool     `json:"disable_nested_tags"`
	UseVirtualTag      bool     `json:"use_virtual_tag"`
	DisplayFolderAsTag bool     `json:"display_folder_as_tag"`

	// Expansion
	ArchiveTags          []string `json:"archive_tags,omitempty"`
	DisableNarrowingDown bool     `json:"disable_narrowing_down"`
	Filter               string   `json:"filter,omitempty"`

	// Synthesis
	MergeRedundantCombination bool     `json:"merge_redundant_combination"`
	HideItems                 HideMode `json:"hide_items"`
	KeepUntaggedAtRoot        bool     `json:"keep_untagged_at_root"`
	KeepEmptyBranches         bool     `json:"keep_empty_branches"`

	// Ordering
	SortType    string `json:"sort_type"`
	SortTypeTag string `json:"sort_type_tag"`

	// Scheduling
	ScanDelay time.Duration `json:"scan_delay"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		View:          ViewTags,
		LinkDirection: LinkOutgoing,
		HideItems:     HideNone,
		SortType:      "DISPNAME_ASC",
		SortTypeTag:   "NAME_ASC",
		ScanDelay:     250 * time.Millisecond,
	}
}
