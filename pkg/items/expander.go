package items

import (
	"path"
	"strings"

	"github.com/mattsolo1/grove-tagtree/pkg/filter"
	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Expander turns a document and its effective tag set into the flat
// view items the synthesizer groups. In narrowing-down mode a document
// is emitted once per grouping key so it can surface under each of its
// top-level tags.
type Expander struct {
	cfg     models.Config
	query   *filter.Query
	archive map[string]bool
}

func NewExpander(cfg models.Config) *Expander {
	e := &Expander{
		cfg:     cfg,
		query:   filter.Parse(cfg.Filter),
		archive: make(map[string]bool, len(cfg.ArchiveTags)),
	}
	for _, t := range cfg.ArchiveTags {
		e.archive[strings.ToLower(t)] = true
	}
	return e
}

// Expand produces the view items for one document. links is the
// document's direction-resolved link set; a nil result means the
// document is excluded by the active search filter.
func (e *Expander) Expand(fact *models.DocumentFact, effective []string, links []string) []models.ViewItem {
	display := fact.Title
	if display == "" {
		display = stem(fact.Path)
	}

	if !e.query.Match(effective, display) {
		return nil
	}

	base := models.ViewItem{
		Path:        fact.Path,
		DisplayName: display,
		Filename:    path.Base(fact.Path),
		Links:       links,
		MTime:       fact.MTime,
		CTime:       fact.CTime,
	}
	if len(base.Links) == 0 {
		base.Links = []string{models.TagUnlinked}
	}

	if !e.narrowing() {
		item := base
		item.Tags = append([]string(nil), effective...)
		return []models.ViewItem{item}
	}

	keys := e.groupingKeys(effective)
	out := make([]models.ViewItem, 0, len(keys))
	for _, key := range keys {
		item := base
		item.Tags = []string{key}
		item.ExtraTags = without(effective, key)
		out = append(out, item)
	}
	return out
}

// narrowing reports whether per-tag expansion is active. It only
// applies to tag-view trees.
func (e *Expander) narrowing() bool {
	return e.cfg.View != models.ViewLinks && !e.cfg.DisableNarrowingDown
}

// groupingKeys picks the tags a document is grouped under. Archive
// tags take priority: when any are present, only they remain keys.
func (e *Expander) groupingKeys(effective []string) []string {
	if len(e.archive) == 0 {
		return effective
	}

	var matched []string
	for _, tag := range effective {
		if e.archive[strings.ToLower(tag)] {
			matched = append(matched, tag)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return effective
}

func without(tags []string, key string) []string {
	var out []string
	for _, t := range tags {
		if t != key {
			out = append(out, t)
		}
	}
	return out
}

func stem(p string) string {
	name := path.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}
