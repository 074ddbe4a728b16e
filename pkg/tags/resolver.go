package tags

import (
	"path"
	"strings"
	"time"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Freshness buckets for the modification-recency virtual tag.
const (
	FreshToday     = models.VirtualFreshRoot + "/today"
	FreshThisWeek  = models.VirtualFreshRoot + "/this-week"
	FreshThisMonth = models.VirtualFreshRoot + "/this-month"
	FreshOlder     = models.VirtualFreshRoot + "/older"
)

// Resolver maps a document's raw grouping keys to its effective tag
// set for one recompute pass. Resolution is pure: the same fact, keys,
// config, metadata, and reference time always produce the same set.
type Resolver struct {
	cfg  models.Config
	meta map[string]models.TagMeta

	redirects map[string]string
	ignore    map[string]bool
	ignoreDoc map[string]bool

	// Reference time for freshness buckets, frozen per pass so a
	// document does not change bucket between two items of one batch.
	now time.Time
}

// NewResolver builds a resolver for one pass. The metadata map is
// keyed by tag name as written in the sidecar; lookups are
// case-insensitive.
func NewResolver(cfg models.Config, meta map[string]models.TagMeta, now time.Time) *Resolver {
	r := &Resolver{
		cfg:       cfg,
		meta:      make(map[string]models.TagMeta, len(meta)),
		redirects: make(map[string]string),
		ignore:    make(map[string]bool, len(cfg.IgnoreTags)),
		ignoreDoc: make(map[string]bool, len(cfg.IgnoreDocTags)),
		now:       now,
	}

	for name, m := range meta {
		key := strings.ToLower(name)
		r.meta[key] = m
		if m.Redirect != "" {
			r.redirects[key] = m.Redirect
		}
	}
	for _, t := range cfg.IgnoreTags {
		r.ignore[strings.ToLower(t)] = true
	}
	for _, t := range cfg.IgnoreDocTags {
		r.ignoreDoc[strings.ToLower(t)] = true
	}

	return r
}

// Meta returns the sidecar metadata for a resolved tag name.
func (r *Resolver) Meta(tag string) models.TagMeta {
	return r.meta[strings.ToLower(tag)]
}

// Sentinel returns the fallback tag for documents with no grouping keys.
func (r *Resolver) Sentinel() string {
	if r.cfg.View == models.ViewLinks {
		return models.TagUnlinked
	}
	return models.TagUntagged
}

// Resolve computes the effective tag set for one document. rawKeys are
// the document's marker-prefixed tags in tag view, or its link partner
// names in link view. The second return is true when the document is
// excluded from the corpus entirely because one of its tags is on the
// ignore-whole-document list.
func (r *Resolver) Resolve(fact *models.DocumentFact, rawKeys []string) ([]string, bool) {
	tags := make([]string, 0, len(rawKeys)+4)

	for _, raw := range rawKeys {
		tag := strings.TrimSpace(strings.TrimPrefix(raw, models.TagMarker))
		if tag == "" {
			continue
		}
		tag = r.redirect(tag)
		if r.cfg.DisableNestedTags {
			for _, seg := range strings.Split(tag, models.TagSeparator) {
				if seg = strings.TrimSpace(seg); seg != "" {
					tags = append(tags, seg)
				}
			}
		} else {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, r.Sentinel())
	}

	tags = append(tags, r.virtualTags(fact)...)

	// A second redirect round lets injected tags be redirected too.
	// Redirects are single-hop, never chased transitively.
	effective := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = r.redirect(tag)
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		effective = append(effective, tag)
	}

	if len(r.ignore) > 0 {
		kept := effective[:0]
		for _, tag := range effective {
			if !r.ignore[strings.ToLower(tag)] {
				kept = append(kept, tag)
			}
		}
		effective = kept
	}

	for _, tag := range effective {
		if r.ignoreDoc[strings.ToLower(tag)] {
			return nil, true
		}
	}

	// Documents are never silently dropped: an ignore list that
	// swallows every tag still leaves the sentinel grouping.
	if len(effective) == 0 {
		effective = append(effective, r.Sentinel())
	}

	return effective, false
}

func (r *Resolver) redirect(tag string) string {
	if target, ok := r.redirects[strings.ToLower(tag)]; ok && target != "" {
		return target
	}
	return tag
}

func (r *Resolver) virtualTags(fact *models.DocumentFact) []string {
	var out []string

	if r.cfg.UseVirtualTag {
		if ft := filetypeTag(fact.Path); ft != "" {
			out = append(out, ft)
		}
		out = append(out, r.freshnessTag(fact.MTime))
	}

	if r.cfg.DisplayFolderAsTag {
		if dir := path.Dir(fact.Path); dir != "." && dir != "/" {
			out = append(out, models.VirtualFolderRoot+models.TagSeparator+dir)
		}
	}

	return out
}

// filetypeTag classifies non-markdown documents by extension. Markdown
// is the vault's native text form and gets no type tag.
func filetypeTag(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == ".md" {
		return ""
	}
	if ext == "" {
		return models.VirtualFiletypeRoot + models.TagSeparator + "none"
	}
	return models.VirtualFiletypeRoot + models.TagSeparator + strings.TrimPrefix(ext, ".")
}

func (r *Resolver) freshnessTag(mtime time.Time) string {
	age := r.now.Sub(mtime)
	switch {
	case age < 24*time.Hour:
		return FreshToday
	case age < 7*24*time.Hour:
		return FreshThisWeek
	case age < 30*24*time.Hour:
		return FreshThisMonth
	default:
		return FreshOlder
	}
}
