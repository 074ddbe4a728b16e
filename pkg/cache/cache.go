package cache

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Listing is one entry of a source inventory: enough to decide whether
// a cached fact is stale without reading the document body.
type Listing struct {
	Path  string
	MTime time.Time
}

// Source supplies raw documents on demand. Read must return an error
// satisfying errors.Is(err, fs.ErrNotExist) for a path that no longer
// exists.
type Source interface {
	List(ctx context.Context) ([]Listing, error)
	Read(ctx context.Context, path string) (*models.RawDocument, error)
}

// Cache holds the last-known fact per document path. Facts are
// replaced wholesale, never mutated, so consumers may hold on to a
// fact across passes. When a link-aware view is active the cache also
// maintains the reverse link index needed to resolve incoming links
// and to chase link edits into the documents they affect.
type Cache struct {
	cfg   models.Config
	store *Store
	log   *logrus.Logger

	facts    map[string]*models.DocumentFact
	outgoing map[string][]string
	incoming map[string]map[string]bool
}

// New builds a cache, warm-started from store when one is given.
func New(cfg models.Config, store *Store, log *logrus.Logger) *Cache {
	if log == nil {
		log = logrus.New()
	}

	c := &Cache{
		cfg:      cfg,
		store:    store,
		log:      log,
		facts:    make(map[string]*models.DocumentFact),
		outgoing: make(map[string][]string),
		incoming: make(map[string]map[string]bool),
	}
	c.load()
	return c
}

// load restores persisted raw documents. Stored links are the outgoing
// set, so the whole reverse index is rebuilt before any fact is
// composed.
func (c *Cache) load() {
	if c.store == nil {
		return
	}

	raws, err := c.store.LoadAll()
	if err != nil {
		c.log.Warnf("fact store unreadable, starting cold: %v", err)
		return
	}

	for _, raw := range raws {
		c.setOutgoing(raw.Path, raw.Links)
	}
	for _, raw := range raws {
		c.facts[raw.Path] = c.compose(raw)
	}
}

// ApplyDiffs re-reads every given path and merges the result into the
// cache. When link tracking is active, a document whose outgoing link
// set changed drags the documents on either side of that change into
// the same pass, transitively. Each path is read at most once; a path
// that comes around again only has its resolved link set refreshed
// from the updated index. Unreadable documents keep their previous
// fact. Reports whether any document's observable projection changed.
func (c *Cache) ApplyDiffs(ctx context.Context, src Source, paths []string) bool {
	changed := false
	visited := make(map[string]bool)
	queue := append([]string(nil), paths...)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if path == "" {
			continue
		}
		if visited[path] {
			changed = c.refreshLinks(path) || changed
			continue
		}
		visited[path] = true

		raw, err := src.Read(ctx, path)
		if errors.Is(err, fs.ErrNotExist) {
			gone, affected := c.remove(path)
			changed = changed || gone
			if c.tracksLinks() {
				queue = append(queue, affected...)
			}
			continue
		}
		if err != nil {
			c.log.Warnf("keeping stale fact for %s: %v", path, err)
			continue
		}

		diff := symmetricDiff(c.outgoing[path], raw.Links)
		c.setOutgoing(path, raw.Links)
		fact := c.compose(raw)

		old := c.facts[path]
		if old == nil || old.Projection() != fact.Projection() {
			changed = true
		}
		c.facts[path] = fact
		c.persist(raw)

		if c.tracksLinks() {
			queue = append(queue, diff...)
		}
	}

	return changed
}

// RescanAll walks the source inventory and applies every document that
// is new, stale by modification time, or gone. Used for cold start and
// forced rebuilds.
func (c *Cache) RescanAll(ctx context.Context, src Source) (bool, error) {
	listings, err := src.List(ctx)
	if err != nil {
		return false, err
	}

	seen := make(map[string]bool, len(listings))
	var stale []string
	for _, l := range listings {
		seen[l.Path] = true
		if fact, ok := c.facts[l.Path]; ok && fact.MTime.Equal(l.MTime) {
			continue
		}
		stale = append(stale, l.Path)
	}
	for path := range c.facts {
		if !seen[path] {
			stale = append(stale, path)
		}
	}

	return c.ApplyDiffs(ctx, src, stale), nil
}

// Snapshot returns the current facts ordered by path. The returned
// facts are shared, not copied; callers treat them as read-only.
func (c *Cache) Snapshot() []*models.DocumentFact {
	facts := make([]*models.DocumentFact, 0, len(c.facts))
	for _, f := range c.facts {
		facts = append(facts, f)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Path < facts[j].Path })
	return facts
}

// Fact returns the cached fact for path, or nil.
func (c *Cache) Fact(path string) *models.DocumentFact {
	return c.facts[path]
}

// Len reports the number of cached documents.
func (c *Cache) Len() int {
	return len(c.facts)
}

// Close releases the backing store, if any.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Cache) tracksLinks() bool {
	return c.cfg.View == models.ViewLinks ||
		c.cfg.LinkDirection == models.LinkIncoming ||
		c.cfg.LinkDirection == models.LinkBoth
}

// compose turns a raw document into its cached fact, resolving the
// link set for the configured direction. A document never lists
// itself.
func (c *Cache) compose(raw *models.RawDocument) *models.DocumentFact {
	fact := models.FactFromRaw(raw)
	fact.Links = c.resolvedLinks(raw.Path)
	return fact
}

func (c *Cache) resolvedLinks(path string) []string {
	var links []string
	switch c.cfg.LinkDirection {
	case models.LinkIncoming:
		links = c.incomingOf(path)
	case models.LinkBoth:
		links = append(c.incomingOf(path), c.outgoing[path]...)
	default:
		links = append([]string(nil), c.outgoing[path]...)
	}
	return dropSelf(dedupeSorted(links), path)
}

// refreshLinks re-resolves the link set of an already-processed path
// against the current index. Its other fields cannot have moved within
// this pass, so no re-read is needed.
func (c *Cache) refreshLinks(path string) bool {
	old := c.facts[path]
	if old == nil {
		return false
	}
	links := c.resolvedLinks(path)
	if equalStrings(old.Links, links) {
		return false
	}

	fact := *old
	fact.Links = links
	c.facts[path] = &fact
	return true
}

func (c *Cache) incomingOf(path string) []string {
	sources := c.incoming[path]
	links := make([]string, 0, len(sources))
	for s := range sources {
		links = append(links, s)
	}
	return links
}

// setOutgoing replaces path's outgoing edge set and keeps the reverse
// index in step.
func (c *Cache) setOutgoing(path string, links []string) {
	for _, old := range c.outgoing[path] {
		if m := c.incoming[old]; m != nil {
			delete(m, path)
			if len(m) == 0 {
				delete(c.incoming, old)
			}
		}
	}

	next := dedupeSorted(links)
	if len(next) == 0 {
		delete(c.outgoing, path)
	} else {
		c.outgoing[path] = next
	}
	for _, target := range next {
		m := c.incoming[target]
		if m == nil {
			m = make(map[string]bool)
			c.incoming[target] = m
		}
		m[path] = true
	}
}

// remove forgets a path. Reports whether a fact existed and which
// other documents sat on one end of a now-dangling edge.
func (c *Cache) remove(path string) (bool, []string) {
	affected := append([]string(nil), c.outgoing[path]...)
	affected = append(affected, c.incomingOf(path)...)

	c.setOutgoing(path, nil)
	_, existed := c.facts[path]
	delete(c.facts, path)

	if c.store != nil {
		if err := c.store.Delete(path); err != nil {
			c.log.Warnf("drop stored fact for %s: %v", path, err)
		}
	}
	return existed, affected
}

func (c *Cache) persist(raw *models.RawDocument) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(raw); err != nil {
		c.log.Warnf("persist fact for %s: %v", raw.Path, err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i == 0 || out[n-1] != s {
			out[n] = s
			n++
		}
	}
	return out[:n]
}

func dropSelf(links []string, path string) []string {
	n := 0
	for _, l := range links {
		if l != path {
			links[n] = l
			n++
		}
	}
	return links[:n]
}

func symmetricDiff(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}

	var diff []string
	for _, s := range a {
		if !inB[s] {
			diff = append(diff, s)
		}
	}
	for _, s := range b {
		if !inA[s] {
			diff = append(diff, s)
		}
	}
	return dedupeSorted(diff)
}
