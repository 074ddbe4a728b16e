package engine

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-tagtree/pkg/cache"
	"github.com/mattsolo1/grove-tagtree/pkg/items"
	"github.com/mattsolo1/grove-tagtree/pkg/models"
	"github.com/mattsolo1/grove-tagtree/pkg/sorting"
	"github.com/mattsolo1/grove-tagtree/pkg/tags"
	"github.com/mattsolo1/grove-tagtree/pkg/tree"
)

// MetaSource hands the engine the current tag display metadata at the
// start of every pass.
type MetaSource interface {
	LoadTagInfo() map[string]models.TagMeta
}

// Engine runs the synthesis pipeline: it owns the fact cache, rebuilds
// the tree from a full fact snapshot on every pass, and publishes the
// result only when the tree's structure actually changed. Change
// notifications go through an internal debouncing scheduler; at most
// one pass is ever in flight.
type Engine struct {
	cfg    models.Config
	log    *logrus.Logger
	cache  *cache.Cache
	source cache.Source
	meta   MetaSource
	now    func() time.Time

	itemOrder sorting.ItemOrder
	nodeOrder sorting.NodeOrder
	scheduler *Scheduler

	passMu sync.Mutex

	mu        sync.RWMutex
	published *tree.Node
	items     []models.ViewItem
	signature string
	metaDirty bool
	subs      []func(*tree.Node)
}

// New wires an engine over the given fact cache and document source.
// meta may be nil when no tag metadata sidecar exists.
func New(cfg models.Config, c *cache.Cache, src cache.Source, meta MetaSource, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}

	delay := cfg.ScanDelay
	if delay <= 0 {
		delay = models.DefaultConfig().ScanDelay
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		cache:     c,
		source:    src,
		meta:      meta,
		now:       time.Now,
		itemOrder: sorting.ParseItemOrder(cfg.SortType, log),
		nodeOrder: sorting.ParseNodeOrder(cfg.SortTypeTag, log),
	}
	e.scheduler = newScheduler(delay, func(paths []string) {
		if err := e.execute(context.Background(), paths); err != nil {
			log.Warnf("recompute pass: %v", err)
		}
	})
	return e
}

// Rebuild clears anything pending and synchronously recomputes the
// tree from the full corpus.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.scheduler.cancelPending()
	return e.execute(ctx, nil)
}

// Notify reports one changed document path. The pass itself runs
// after the debounce window closes.
func (e *Engine) Notify(path string) {
	e.scheduler.Notify(path)
}

// NotifyMeta reports that tag display metadata changed, which can
// reshape the tree without any document changing.
func (e *Engine) NotifyMeta() {
	e.mu.Lock()
	e.metaDirty = true
	e.mu.Unlock()
	e.scheduler.Kick()
}

// Flush runs any pending batch immediately instead of waiting out the
// debounce window.
func (e *Engine) Flush() {
	e.scheduler.FlushNow()
}

// Subscribe registers a callback invoked with each newly published
// tree. The callback runs on the pass goroutine; treat the tree as
// read-only.
func (e *Engine) Subscribe(fn func(*tree.Node)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Tree returns the last published tree, or nil before the first pass.
func (e *Engine) Tree() *tree.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published
}

// Items returns the last published flat item list, one entry per
// document, in the configured item order.
func (e *Engine) Items() []models.ViewItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.ViewItem(nil), e.items...)
}

// Close stops the scheduler and releases the cache.
func (e *Engine) Close() error {
	e.scheduler.Close()
	return e.cache.Close()
}

// execute is one recompute pass: merge the diff batch (or rescan when
// paths is nil), then rebuild and maybe publish. Passes are fully
// serialized.
func (e *Engine) execute(ctx context.Context, paths []string) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	changed := false
	if paths == nil {
		ch, err := e.cache.RescanAll(ctx, e.source)
		if err != nil {
			return fmt.Errorf("rescan corpus: %w", err)
		}
		changed = ch
	} else if len(paths) > 0 {
		changed = e.cache.ApplyDiffs(ctx, e.source, paths)
	}

	e.mu.Lock()
	force := e.metaDirty || e.published == nil
	e.metaDirty = false
	e.mu.Unlock()

	if !changed && !force {
		return nil
	}

	root, flat := e.build()
	sig := root.Signature()

	e.mu.Lock()
	if e.published != nil && sig == e.signature {
		e.mu.Unlock()
		return nil
	}
	e.published = root
	e.items = flat
	e.signature = sig
	subs := append(([]func(*tree.Node))(nil), e.subs...)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(root)
	}
	return nil
}

// build runs resolve, expand, and synthesize over the current fact
// snapshot.
func (e *Engine) build() (*tree.Node, []models.ViewItem) {
	meta := e.loadMeta()
	resolver := tags.NewResolver(e.cfg, meta, e.now())
	expander := items.NewExpander(e.cfg)

	flatCfg := e.cfg
	flatCfg.DisableNarrowingDown = true
	flatExpander := items.NewExpander(flatCfg)

	var grouped, flat []models.ViewItem
	for _, fact := range e.cache.Snapshot() {
		effective, skip := resolver.Resolve(fact, e.groupSource(fact))
		if skip {
			continue
		}
		grouped = append(grouped, expander.Expand(fact, effective, fact.Links)...)
		flat = append(flat, flatExpander.Expand(fact, effective, fact.Links)...)
	}

	root := tree.NewSynthesizer(e.cfg, meta, e.itemOrder, e.nodeOrder).Synthesize(grouped)
	e.itemOrder.Sort(flat)
	return root, flat
}

// groupSource picks the raw grouping keys for one document: its tag
// set in the tag view, the stems of its related documents in the link
// view.
func (e *Engine) groupSource(fact *models.DocumentFact) []string {
	if e.cfg.View != models.ViewLinks {
		return fact.Tags
	}
	keys := make([]string, 0, len(fact.Links))
	for _, l := range fact.Links {
		base := path.Base(l)
		keys = append(keys, strings.TrimSuffix(base, path.Ext(base)))
	}
	return keys
}

func (e *Engine) loadMeta() map[string]models.TagMeta {
	if e.meta == nil {
		return map[string]models.TagMeta{}
	}
	return e.meta.LoadTagInfo()
}
