package tree

import (
	"sort"
	"strings"
	"time"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
	"github.com/mattsolo1/grove-tagtree/pkg/sorting"
)

// Synthesizer groups flat view items into the published tag hierarchy.
// It holds no cross-pass state: every Synthesize call builds a fresh
// graph from its input.
type Synthesizer struct {
	cfg       models.Config
	meta      map[string]models.TagMeta
	itemOrder sorting.ItemOrder
	nodeOrder sorting.NodeOrder
}

func NewSynthesizer(cfg models.Config, meta map[string]models.TagMeta, itemOrder sorting.ItemOrder, nodeOrder sorting.NodeOrder) *Synthesizer {
	s := &Synthesizer{
		cfg:       cfg,
		meta:      make(map[string]models.TagMeta, len(meta)),
		itemOrder: itemOrder,
		nodeOrder: nodeOrder,
	}
	for name, m := range meta {
		s.meta[strings.ToLower(name)] = m
	}
	return s
}

// Synthesize builds the tree for one pass. The input is re-sorted
// internally, so the result does not depend on the caller's item
// order.
func (s *Synthesizer) Synthesize(items []models.ViewItem) *Node {
	ordered := append([]models.ViewItem(nil), items...)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return strings.Join(a.Tags, "\x1f") < strings.Join(b.Tags, "\x1f")
	})

	root := NewRoot()
	index := map[string]*Node{"": root}

	for i := range ordered {
		for _, tagToken := range ordered[i].Tags {
			s.place(root, index, ordered[i], tagToken)
		}
	}

	if s.cfg.MergeRedundantCombination {
		s.mergeRedundant(root, index)
	}

	s.markHidden(root)

	if !s.cfg.KeepEmptyBranches {
		prune(root)
	}

	s.finalize(root)
	return root
}

func (s *Synthesizer) sentinel() string {
	if s.cfg.View == models.ViewLinks {
		return models.TagUnlinked
	}
	return models.TagUntagged
}

// place walks or creates the ancestor chain for one tag path and
// attaches the item at its terminal node.
func (s *Synthesizer) place(root *Node, index map[string]*Node, item models.ViewItem, tagPath string) {
	if s.cfg.KeepUntaggedAtRoot && len(item.Tags) == 1 && strings.EqualFold(tagPath, s.sentinel()) {
		root.attach(item)
		return
	}

	segments := splitTagPath(tagPath)
	if len(segments) == 0 {
		root.attach(item)
		return
	}

	node := root
	key := ""
	for _, seg := range segments {
		lower := strings.ToLower(seg)
		if key == "" {
			key = lower
		} else {
			key += models.TagSeparator + lower
		}

		child, ok := index[key]
		if !ok {
			child = newNode(seg, node.FullPath)
			index[key] = child
			node.addChild(lower, child)
		}
		node = child
	}

	node.terminal = true
	node.attach(item)
}

type chainInfo struct {
	top      *Node
	key      string
	segments []string
	terminal *Node
}

// mergeRedundant collapses top-level branches whose segment sequences
// are permutations of one another. Only bare chains qualify: items at
// the end, a single child everywhere else, nothing to distinguish the
// branches but segment order. Merged item sets are unioned onto the
// branch with lexically sorted segments.
func (s *Synthesizer) mergeRedundant(root *Node, index map[string]*Node) {
	families := make(map[string][]chainInfo)
	var familyKeys []string

	for _, top := range root.Children {
		segments, terminal, ok := pureChain(top)
		if !ok || len(segments) < 2 {
			continue
		}

		lowers := make([]string, len(segments))
		for i, seg := range segments {
			lowers[i] = strings.ToLower(seg)
		}
		sort.Strings(lowers)
		famKey := strings.Join(lowers, models.TagSeparator)

		if _, seen := families[famKey]; !seen {
			familyKeys = append(familyKeys, famKey)
		}
		families[famKey] = append(families[famKey], chainInfo{
			top:      top,
			key:      strings.ToLower(segments[0]),
			segments: segments,
			terminal: terminal,
		})
	}

	sort.Strings(familyKeys)
	for _, famKey := range familyKeys {
		members := families[famKey]
		if len(members) < 2 {
			continue
		}

		sort.Slice(members, func(i, j int) bool {
			return strings.Join(members[i].segments, "\x1f") < strings.Join(members[j].segments, "\x1f")
		})

		// First member to use a segment decides its display casing.
		casing := make(map[string]string)
		for _, m := range members {
			for _, seg := range m.segments {
				lower := strings.ToLower(seg)
				if _, ok := casing[lower]; !ok {
					casing[lower] = seg
				}
			}
		}

		var union []models.ViewItem
		for _, m := range members {
			union = append(union, m.terminal.Items...)
		}

		for _, m := range members {
			root.removeChild(m.key)
			dropFromIndex(index, m.top)
		}

		canonical := strings.Split(famKey, models.TagSeparator)
		node := root
		key := ""
		for _, lower := range canonical {
			if key == "" {
				key = lower
			} else {
				key += models.TagSeparator + lower
			}

			child, ok := index[key]
			if !ok {
				child = newNode(casing[lower], node.FullPath)
				index[key] = child
				node.addChild(lower, child)
			}
			node = child
		}

		node.terminal = true
		for i := range union {
			node.attach(union[i])
		}
	}
}

// pureChain reports whether the branch under top is a bare segment
// sequence, returning its segments and terminal node.
func pureChain(top *Node) ([]string, *Node, bool) {
	var segments []string
	node := top
	for {
		segments = append(segments, node.Segment)
		if len(node.Children) == 0 {
			return segments, node, true
		}
		if len(node.Children) != 1 || len(node.Items) > 0 {
			return nil, nil, false
		}
		node = node.Children[0]
	}
}

func dropFromIndex(index map[string]*Node, n *Node) {
	delete(index, strings.ToLower(n.TagPath()))
	for _, c := range n.Children {
		dropFromIndex(index, c)
	}
}

func (s *Synthesizer) markHidden(root *Node) {
	switch s.cfg.HideItems {
	case models.HideDedicatedIntermediates:
		walkNodes(root, func(n *Node) {
			if n != root {
				n.Hidden = !n.terminal && len(n.Items) == 0
			}
		})
	case models.HideAllExceptBottom:
		walkNodes(root, func(n *Node) {
			if n != root {
				n.Hidden = len(n.Children) > 0
			}
		})
	}
}

func walkNodes(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walkNodes(c, fn)
	}
}

// prune drops branches whose subtrees hold no items. Reports whether
// n's subtree holds at least one.
func prune(n *Node) bool {
	var kept []*Node
	for _, c := range n.Children {
		if prune(c) {
			kept = append(kept, c)
		} else {
			delete(n.children, strings.ToLower(c.Segment))
		}
	}
	n.Children = kept
	return len(n.Items) > 0 || len(n.Children) > 0
}

// finalize computes subtree stats, applies sidecar display metadata,
// and imposes the configured total order on every level.
func (s *Synthesizer) finalize(root *Node) {
	var visit func(n *Node) (map[string]bool, time.Time)
	visit = func(n *Node) (map[string]bool, time.Time) {
		paths := make(map[string]bool, len(n.Items))
		var newest time.Time

		for i := range n.Items {
			paths[n.Items[i].Path] = true
			if n.Items[i].MTime.After(newest) {
				newest = n.Items[i].MTime
			}
		}
		for _, c := range n.Children {
			childPaths, childNewest := visit(c)
			for p := range childPaths {
				paths[p] = true
			}
			if childNewest.After(newest) {
				newest = childNewest
			}
		}

		n.ItemCount = len(paths)
		n.newest = newest

		if n != root {
			meta := s.meta[strings.ToLower(n.TagPath())]
			if meta.Alias != "" {
				n.Label = meta.Alias
			}
			n.Pinned = meta.Pinned
			n.MarkStyle = meta.MarkStyle
		}

		s.itemOrder.Sort(n.Items)
		sort.Slice(n.Children, func(i, j int) bool {
			return s.nodeOrder.Less(nodeInfo(n.Children[i]), nodeInfo(n.Children[j]))
		})

		return paths, newest
	}
	visit(root)
}

func nodeInfo(n *Node) sorting.NodeInfo {
	return sorting.NodeInfo{
		Name:   n.Label,
		Pinned: n.Pinned,
		Items:  n.ItemCount,
		Newest: n.newest,
	}
}

func splitTagPath(tagPath string) []string {
	parts := strings.Split(tagPath, models.TagSeparator)
	segments := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
