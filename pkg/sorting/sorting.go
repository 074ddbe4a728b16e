package sorting

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Sort key strings recognized in <KEY>_<DIRECTION> configuration.
const (
	DefaultItemOrder = "DISPNAME_ASC"
	DefaultNodeOrder = "NAME_ASC"
)

type itemKey int

const (
	itemByDisplayName itemKey = iota
	itemByFilename
	itemByFullPath
	itemByMTime
	itemByCTime
)

type nodeKey int

const (
	nodeByName nodeKey = iota
	nodeByItemCount
	nodeByNewest
)

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
}

// ItemOrder is a total order over view items. Ties always break by
// path ascending so output never varies across runs.
type ItemOrder struct {
	key  itemKey
	desc bool
	coll *collate.Collator
}

// ParseItemOrder parses a sort configuration string. Unknown keys
// degrade to display-name ascending with a logged warning; they never
// fail the pass.
func ParseItemOrder(s string, log *logrus.Logger) ItemOrder {
	o := ItemOrder{coll: newCollator()}

	key, desc, ok := splitOrder(s)
	if ok {
		o.desc = desc
		switch key {
		case "DISPNAME":
			o.key = itemByDisplayName
		case "NAME":
			o.key = itemByFilename
		case "FULLPATH":
			o.key = itemByFullPath
		case "MTIME":
			o.key = itemByMTime
		case "CTIME":
			o.key = itemByCTime
		default:
			ok = false
		}
	}

	if !ok {
		o.key = itemByDisplayName
		o.desc = false
		if s != "" && log != nil {
			log.Warnf("unknown item sort %q, using %s", s, DefaultItemOrder)
		}
	}

	return o
}

func (o ItemOrder) Less(a, b *models.ViewItem) bool {
	var cmp int
	switch o.key {
	case itemByDisplayName:
		cmp = o.coll.CompareString(a.DisplayName, b.DisplayName)
	case itemByFilename:
		cmp = o.coll.CompareString(a.Filename, b.Filename)
	case itemByFullPath:
		cmp = o.coll.CompareString(a.Path, b.Path)
	case itemByMTime:
		cmp = compareTime(a.MTime, b.MTime)
	case itemByCTime:
		cmp = compareTime(a.CTime, b.CTime)
	}
	if o.desc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.Path < b.Path
}

// Sort orders items in place.
func (o ItemOrder) Sort(items []models.ViewItem) {
	sort.Slice(items, func(i, j int) bool {
		return o.Less(&items[i], &items[j])
	})
}

// NodeInfo carries the per-node values a node order compares. Name is
// the node's display label; Items and Newest summarize its subtree.
type NodeInfo struct {
	Name   string
	Pinned bool
	Items  int
	Newest time.Time
}

// NodeOrder is a total order over sibling tree nodes. Pinned nodes
// sort before unpinned ones regardless of key and direction; ties
// break by name ascending.
type NodeOrder struct {
	key  nodeKey
	desc bool
	coll *collate.Collator
}

// ParseNodeOrder parses a tag sort configuration string with the same
// degradation rules as ParseItemOrder.
func ParseNodeOrder(s string, log *logrus.Logger) NodeOrder {
	o := NodeOrder{coll: newCollator()}

	key, desc, ok := splitOrder(s)
	if ok {
		o.desc = desc
		switch key {
		case "NAME":
			o.key = nodeByName
		case "ITEMS":
			o.key = nodeByItemCount
		case "MTIME":
			o.key = nodeByNewest
		default:
			ok = false
		}
	}

	if !ok {
		o.key = nodeByName
		o.desc = false
		if s != "" && log != nil {
			log.Warnf("unknown tag sort %q, using %s", s, DefaultNodeOrder)
		}
	}

	return o
}

func (o NodeOrder) Less(a, b NodeInfo) bool {
	if a.Pinned != b.Pinned {
		return a.Pinned
	}

	var cmp int
	switch o.key {
	case nodeByName:
		cmp = o.coll.CompareString(a.Name, b.Name)
	case nodeByItemCount:
		cmp = compareInt(a.Items, b.Items)
	case nodeByNewest:
		cmp = compareTime(a.Newest, b.Newest)
	}
	if o.desc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.Name < b.Name
}

func splitOrder(s string) (key string, desc bool, ok bool) {
	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return "", false, false
	}
	key = s[:idx]
	switch s[idx+1:] {
	case "ASC":
		return key, false, true
	case "DESC":
		return key, true, true
	}
	return "", false, false
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
