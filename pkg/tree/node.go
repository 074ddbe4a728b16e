package tree

import (
	"strings"
	"time"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Node is one segment of the synthesized tag hierarchy. A published
// tree is immutable: the next pass builds a new graph instead of
// mutating this one.
type Node struct {
	Segment  string   `json:"segment"`
	Label    string   `json:"label"`
	FullPath []string `json:"full_path"`

	Children []*Node           `json:"children,omitempty"`
	Items    []models.ViewItem `json:"items,omitempty"`

	// Hidden marks nodes the rendering layer should not show as
	// groups; their children stay reachable.
	Hidden bool `json:"hidden,omitempty"`

	// Display metadata from the tag sidecar.
	Pinned    bool   `json:"pinned,omitempty"`
	MarkStyle string `json:"mark_style,omitempty"`

	// ItemCount is the number of distinct documents in this subtree.
	ItemCount int `json:"item_count"`

	children map[string]*Node
	attached map[string]bool
	terminal bool
	newest   time.Time
}

func newNode(segment string, parentPath []string) *Node {
	fullPath := make([]string, len(parentPath), len(parentPath)+1)
	copy(fullPath, parentPath)
	if segment != "" {
		fullPath = append(fullPath, segment)
	}
	return &Node{
		Segment:  segment,
		Label:    segment,
		FullPath: fullPath,
		children: make(map[string]*Node),
		attached: make(map[string]bool),
	}
}

// NewRoot returns the synthetic root every tree hangs from.
func NewRoot() *Node {
	return newNode("", nil)
}

// Child looks up a direct child by segment, case-insensitively.
func (n *Node) Child(segment string) *Node {
	return n.children[strings.ToLower(segment)]
}

func (n *Node) addChild(key string, child *Node) {
	n.children[key] = child
	n.Children = append(n.Children, child)
}

func (n *Node) removeChild(key string) {
	child, ok := n.children[key]
	if !ok {
		return
	}
	delete(n.children, key)
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			break
		}
	}
}

// attach adds an item unless this (path, branch) pair is already
// present. Reports whether the item was added.
func (n *Node) attach(item models.ViewItem) bool {
	if n.attached[item.Path] {
		return false
	}
	n.attached[item.Path] = true
	n.Items = append(n.Items, item)
	return true
}

// TagPath returns the node's full tag path (segments joined).
func (n *Node) TagPath() string {
	return strings.Join(n.FullPath, models.TagSeparator)
}

// Signature serializes the externally visible structure of the
// subtree: labels, visibility, item placement and order, and child
// order. Two passes whose trees share a signature need no consumer
// notification.
func (n *Node) Signature() string {
	var sb strings.Builder
	n.signature(&sb)
	return sb.String()
}

func (n *Node) signature(sb *strings.Builder) {
	sb.WriteString(n.Label)
	if n.Hidden {
		sb.WriteByte('!')
	}
	if n.Pinned {
		sb.WriteByte('*')
	}
	if n.MarkStyle != "" {
		sb.WriteByte('~')
		sb.WriteString(n.MarkStyle)
	}
	sb.WriteByte('[')
	for i := range n.Items {
		item := &n.Items[i]
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(item.Path)
		sb.WriteByte(';')
		sb.WriteString(item.DisplayName)
		sb.WriteByte(';')
		sb.WriteString(strings.Join(item.ExtraTags, "\x1f"))
	}
	sb.WriteByte(']')
	for _, child := range n.Children {
		sb.WriteByte('(')
		child.signature(sb)
		sb.WriteByte(')')
	}
}
