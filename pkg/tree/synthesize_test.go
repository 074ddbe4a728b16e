package tree

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
	"github.com/mattsolo1/grove-tagtree/pkg/sorting"
)

func synth(cfg models.Config, meta map[string]models.TagMeta) *Synthesizer {
	return NewSynthesizer(cfg, meta,
		sorting.ParseItemOrder(sorting.DefaultItemOrder, nil),
		sorting.ParseNodeOrder(sorting.DefaultNodeOrder, nil))
}

func vi(path string, tags ...string) models.ViewItem {
	return models.ViewItem{
		Path:        path,
		DisplayName: path,
		Filename:    path,
		Tags:        tags,
	}
}

func childNames(n *Node) []string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Segment
	}
	return names
}

func itemPaths(n *Node) []string {
	paths := make([]string, len(n.Items))
	for i, it := range n.Items {
		paths[i] = it.Path
	}
	return paths
}

func TestSynthesizeAncestorChain(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("a.md", "project/alpha"),
	})

	project := root.Child("project")
	require.NotNil(t, project)
	assert.Empty(t, project.Items, "intermediate nodes are pass-through")
	assert.Equal(t, []string{"project"}, project.FullPath)

	alpha := project.Child("alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, []string{"project", "alpha"}, alpha.FullPath)
	assert.Equal(t, []string{"a.md"}, itemPaths(alpha))
}

func TestSynthesizeCaseInsensitiveSegments(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("a.md", "Project"),
		vi("b.md", "project"),
	})

	require.Len(t, root.Children, 1)
	node := root.Children[0]
	assert.Equal(t, "Project", node.Segment, "first-seen casing wins")
	assert.ElementsMatch(t, []string{"a.md", "b.md"}, itemPaths(node))
}

func TestSynthesizeMultiTagDocumentAppearsUnderEachBranch(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("a.md", "work", "home"),
	})

	work := root.Child("work")
	home := root.Child("home")
	require.NotNil(t, work)
	require.NotNil(t, home)
	assert.Equal(t, []string{"a.md"}, itemPaths(work))
	assert.Equal(t, []string{"a.md"}, itemPaths(home))
}

func TestSynthesizeNeverAttachesSamePathTwice(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("a.md", "work"),
		vi("a.md", "work"),
	})

	work := root.Child("work")
	require.NotNil(t, work)
	assert.Equal(t, []string{"a.md"}, itemPaths(work))
}

func TestSynthesizeUntaggedBranch(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("a.md", models.TagUntagged),
	})

	node := root.Child(models.TagUntagged)
	require.NotNil(t, node)
	assert.Equal(t, []string{"a.md"}, itemPaths(node))
	assert.Empty(t, root.Items)
}

func TestSynthesizeKeepUntaggedAtRoot(t *testing.T) {
	cfg := models.Config{KeepUntaggedAtRoot: true}
	root := synth(cfg, nil).Synthesize([]models.ViewItem{
		vi("a.md", models.TagUntagged),
		vi("b.md", "project"),
	})

	assert.Equal(t, []string{"a.md"}, itemPaths(root))
	assert.Nil(t, root.Child(models.TagUntagged))
	require.NotNil(t, root.Child("project"))
}

func TestSynthesizeMergeRedundantCombination(t *testing.T) {
	items := []models.ViewItem{
		vi("one.md", "x/y"),
		vi("two.md", "y/x"),
	}

	t.Run("enabled merges permutations into one branch", func(t *testing.T) {
		cfg := models.Config{MergeRedundantCombination: true}
		root := synth(cfg, nil).Synthesize(items)

		require.Len(t, root.Children, 1)
		x := root.Child("x")
		require.NotNil(t, x, "canonical branch is lexical order of segments")

		y := x.Child("y")
		require.NotNil(t, y)
		assert.ElementsMatch(t, []string{"one.md", "two.md"}, itemPaths(y))
	})

	t.Run("disabled keeps distinct branches", func(t *testing.T) {
		root := synth(models.Config{}, nil).Synthesize(items)

		require.Len(t, root.Children, 2)
		require.NotNil(t, root.Child("x"))
		require.NotNil(t, root.Child("y"))
	})
}

func TestSynthesizeMergeThreeSegmentFamily(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true}
	root := synth(cfg, nil).Synthesize([]models.ViewItem{
		vi("one.md", "c/a/b"),
		vi("two.md", "b/c/a"),
		vi("three.md", "a/c/b"),
	})

	require.Len(t, root.Children, 1)
	a := root.Child("a")
	require.NotNil(t, a)
	b := a.Child("b")
	require.NotNil(t, b)
	c := b.Child("c")
	require.NotNil(t, c)
	assert.ElementsMatch(t, []string{"one.md", "two.md", "three.md"}, itemPaths(c))
}

func TestSynthesizeMergeSkipsBranchingChains(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true}
	root := synth(cfg, nil).Synthesize([]models.ViewItem{
		vi("one.md", "x/y"),
		vi("two.md", "y/x"),
		vi("extra.md", "x/z"),
	})

	// x has two children, so x/y is not a bare chain and y/x stays.
	require.NotNil(t, root.Child("x"))
	require.NotNil(t, root.Child("y"))
}

func TestSynthesizeMergeSkipsChainsWithIntermediateItems(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true}
	root := synth(cfg, nil).Synthesize([]models.ViewItem{
		vi("one.md", "x/y"),
		vi("two.md", "y/x"),
		vi("mid.md", "x"),
	})

	require.NotNil(t, root.Child("y"), "chain with items at x is not merged away")
	x := root.Child("x")
	require.NotNil(t, x)
	assert.Contains(t, itemPaths(x), "mid.md")
}

func TestSynthesizeMergeCaseInsensitive(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true}
	root := synth(cfg, nil).Synthesize([]models.ViewItem{
		vi("one.md", "X/y"),
		vi("two.md", "Y/x"),
	})

	require.Len(t, root.Children, 1)
	x := root.Child("x")
	require.NotNil(t, x)
	require.NotNil(t, x.Child("y"))
}

func TestSynthesizeHideModes(t *testing.T) {
	items := []models.ViewItem{
		vi("deep.md", "project/alpha/todo"),
		vi("top.md", "project"),
		vi("flat.md", "solo"),
	}

	t.Run("NONE keeps everything visible", func(t *testing.T) {
		root := synth(models.Config{HideItems: models.HideNone}, nil).Synthesize(items)
		walkNodes(root, func(n *Node) {
			assert.False(t, n.Hidden, "node %q", n.TagPath())
		})
	})

	t.Run("unrecognized mode behaves like NONE", func(t *testing.T) {
		root := synth(models.Config{HideItems: models.HideMode("BOGUS")}, nil).Synthesize(items)
		walkNodes(root, func(n *Node) {
			assert.False(t, n.Hidden, "node %q", n.TagPath())
		})
	})

	t.Run("DEDICATED_INTERMIDIATES hides only bare intermediates", func(t *testing.T) {
		cfg := models.Config{HideItems: models.HideDedicatedIntermediates}
		root := synth(cfg, nil).Synthesize(items)

		project := root.Child("project")
		require.NotNil(t, project)
		assert.False(t, project.Hidden, "project holds top.md directly")

		alpha := project.Child("alpha")
		require.NotNil(t, alpha)
		assert.True(t, alpha.Hidden, "alpha exists only as an ancestor")

		todo := alpha.Child("todo")
		require.NotNil(t, todo)
		assert.False(t, todo.Hidden)
		assert.False(t, root.Child("solo").Hidden)
	})

	t.Run("ALL_EXCEPT_BOTTOM hides every parent", func(t *testing.T) {
		cfg := models.Config{HideItems: models.HideAllExceptBottom}
		root := synth(cfg, nil).Synthesize(items)

		assert.True(t, root.Child("project").Hidden)
		assert.True(t, root.Child("project").Child("alpha").Hidden)
		assert.False(t, root.Child("project").Child("alpha").Child("todo").Hidden)
		assert.False(t, root.Child("solo").Hidden)
	})
}

func TestSynthesizeItemCountDistinctPaths(t *testing.T) {
	root := synth(models.Config{DisableNarrowingDown: true}, nil).Synthesize([]models.ViewItem{
		vi("a.md", "project", "project/alpha"),
		vi("b.md", "project/alpha"),
	})

	project := root.Child("project")
	require.NotNil(t, project)
	assert.Equal(t, 2, project.ItemCount, "a.md counted once across the subtree")
	assert.Equal(t, 2, project.Child("alpha").ItemCount)
}

func TestSynthesizeChildOrderLexical(t *testing.T) {
	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{
		vi("1.md", "zebra"),
		vi("2.md", "Apple"),
		vi("3.md", "mango"),
	})

	assert.Equal(t, []string{"Apple", "mango", "zebra"}, childNames(root))
}

func TestSynthesizePinnedNodesFirst(t *testing.T) {
	meta := map[string]models.TagMeta{
		"zebra": {Pinned: true},
	}
	root := synth(models.Config{}, meta).Synthesize([]models.ViewItem{
		vi("1.md", "zebra"),
		vi("2.md", "Apple"),
	})

	assert.Equal(t, []string{"zebra", "Apple"}, childNames(root))
	assert.True(t, root.Child("zebra").Pinned)
}

func TestSynthesizeAliasLabel(t *testing.T) {
	meta := map[string]models.TagMeta{
		"project/alpha": {Alias: "Alpha Work", MarkStyle: "bold"},
	}
	root := synth(models.Config{}, meta).Synthesize([]models.ViewItem{
		vi("a.md", "project/alpha"),
	})

	alpha := root.Child("project").Child("alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, "alpha", alpha.Segment)
	assert.Equal(t, "Alpha Work", alpha.Label)
	assert.Equal(t, "bold", alpha.MarkStyle)
}

func TestSynthesizeIdempotent(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true, HideItems: models.HideDedicatedIntermediates}
	items := []models.ViewItem{
		vi("a.md", "project/alpha"),
		vi("b.md", "alpha/project"),
		vi("c.md", models.TagUntagged),
		vi("d.md", "review"),
	}

	s := synth(cfg, nil)
	first := s.Synthesize(items)
	second := s.Synthesize(items)

	assert.Equal(t, first.Signature(), second.Signature())
}

func TestSynthesizeOrderIndependent(t *testing.T) {
	cfg := models.Config{MergeRedundantCombination: true}
	items := []models.ViewItem{
		vi("a.md", "x/y"),
		vi("b.md", "y/x"),
		vi("c.md", "project/alpha"),
		vi("d.md", "project"),
		vi("e.md", models.TagUntagged),
	}

	s := synth(cfg, nil)
	want := s.Synthesize(items).Signature()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]models.ViewItem(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, s.Synthesize(shuffled).Signature())
	}
}

func TestSignatureReflectsStructure(t *testing.T) {
	s := synth(models.Config{}, nil)

	base := s.Synthesize([]models.ViewItem{vi("a.md", "x")})
	same := s.Synthesize([]models.ViewItem{vi("a.md", "x")})
	moved := s.Synthesize([]models.ViewItem{vi("a.md", "y")})
	added := s.Synthesize([]models.ViewItem{vi("a.md", "x"), vi("b.md", "x")})

	assert.Equal(t, base.Signature(), same.Signature())
	assert.NotEqual(t, base.Signature(), moved.Signature())
	assert.NotEqual(t, base.Signature(), added.Signature())
}

func TestPruneDropsEmptyBranches(t *testing.T) {
	root := NewRoot()
	branch := newNode("empty", nil)
	root.addChild("empty", branch)
	leaf := newNode("full", nil)
	root.addChild("full", leaf)
	leaf.attach(vi("a.md", "full"))

	prune(root)

	assert.Nil(t, root.Child("empty"))
	require.NotNil(t, root.Child("full"))
}

func TestPruneKeepsBranchWithDeepItems(t *testing.T) {
	root := NewRoot()
	top := newNode("top", nil)
	root.addChild("top", top)
	mid := newNode("mid", top.FullPath)
	top.addChild("mid", mid)
	mid.attach(vi("a.md", "top/mid"))

	prune(root)

	require.NotNil(t, root.Child("top"))
	require.NotNil(t, root.Child("top").Child("mid"))
}

func TestSynthesizeEndToEndScenario(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := vi("A.md", "proj/x")
	a.MTime = base.Add(100 * time.Second)
	b := vi("B.md", "proj/y")
	b.MTime = base.Add(200 * time.Second)
	c := vi("C.md", models.TagUntagged)
	c.MTime = base.Add(50 * time.Second)

	root := synth(models.Config{}, nil).Synthesize([]models.ViewItem{a, b, c})

	proj := root.Child("proj")
	require.NotNil(t, proj)
	assert.Empty(t, proj.Items, "proj is pass-through")
	assert.Equal(t, []string{"A.md"}, itemPaths(proj.Child("x")))
	assert.Equal(t, []string{"B.md"}, itemPaths(proj.Child("y")))

	untagged := root.Child(models.TagUntagged)
	require.NotNil(t, untagged)
	assert.Equal(t, []string{"C.md"}, itemPaths(untagged))
}
