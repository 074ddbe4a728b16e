package items

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

func TestExpandNarrowingProducesOneItemPerKey(t *testing.T) {
	e := NewExpander(models.Config{})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"p", "q", "r"}, nil)

	require.Len(t, got, 3)
	for i, key := range []string{"p", "q", "r"} {
		assert.Equal(t, []string{key}, got[i].Tags)
		assert.Len(t, got[i].ExtraTags, 2)
		assert.NotContains(t, got[i].ExtraTags, key)
	}
}

func TestExpandNarrowingDisabled(t *testing.T) {
	e := NewExpander(models.Config{DisableNarrowingDown: true})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"p", "q"}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"p", "q"}, got[0].Tags)
	assert.Empty(t, got[0].ExtraTags)
}

func TestExpandLinkViewNeverNarrows(t *testing.T) {
	e := NewExpander(models.Config{View: models.ViewLinks})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"beta", "gamma"}, []string{"notes/beta.md"})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"beta", "gamma"}, got[0].Tags)
}

func TestExpandArchiveTagsRestrictKeys(t *testing.T) {
	e := NewExpander(models.Config{ArchiveTags: []string{"Archive"}})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"project", "archive", "review"}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"archive"}, got[0].Tags)
	assert.ElementsMatch(t, []string{"project", "review"}, got[0].ExtraTags)
}

func TestExpandArchiveTagsAbsentKeepsAllKeys(t *testing.T) {
	e := NewExpander(models.Config{ArchiveTags: []string{"archive"}})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"project", "review"}, nil)
	assert.Len(t, got, 2)
}

func TestExpandFilterExcludesDocument(t *testing.T) {
	e := NewExpander(models.Config{Filter: "budget"})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "Planning"}

	assert.Nil(t, e.Expand(fact, []string{"project"}, nil))
}

func TestExpandFilterMatchesTitleOrTags(t *testing.T) {
	byTitle := NewExpander(models.Config{Filter: "plan"})
	byTag := NewExpander(models.Config{Filter: "#project"})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "Planning"}

	assert.NotNil(t, byTitle.Expand(fact, []string{"project"}, nil))
	assert.NotNil(t, byTag.Expand(fact, []string{"project"}, nil))
}

func TestExpandCopiesDocumentFields(t *testing.T) {
	e := NewExpander(models.Config{})
	mtime := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ctime := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fact := &models.DocumentFact{
		Path:  "notes/deep/alpha.md",
		Title: "Alpha",
		MTime: mtime,
		CTime: ctime,
	}

	got := e.Expand(fact, []string{"x"}, []string{"notes/beta.md"})

	require.Len(t, got, 1)
	item := got[0]
	assert.Equal(t, "notes/deep/alpha.md", item.Path)
	assert.Equal(t, "Alpha", item.DisplayName)
	assert.Equal(t, "alpha.md", item.Filename)
	assert.Equal(t, []string{"notes/beta.md"}, item.Links)
	assert.True(t, item.MTime.Equal(mtime))
	assert.True(t, item.CTime.Equal(ctime))
}

func TestExpandDisplayNameFallsBackToStem(t *testing.T) {
	e := NewExpander(models.Config{})
	fact := &models.DocumentFact{Path: "notes/no-title.md"}

	got := e.Expand(fact, []string{"x"}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "no-title", got[0].DisplayName)
}

func TestExpandEmptyLinksGetSentinel(t *testing.T) {
	e := NewExpander(models.Config{})
	fact := &models.DocumentFact{Path: "notes/a.md", Title: "A"}

	got := e.Expand(fact, []string{"x"}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, []string{models.TagUnlinked}, got[0].Links)
}
