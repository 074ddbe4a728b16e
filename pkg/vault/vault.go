package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-tagtree/pkg/cache"
	"github.com/mattsolo1/grove-tagtree/pkg/frontmatter"
	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// TagInfoFile is the per-vault sidecar holding tag display metadata.
const TagInfoFile = "taginfo.yaml"

// Vault is a directory of documents. It hands the engine raw
// per-document facts: extracted tags, resolved link targets, and file
// metadata. Paths are always vault-relative with forward slashes.
type Vault struct {
	root string
	cfg  models.Config
	log  *logrus.Logger

	mu       sync.RWMutex
	paths    map[string]bool
	byStem   map[string][]string
	lastMeta map[string]models.TagMeta
}

// New opens the vault rooted at dir.
func New(dir string, cfg models.Config, log *logrus.Logger) (*Vault, error) {
	if log == nil {
		log = logrus.New()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", dir)
	}

	return &Vault{
		root:   abs,
		cfg:    cfg,
		log:    log,
		paths:  make(map[string]bool),
		byStem: make(map[string][]string),
	}, nil
}

// Root returns the vault's absolute root directory.
func (v *Vault) Root() string {
	return v.root
}

// List walks the vault and returns every corpus document with its
// modification time, rebuilding the link-resolution index as a side
// effect. Results are ordered by path.
func (v *Vault) List(ctx context.Context) ([]cache.Listing, error) {
	var listings []cache.Listing
	paths := make(map[string]bool)
	byStem := make(map[string][]string)

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			v.log.Warnf("skipping %s: %v", p, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if p != v.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel := v.rel(p)
		if !v.wantFolder(rel) || !v.wantFile(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			v.log.Warnf("skipping %s: %v", rel, err)
			return nil
		}

		listings = append(listings, cache.Listing{Path: rel, MTime: info.ModTime()})
		paths[rel] = true
		stem := lowerStem(rel)
		byStem[stem] = append(byStem[stem], rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}

	sort.Slice(listings, func(i, j int) bool { return listings[i].Path < listings[j].Path })
	for _, candidates := range byStem {
		sort.Strings(candidates)
	}

	v.mu.Lock()
	v.paths = paths
	v.byStem = byStem
	v.mu.Unlock()

	return listings, nil
}

// Read loads one document and extracts its raw facts. A missing path
// returns an error wrapping fs.ErrNotExist and drops the path from the
// link-resolution index.
func (v *Vault) Read(ctx context.Context, relPath string) (*models.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs := filepath.Join(v.root, filepath.FromSlash(relPath))
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			v.forget(relPath)
		}
		return nil, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: %w", relPath, fs.ErrNotExist)
	}
	v.remember(relPath)

	raw := &models.RawDocument{
		Path:  relPath,
		Title: stemOf(relPath),
		MTime: info.ModTime(),
		CTime: info.ModTime(),
	}

	if !strings.EqualFold(path.Ext(relPath), ".md") {
		return raw, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	fm, body, err := frontmatter.Parse(string(content))
	if err != nil {
		v.log.Debugf("frontmatter in %s: %v", relPath, err)
		fm = nil
		body = string(content)
	}

	raw.Tags = v.collectTags(fm, body)
	raw.Links = v.resolveLinks(relPath, body)

	if h := extractHeading(body); h != "" {
		raw.Title = h
	} else if fm != nil && fm.Title != "" {
		raw.Title = fm.Title
	}
	if fm != nil && fm.Created != "" {
		if created, err := parseCreated(fm.Created); err == nil {
			raw.CTime = created
		}
	}

	return raw, nil
}

// collectTags merges frontmatter and inline body tags, each normalized
// to carry the marker prefix. A configured custom tag key replaces the
// default extraction entirely.
func (v *Vault) collectTags(fm *frontmatter.Frontmatter, body string) []string {
	var found []string
	if v.cfg.CustomTagKey != "" && v.cfg.CustomTagKey != "tags" {
		found = fm.TagList(v.cfg.CustomTagKey)
	} else {
		found = append(found, fm.TagList("")...)
		found = append(found, inlineTags(body)...)
	}

	seen := make(map[string]bool, len(found))
	var tags []string
	for _, t := range found {
		t = strings.Trim(strings.TrimSpace(t), models.TagSeparator)
		t = strings.TrimPrefix(t, models.TagMarker)
		if t == "" {
			continue
		}
		marked := models.TagMarker + t
		if seen[marked] {
			continue
		}
		seen[marked] = true
		tags = append(tags, marked)
	}
	return tags
}

// resolveLinks extracts wikilink and markdown link targets from body
// and resolves each against the corpus. Unresolvable targets are
// dropped.
func (v *Vault) resolveLinks(relPath, body string) []string {
	targets := wikilinkTargets(body)
	targets = append(targets, markdownTargets(body)...)

	seen := make(map[string]bool, len(targets))
	var links []string
	for _, target := range targets {
		resolved, ok := v.resolveTarget(relPath, target)
		if !ok || seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
	}
	return links
}

// resolveTarget maps one link target to an existing corpus path. Bare
// names resolve through the stem index (first path in lexical order);
// pathed targets are tried relative to the document's folder, then the
// vault root.
func (v *Vault) resolveTarget(fromPath, target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" || strings.Contains(target, "://") {
		return "", false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if !strings.Contains(target, "/") {
		stem := strings.ToLower(strings.TrimSuffix(target, path.Ext(target)))
		if candidates := v.byStem[stem]; len(candidates) > 0 {
			return candidates[0], true
		}
		return "", false
	}

	for _, candidate := range []string{
		path.Join(path.Dir(fromPath), target),
		path.Clean(target),
	} {
		if path.Ext(candidate) == "" {
			candidate += ".md"
		}
		if v.paths[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// wantFolder applies the target/ignore folder prefix filters,
// case-insensitively, to a vault-relative path.
func (v *Vault) wantFolder(rel string) bool {
	lower := strings.ToLower(rel)
	for _, prefix := range v.cfg.IgnoreFolders {
		if p := normalizePrefix(prefix); p != "" && strings.HasPrefix(lower, p) {
			return false
		}
	}
	if len(v.cfg.TargetFolders) == 0 {
		return true
	}
	for _, prefix := range v.cfg.TargetFolders {
		if p := normalizePrefix(prefix); p == "" || strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// wantFile reports whether a vault-relative path belongs to the
// corpus. Non-markdown files only take part when a virtual grouping
// can give them a home.
func (v *Vault) wantFile(rel string) bool {
	if rel == TagInfoFile {
		return false
	}
	if strings.EqualFold(path.Ext(rel), ".md") {
		return true
	}
	return v.cfg.UseVirtualTag || v.cfg.DisplayFolderAsTag
}

func (v *Vault) rel(abs string) string {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (v *Vault) remember(rel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.paths[rel] {
		return
	}
	v.paths[rel] = true
	stem := lowerStem(rel)
	v.byStem[stem] = append(v.byStem[stem], rel)
	sort.Strings(v.byStem[stem])
}

func (v *Vault) forget(rel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.paths[rel] {
		return
	}
	delete(v.paths, rel)
	stem := lowerStem(rel)
	candidates := v.byStem[stem]
	for i, c := range candidates {
		if c == rel {
			v.byStem[stem] = append(candidates[:i], candidates[i+1:]...)
			break
		}
	}
	if len(v.byStem[stem]) == 0 {
		delete(v.byStem, stem)
	}
}

func normalizePrefix(p string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(p), "/"))
}

func stemOf(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

func lowerStem(rel string) string {
	return strings.ToLower(stemOf(rel))
}
