package vault

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/mattsolo1/grove-tagtree/pkg/frontmatter"
)

var (
	// #tag with a non-word guard so headings, anchors, and HTML
	// entities stay out.
	inlineTagRegex = regexp.MustCompile(`(?:^|[^\w&#])#([\w\-/]+)`)

	// [[Target]] or [[Target|Label]]
	wikilinkRegex = regexp.MustCompile(`\[\[([^|\]]+)(?:\|([^\]]+))?\]\]`)

	// [Label](target)
	markdownLinkRegex = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
)

// inlineTags returns every #tag token in body, marker stripped.
func inlineTags(body string) []string {
	var tags []string
	for _, m := range inlineTagRegex.FindAllStringSubmatch(body, -1) {
		tag := strings.Trim(m[1], "/")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// wikilinkTargets returns every [[wikilink]] target, with any alias
// and heading fragment removed.
func wikilinkTargets(body string) []string {
	var targets []string
	for _, m := range wikilinkRegex.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target != "" {
			targets = append(targets, target)
		}
	}
	return targets
}

// markdownTargets returns every markdown link target that points at a
// document rather than an external URL.
func markdownTargets(body string) []string {
	var targets []string
	for _, m := range markdownLinkRegex.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if strings.Contains(target, "://") {
			continue
		}
		if i := strings.IndexAny(target, "#?"); i >= 0 {
			target = target[:i]
		}
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		target = strings.TrimPrefix(strings.TrimSpace(target), "./")
		if !strings.EqualFold(path.Ext(target), ".md") {
			continue
		}
		targets = append(targets, target)
	}
	return targets
}

// extractHeading returns the first H1 heading of body, if any.
func extractHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// parseCreated accepts the frontmatter timestamp format and the bare
// date form.
func parseCreated(value string) (time.Time, error) {
	if ts, err := frontmatter.ParseTimestamp(value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}
