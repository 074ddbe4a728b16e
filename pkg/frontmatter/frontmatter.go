package frontmatter

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)`)

// StringList unmarshals a YAML value that may be either a scalar or a
// sequence into a slice. Vault frontmatter uses both forms for tags.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, n := range value.Content {
			if n.Kind == yaml.ScalarNode && n.Value != "" {
				out = append(out, n.Value)
			}
		}
		*l = out
	default:
		*l = nil
	}
	return nil
}

// Frontmatter represents the structured metadata at the beginning of a document
type Frontmatter struct {
	Title    string     `yaml:"title"`
	Aliases  StringList `yaml:"aliases,flow"`
	Tags     StringList `yaml:"tags,flow"`
	Tag      StringList `yaml:"tag,flow"`
	Created  string     `yaml:"created"`
	Modified string     `yaml:"modified"`

	fields map[string]interface{}
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	frontmatterStr := matches[1]
	bodyContent := matches[2]

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(frontmatterStr), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Keep the raw mapping so callers can read non-standard keys.
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(frontmatterStr), &raw); err == nil {
		fm.fields = raw
	}

	// Ensure arrays are never nil
	if fm.Aliases == nil {
		fm.Aliases = StringList{}
	}
	if fm.Tags == nil {
		fm.Tags = StringList{}
	}

	return &fm, bodyContent, nil
}

// TagList returns the document's tags, honoring both the plural and
// singular frontmatter keys. When customKey is set, tags are read from
// that field only.
func (fm *Frontmatter) TagList(customKey string) []string {
	if fm == nil {
		return nil
	}
	if customKey != "" {
		return fm.StringList(customKey)
	}
	return MergeTags(fm.Tags, fm.Tag)
}

// StringList coerces an arbitrary frontmatter field into a string slice.
// Scalars become single-element slices; anything else yields nil.
func (fm *Frontmatter) StringList(key string) []string {
	if fm == nil || fm.fields == nil {
		return nil
	}

	switch v := fm.fields[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// FormatTimestamp formats a time.Time into the standard frontmatter timestamp format
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseTimestamp parses a frontmatter timestamp string into time.Time
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}

// MergeTags combines multiple tag sources and removes duplicates
func MergeTags(sources ...[]string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, tags := range sources {
		for _, tag := range tags {
			if tag != "" && !seen[tag] {
				seen[tag] = true
				result = append(result, tag)
			}
		}
	}

	return result
}
