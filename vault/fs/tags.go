package fs

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter is the subset of YAML frontmatter the pipeline cares about:
// the tag list plus the singular tag field some vaults use.
type frontmatter struct {
	Tags yamlStringList `yaml:"tags"`
	Tag  string         `yaml:"tag"`
}

// yamlStringList accepts both a YAML sequence and a single scalar, since
// vaults write frontmatter both ways.
type yamlStringList []string

func (l *yamlStringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = splitTagScalar(s)
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	}
	return nil
}

func splitTagScalar(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// inlineTagPattern matches #tag tokens, including hierarchical tags like
// #work/meetings.
var inlineTagPattern = regexp.MustCompile(`(?:^|\s)#([a-zA-Z0-9_][a-zA-Z0-9_/\-]*)`)

// Tags returns the document's tag set: frontmatter tags (list and singular
// field) plus inline #tags, deduplicated, leading '#' stripped. A document
// that cannot be read has no tags; metadata lookups never fail.
func (s *Source) Tags(path string) []string {
	data, err := os.ReadFile(s.absPath(path))
	if err != nil {
		return nil
	}
	return extractTags(string(data))
}

func extractTags(content string) []string {
	seen := make(map[string]bool)
	var tags []string

	add := func(tag string) {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if !seen[key] {
			seen[key] = true
			tags = append(tags, tag)
		}
	}

	body := content
	if fm, rest, ok := splitFrontmatter(content); ok {
		var parsed frontmatter
		if err := yaml.Unmarshal([]byte(fm), &parsed); err == nil {
			for _, t := range parsed.Tags {
				add(t)
			}
			add(parsed.Tag)
		}
		body = rest
	}

	for _, match := range inlineTagPattern.FindAllStringSubmatch(body, -1) {
		add(match[1])
	}

	return tags
}

// splitFrontmatter separates a leading "---" YAML block from the body.
func splitFrontmatter(content string) (fm, body string, ok bool) {
	if !strings.HasPrefix(content, "---\n") && content != "---" {
		return "", content, false
	}
	rest := strings.TrimPrefix(content, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content, false
	}
	fm = rest[:end]
	body = rest[end+len("\n---"):]
	return fm, body, true
}
