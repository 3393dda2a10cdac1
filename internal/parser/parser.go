// Package parser inspects the YAML frontmatter of legacy posts. It never
// feeds back into the rewritten content; results are diagnostics only.
package parser

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Result holds what was learnt from a post's frontmatter.
type Result struct {
	Frontmatter map[string]interface{}
	Title       string
}

// Parse reads the frontmatter block that data opens with and derives a title.
// Callers pass data starting at the opening marker. Missing or invalid
// frontmatter is not an error: the whole input is treated as body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Title:       deriveTitle(fm, body),
	}
}

// Keys returns those of the given keys present in the frontmatter, in the
// order given.
func (r *Result) Keys(keys ...string) []string {
	if r.Frontmatter == nil {
		return nil
	}
	var out []string
	for _, k := range keys {
		if _, ok := r.Frontmatter[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// splitFrontmatter separates YAML frontmatter from the Markdown body. Line
// endings are normalised first so CRLF and CR posts split like LF ones.
func splitFrontmatter(data []byte) (map[string]interface{}, string) {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	normalized = bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))

	var fm map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(normalized), &fm, yamlFormat)
	if err != nil {
		return nil, string(normalized)
	}
	return fm, string(body)
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
