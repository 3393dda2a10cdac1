package migrate

import (
	"regexp"
	"strings"
)

var (
	// A lone "\r" is accepted as a line break too, for old Mac line endings.
	frontmatterOpenRe = regexp.MustCompile(`---(?:\r\n|\n|\r)`)
	legacyURLRe       = regexp.MustCompile(`\{\{\s*site\.url\s*\}\}\s*\{\{\s*site\.baseurl\s*\}\}`)
)

// Header returns the block that replaces the opening frontmatter marker.
func Header(dest Destination, opts Options) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(`date: "` + dest.Timestamp + "\"\n")
	if !opts.NoSlug {
		b.WriteString(`slug: "` + dest.Slug + "\"\n")
	}
	return b.String()
}

// Rewrite swaps the first "---" line break in content for the date/slug
// header and, unless opts.NoURLReplace is set, drops every legacy
// {{ site.url }}{{ site.baseurl }} token.
//
// Only the opening marker is substituted. Existing date or slug keys further
// down the frontmatter are kept, so the output may carry duplicate keys.
// Content without a marker gets no header.
func Rewrite(content string, dest Destination, opts Options) string {
	out := replaceFirst(frontmatterOpenRe, content, Header(dest, opts))
	if !opts.NoURLReplace {
		out = legacyURLRe.ReplaceAllLiteralString(out, "")
	}
	return out
}

// MarkerIndex returns the byte offset of the opening marker Rewrite replaces,
// or -1 when content has none.
func MarkerIndex(content string) int {
	loc := frontmatterOpenRe.FindStringIndex(content)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// replaceFirst substitutes repl literally for the first match of re in s.
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
