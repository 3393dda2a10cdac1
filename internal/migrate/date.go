// Package migrate derives page-bundle destinations from date-prefixed post
// names and rewrites the leading frontmatter marker of each post.
package migrate

import "regexp"

var (
	datePrefixRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})-`)
	extensionRe  = regexp.MustCompile(`\..*`)
)

// ParsedDate holds the date digits found in a file name, verbatim.
type ParsedDate struct {
	Year  string
	Month string
	Day   string
}

// ExtractDate returns the first YYYY-MM-DD- group found anywhere in name.
// Digits are not validated against the calendar: "2008-13-99-" is accepted.
func ExtractDate(name string) (ParsedDate, bool) {
	m := datePrefixRe.FindStringSubmatch(name)
	if m == nil {
		return ParsedDate{}, false
	}
	return ParsedDate{Year: m[1], Month: m[2], Day: m[3]}, true
}
