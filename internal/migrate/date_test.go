package migrate

import "testing"

func TestExtractDate_Prefix(t *testing.T) {
	d, ok := ExtractDate("2012-03-22-some-post.md")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Year != "2012" || d.Month != "03" || d.Day != "22" {
		t.Errorf("date = %+v", d)
	}
}

func TestExtractDate_NoCalendarValidation(t *testing.T) {
	d, ok := ExtractDate("2008-13-99-x.md")
	if !ok {
		t.Fatal("expected a date")
	}
	if got := d.Timestamp(); got != "2008-13-99T22:40:32.169Z" {
		t.Errorf("timestamp = %q", got)
	}
}

func TestExtractDate_NotAnchored(t *testing.T) {
	d, ok := ExtractDate("draft-2019-07-04-fireworks.md")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Year != "2019" || d.Month != "07" || d.Day != "04" {
		t.Errorf("date = %+v", d)
	}
}

func TestExtractDate_FirstMatchWins(t *testing.T) {
	d, ok := ExtractDate("2001-02-03-2004-05-06-post.md")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Year != "2001" {
		t.Errorf("year = %q, want 2001", d.Year)
	}
}

func TestExtractDate_Missing(t *testing.T) {
	for _, name := range []string{
		"about.md",
		"2012-03-22.md",
		"12-03-22-short-year.md",
		"2012-3-22-single-digit.md",
		"",
	} {
		if _, ok := ExtractDate(name); ok {
			t.Errorf("ExtractDate(%q) found a date", name)
		}
	}
}
