package parser

import (
	"testing"
)

func TestParse_Frontmatter(t *testing.T) {
	r := Parse([]byte("---\ntitle: Hello\nlayout: post\n---\n# Heading\nBody text.\n"))
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Frontmatter["layout"] != "post" {
		t.Errorf("layout = %v", r.Frontmatter["layout"])
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParse_CRLF(t *testing.T) {
	r := Parse([]byte("---\r\ntitle: Windows\r\n---\r\nBody\r\n"))
	if r.Title != "Windows" {
		t.Errorf("title = %q, want Windows", r.Title)
	}
}

func TestParse_H1AfterFrontmatter(t *testing.T) {
	r := Parse([]byte("---\nlayout: post\n---\n# From Heading\n"))
	if r.Title != "From Heading" {
		t.Errorf("title = %q, want %q", r.Title, "From Heading")
	}
}

func TestParse_MarkerMustLead(t *testing.T) {
	r := Parse([]byte("intro\n---\ntitle: A\n---\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
}

func TestResult_Keys(t *testing.T) {
	r := Parse([]byte("---\ntitle: A\ndate: 2012-03-22 10:00:00 +0100\nslug: a\n---\nBody\n"))
	got := r.Keys("date", "slug")
	if len(got) != 2 || got[0] != "date" || got[1] != "slug" {
		t.Errorf("keys = %v, want [date slug]", got)
	}
}

func TestResult_KeysNone(t *testing.T) {
	if got := Parse([]byte("---\ntitle: A\n---\n")).Keys("date", "slug"); len(got) != 0 {
		t.Errorf("keys = %v, want none", got)
	}
	if got := Parse([]byte("no frontmatter")).Keys("date"); len(got) != 0 {
		t.Errorf("keys = %v, want none", got)
	}
}

func TestResult_KeysCRLF(t *testing.T) {
	got := Parse([]byte("---\r\ndate: 2012-03-22\r\nslug: old\r\n---\r\n")).Keys("date", "slug")
	if len(got) != 2 {
		t.Errorf("keys = %v, want [date slug]", got)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	if title := deriveTitle(fm, "# H1 Title\ntext"); title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	if title := deriveTitle(nil, "some text\n# My Heading\nmore"); title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
