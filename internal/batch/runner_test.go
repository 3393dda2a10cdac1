package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/postmigrate/internal/migrate"
	"github.com/starford/postmigrate/internal/testutil"
)

const samplePost = "---\nlayout: post\ntitle: Some Post\n---\n![a]({{ site.url }}{{ site.baseurl }}/img/a.png)\n"

func newTestRunner(t *testing.T, opts migrate.Options, ropts ...RunnerOption) (*Runner, string) {
	t.Helper()
	root, store := testutil.TestOutput(t)
	opts.ResultsDir = root
	return NewRunner(store, opts, testutil.Logger(t), ropts...), root
}

func TestMigrateFile_Default(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{})
	src := testutil.WritePost(t, t.TempDir(), "2012-03-22-some-post.md", samplePost)

	res := r.MigrateFile(src)
	if !res.OK() {
		t.Fatalf("MigrateFile failed: %s", res.Error)
	}
	if res.Title != "Some Post" || res.Slug != "some-post" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Checksum) != 64 {
		t.Errorf("checksum = %q", res.Checksum)
	}

	got := testutil.ReadFile(t, filepath.Join(root, "some-post", "index.md"))
	want := "---\ndate: \"2012-03-22T22:40:32.169Z\"\nslug: \"some-post\"\nlayout: post\ntitle: Some Post\n---\n![a](/img/a.png)\n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestMigrateFile_FlagsCombined(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{NoFolders: true, KeepDates: true, NoURLReplace: true, NoSlug: true})
	src := testutil.WritePost(t, t.TempDir(), "2008-12-03-a-post.md", samplePost)

	res := r.MigrateFile(src)
	if !res.OK() {
		t.Fatalf("MigrateFile failed: %s", res.Error)
	}
	got := testutil.ReadFile(t, filepath.Join(root, "2008-12-03-a-post.md"))
	want := "---\ndate: \"2008-12-03T22:40:32.169Z\"\nlayout: post\ntitle: Some Post\n---\n![a]({{ site.url }}{{ site.baseurl }}/img/a.png)\n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestMigrateFile_NoDate(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{})
	src := testutil.WritePost(t, t.TempDir(), "about.md", samplePost)

	res := r.MigrateFile(src)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "no date found") {
		t.Errorf("error = %q", res.Error)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("failed file produced output: %v", entries)
	}
}

func TestMigrateFile_MissingSource(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{})
	res := r.MigrateFile(filepath.Join(t.TempDir(), "2012-03-22-gone.md"))
	if res.OK() {
		t.Fatal("expected failure")
	}
	// The folder is created before the read; it is left empty.
	if _, err := os.Stat(filepath.Join(root, "gone", "index.md")); !os.IsNotExist(err) {
		t.Errorf("unexpected output: %v", err)
	}
}

func TestMigrateFile_Warnings(t *testing.T) {
	r, _ := newTestRunner(t, migrate.Options{})
	dir := t.TempDir()

	dup := testutil.WritePost(t, dir, "2012-03-22-dup.md", "---\ndate: 2012-03-22\nslug: old\n---\nBody\n")
	res := r.MigrateFile(dup)
	if !res.OK() || len(res.Warnings) != 2 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	bom := testutil.WritePost(t, dir, "2012-03-24-bom.md", "\ufeff---\ndate: 2012-03-22\nslug: old\n---\nBody\n")
	res = r.MigrateFile(bom)
	if !res.OK() || len(res.Warnings) != 2 {
		t.Errorf("BOM post warnings = %v, want date and slug", res.Warnings)
	}

	plain := testutil.WritePost(t, dir, "2012-03-23-plain.md", "# No frontmatter\n")
	res = r.MigrateFile(plain)
	if !res.OK() || len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "no frontmatter") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestRun_AggregateCounts(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{}, WithWorkers(3))
	dir := t.TempDir()
	files := []string{
		testutil.WritePost(t, dir, "2012-01-01-one.md", samplePost),
		testutil.WritePost(t, dir, "2012-01-02-two.md", samplePost),
		testutil.WritePost(t, dir, "no-date.md", samplePost),
		testutil.WritePost(t, dir, "2012-01-03-three.md", samplePost),
		testutil.WritePost(t, dir, "readme.md", samplePost),
	}

	s := r.Run(context.Background(), files)
	if s.Total != 5 || s.Converted != 3 || s.Failed != 2 {
		t.Errorf("summary = %d/%d/%d", s.Converted, s.Failed, s.Total)
	}
	for i, f := range s.Files {
		if f.Source != files[i] {
			t.Errorf("result %d source = %q, want input order", i, f.Source)
		}
	}
	for _, name := range []string{"one", "two", "three"} {
		if _, err := os.Stat(filepath.Join(root, name, "index.md")); err != nil {
			t.Errorf("missing output for %s: %v", name, err)
		}
	}
	if s.FinishedAt.Before(s.StartedAt) {
		t.Error("finished before started")
	}
}

func TestRun_ParallelismDoesNotChangeOutputs(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files = append(files, testutil.WritePost(t, dir, "2020-02-02-"+n+".md", samplePost))
	}

	var outputs [2]map[string]string
	for i, workers := range []int{1, 8} {
		r, root := newTestRunner(t, migrate.Options{}, WithWorkers(workers))
		s := r.Run(context.Background(), files)
		if s.Converted != len(files) {
			t.Fatalf("workers=%d converted %d", workers, s.Converted)
		}
		outputs[i] = map[string]string{}
		for _, f := range s.Files {
			rel, _ := filepath.Rel(root, f.Output)
			outputs[i][rel] = f.Checksum
		}
	}
	if len(outputs[0]) != len(outputs[1]) {
		t.Fatalf("output sets differ: %v vs %v", outputs[0], outputs[1])
	}
	for k, v := range outputs[0] {
		if outputs[1][k] != v {
			t.Errorf("output %s differs between worker counts", k)
		}
	}
}

func TestRun_CollisionOverwrite(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{})
	dir := t.TempDir()
	files := []string{
		testutil.WritePost(t, dir, "2012-01-01-same.md", "---\ntitle: A\n---\n"),
		testutil.WritePost(t, dir, "2013-01-01-same.md", "---\ntitle: B\n---\n"),
	}

	s := r.Run(context.Background(), files)
	if s.Converted != 2 {
		t.Fatalf("converted = %d, want 2", s.Converted)
	}
	if len(s.Files[1].Warnings) == 0 {
		t.Error("second claimant should carry a collision warning")
	}
	if _, err := os.Stat(filepath.Join(root, "same", "index.md")); err != nil {
		t.Errorf("missing output: %v", err)
	}
}

func TestRun_CollisionError(t *testing.T) {
	r, root := newTestRunner(t, migrate.Options{}, WithCollisionPolicy(CollisionError))
	dir := t.TempDir()
	files := []string{
		testutil.WritePost(t, dir, "2012-01-01-same.md", "---\ntitle: A\n---\n"),
		testutil.WritePost(t, dir, "2013-01-01-same.md", "---\ntitle: B\n---\n"),
	}

	s := r.Run(context.Background(), files)
	if s.Converted != 1 || s.Failed != 1 {
		t.Fatalf("summary = %d/%d", s.Converted, s.Total)
	}
	if !s.Files[0].OK() || s.Files[1].OK() {
		t.Errorf("first source should win: %+v", s.Files)
	}
	got := testutil.ReadFile(t, filepath.Join(root, "same", "index.md"))
	if !strings.Contains(got, "title: A") {
		t.Errorf("output = %q, want first source", got)
	}
}

func TestRun_Cancelled(t *testing.T) {
	r, _ := newTestRunner(t, migrate.Options{})
	src := testutil.WritePost(t, t.TempDir(), "2012-01-01-one.md", samplePost)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := r.Run(ctx, []string{src})
	if s.Total != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	for in, want := range map[string]CollisionPolicy{
		"":          CollisionOverwrite,
		"overwrite": CollisionOverwrite,
		"ERROR":     CollisionError,
	} {
		got, err := ParseCollisionPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseCollisionPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCollisionPolicy("rename"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestClaims(t *testing.T) {
	c := newClaims()
	if _, ok := c.claim("out/a/index.md", "x.md"); !ok {
		t.Fatal("first claim should succeed")
	}
	if _, ok := c.claim("out/a/index.md", "x.md"); !ok {
		t.Error("owner reclaim should succeed")
	}
	owner, ok := c.claim("out/a/index.md", "y.md")
	if ok || owner != "x.md" {
		t.Errorf("claim = %q, %v", owner, ok)
	}
}
