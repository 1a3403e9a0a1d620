package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/gofrs/flock"
)

func TestRenderParse_RoundTrip(t *testing.T) {
	doc := &document.Document{Paragraphs: []document.Paragraph{
		{Style: document.StyleTitle, Text: "Live Journal — 2026-10-16"},
		{Style: document.StyleHeading, Text: "09:00:00"},
		{Style: document.StyleBody, Text: ""},
		{Style: document.StyleBody, Text: "# not a heading"},
		{Style: document.StyleBody, Text: `\ backslash first`},
		{Style: document.StyleBody, Text: "plain words"},
	}}

	rendered := Render(doc)
	want := "# Live Journal — 2026-10-16\n## 09:00:00\n\n\\# not a heading\n\\\\ backslash first\nplain words\n"
	if string(rendered) != want {
		t.Fatalf("unexpected rendering:\n%s", rendered)
	}

	parsed := Parse(rendered)
	if len(parsed.Paragraphs) != len(doc.Paragraphs) {
		t.Fatalf("unexpected paragraph count: %d", len(parsed.Paragraphs))
	}
	for i := range doc.Paragraphs {
		if parsed.Paragraphs[i] != doc.Paragraphs[i] {
			t.Fatalf("paragraph %d: got %+v want %+v", i, parsed.Paragraphs[i], doc.Paragraphs[i])
		}
	}
}

func TestRender_CollapsesNewlines(t *testing.T) {
	doc := &document.Document{Paragraphs: []document.Paragraph{{Style: document.StyleBody, Text: "a\nb\r\nc"}}}
	if got := string(Render(doc)); got != "a b c\n" {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestParse_HandlesCRLF(t *testing.T) {
	doc := Parse([]byte("# Title\r\n## 10:00:00\r\n\r\ntext\r\n"))
	if doc.HeadingCount() != 1 || len(doc.Paragraphs) != 4 {
		t.Fatalf("unexpected parse result: %+v", doc.Paragraphs)
	}
	if last, _ := doc.Last(); last.Text != "text" {
		t.Fatalf("unexpected last paragraph: %q", last.Text)
	}
}

func TestMarkdownStore_SaveReplace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	store, err := NewMarkdownStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := store.Path("2026-10-16")
	tmp := store.TempPath(path)
	if filepath.Base(path) != "2026-10-16.md" || filepath.Base(tmp) != "2026-10-16.tmp.md" {
		t.Fatalf("unexpected paths: %s %s", path, tmp)
	}

	doc := document.New("Live Journal — 2026-10-16")
	doc.Add(document.StyleBody, "hello")
	if err := store.Save(tmp, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	outcome, err := store.Replace(tmp, path)
	if err != nil || outcome != document.ReplaceApplied {
		t.Fatalf("unexpected replace result: %s %v", outcome, err)
	}
	if ok, _ := store.Exists(tmp); ok {
		t.Fatal("temp file should be gone after replace")
	}
	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if last, _ := loaded.Last(); last.Text != "hello" {
		t.Fatalf("unexpected content: %+v", loaded.Paragraphs)
	}
}

func TestMarkdownStore_ReplaceLockedKeepsTemp(t *testing.T) {
	store, err := NewMarkdownStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := store.Path("2026-10-16")
	tmp := store.TempPath(path)
	if err := os.WriteFile(path, []byte("# original\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	holder := flock.New(path)
	if err := holder.Lock(); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	defer func() { _ = holder.Unlock() }()

	doc := document.New("updated")
	if err := store.Save(tmp, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	outcome, err := store.Replace(tmp, path)
	if err != nil {
		t.Fatalf("locked replace should not error: %v", err)
	}
	if outcome != document.ReplaceLocked {
		t.Fatalf("expected locked outcome, got %s", outcome)
	}
	if ok, _ := store.Exists(tmp); !ok {
		t.Fatal("temp file should be retained")
	}
	b, _ := os.ReadFile(path)
	if string(b) != "# original\n" {
		t.Fatalf("destination modified while locked: %q", b)
	}
}

func TestMarkdownStore_WithAppender(t *testing.T) {
	store, err := NewMarkdownStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock := time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC)
	console := &bytes.Buffer{}
	a := document.NewAppender(store, nil, console, nil, document.AppenderConfig{
		Title:    "Live Journal",
		Location: time.UTC,
		Now:      func() time.Time { return clock },
	})
	for _, text := range []string{"good morning", "", "second chunk", "# third"} {
		if _, err := a.Append(text); err != nil {
			t.Fatalf("append %q failed: %v", text, err)
		}
	}

	b, err := os.ReadFile(store.Path("2026-10-16"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := "# Live Journal — 2026-10-16\n## 07:30:00\n\ngood morning second chunk # third\n"
	if string(b) != want {
		t.Fatalf("unexpected file:\n%s", b)
	}
	if strings.Count(console.String(), "\n") != 3 {
		t.Fatalf("unexpected console echo: %q", console.String())
	}
}

func TestNewMarkdownStore_RejectsEmptyDir(t *testing.T) {
	if _, err := NewMarkdownStore("  "); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestNewMarkdownStore_CreatesDirAndDerivesPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal", "audio_to_txt")
	var store document.Store
	store, err := NewMarkdownStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("document directory not created: %v", err)
	}
	path := store.Path("2026-10-16")
	if path != filepath.Join(dir, "2026-10-16.md") {
		t.Fatalf("unexpected document path: %s", path)
	}
	if tmp := store.TempPath(path); tmp != filepath.Join(dir, "2026-10-16.tmp.md") {
		t.Fatalf("unexpected temp path: %s", tmp)
	}
}
