package document

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/gofrs/flock"
)

const (
	documentExt = ".md"
	tempExt     = ".tmp.md"
	filePerm    = 0o644
	dirPerm     = 0o755
)

// MarkdownStore keeps one paragraph per line: "# " for the title, "## "
// for timestamp headings, plain lines for body text.
type MarkdownStore struct {
	dir string
}

func NewMarkdownStore(dir string) (*MarkdownStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("document directory is empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	return &MarkdownStore{dir: dir}, nil
}

func (s *MarkdownStore) Path(date string) string {
	return filepath.Join(s.dir, date+documentExt)
}

func (s *MarkdownStore) TempPath(path string) string {
	return strings.TrimSuffix(path, documentExt) + tempExt
}

func (s *MarkdownStore) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *MarkdownStore) Load(path string) (*document.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b), nil
}

func (s *MarkdownStore) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *MarkdownStore) Save(path string, doc *document.Document) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(Render(doc)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Replace renames tmpPath over path. A destination held by another
// process, either through an advisory lock or an OS sharing violation,
// yields ReplaceLocked and leaves tmpPath in place.
func (s *MarkdownStore) Replace(tmpPath, path string) (document.ReplaceOutcome, error) {
	locked, err := isLockedByOther(path)
	if err != nil {
		return document.ReplaceApplied, fmt.Errorf("probe lock: %w", err)
	}
	if locked {
		return document.ReplaceLocked, nil
	}
	if err := os.Rename(tmpPath, path); err != nil {
		if isLockError(err) {
			return document.ReplaceLocked, nil
		}
		return document.ReplaceApplied, err
	}
	return document.ReplaceApplied, nil
}

func isLockedByOther(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		if isLockError(err) {
			return true, nil
		}
		return false, err
	}
	if !ok {
		return true, nil
	}
	return false, fl.Unlock()
}

func Render(doc *document.Document) []byte {
	var b bytes.Buffer
	for _, p := range doc.Paragraphs {
		switch p.Style {
		case document.StyleTitle:
			b.WriteString("# ")
			b.WriteString(singleLine(p.Text))
		case document.StyleHeading:
			b.WriteString("## ")
			b.WriteString(singleLine(p.Text))
		default:
			text := singleLine(p.Text)
			if strings.HasPrefix(text, "#") || strings.HasPrefix(text, `\`) {
				b.WriteByte('\\')
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func Parse(b []byte) *document.Document {
	doc := &document.Document{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "## "):
			doc.Add(document.StyleHeading, strings.TrimPrefix(line, "## "))
		case strings.HasPrefix(line, "# "):
			doc.Add(document.StyleTitle, strings.TrimPrefix(line, "# "))
		case strings.HasPrefix(line, `\`):
			doc.Add(document.StyleBody, line[1:])
		default:
			doc.Add(document.StyleBody, line)
		}
	}
	return doc
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
