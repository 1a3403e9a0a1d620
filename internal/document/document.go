package document

import "time"

type Style int

const (
	StyleBody Style = iota
	StyleTitle
	StyleHeading
)

type Paragraph struct {
	Style Style
	Text  string
}

// Document is the paragraph list of one daily transcript file.
type Document struct {
	Paragraphs []Paragraph
}

func New(title string) *Document {
	return &Document{Paragraphs: []Paragraph{{Style: StyleTitle, Text: title}}}
}

func (d *Document) Add(style Style, text string) {
	d.Paragraphs = append(d.Paragraphs, Paragraph{Style: style, Text: text})
}

// HasTimestampHeading reports whether any heading below the title exists.
func (d *Document) HasTimestampHeading() bool {
	for _, p := range d.Paragraphs {
		if p.Style == StyleHeading {
			return true
		}
	}
	return false
}

func (d *Document) HeadingCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		if p.Style == StyleHeading {
			n++
		}
	}
	return n
}

// AppendToLast extends the final paragraph on the same line.
func (d *Document) AppendToLast(text string) {
	if len(d.Paragraphs) == 0 {
		d.Add(StyleBody, text)
		return
	}
	d.Paragraphs[len(d.Paragraphs)-1].Text += text
}

func (d *Document) Last() (Paragraph, bool) {
	if len(d.Paragraphs) == 0 {
		return Paragraph{}, false
	}
	return d.Paragraphs[len(d.Paragraphs)-1], true
}

type ReplaceOutcome int

const (
	ReplaceApplied ReplaceOutcome = iota
	// ReplaceLocked means another process holds the destination; the
	// rendered temp file is left in place.
	ReplaceLocked
)

func (o ReplaceOutcome) String() string {
	switch o {
	case ReplaceApplied:
		return "applied"
	case ReplaceLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Store persists daily documents. Replace must swap tmpPath into path in
// one step or leave path untouched.
type Store interface {
	Path(date string) string
	TempPath(path string) string
	Exists(path string) (bool, error)
	Load(path string) (*Document, error)
	Save(path string, doc *Document) error
	Replace(tmpPath, path string) (ReplaceOutcome, error)
	Read(path string) ([]byte, error)
}

type Viewer interface {
	Open(path string) error
}

const (
	dateLayout    = "2006-01-02"
	headingLayout = "15:04:05"
)

func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}
