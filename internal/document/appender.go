package document

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// State is shared by every document the process writes.
type State struct {
	viewerOpened bool
}

func (s *State) ViewerOpened() bool {
	return s.viewerOpened
}

type dailyDocument struct {
	date              string
	path              string
	tmpPath           string
	scanned           bool
	hasHeadingWritten bool
	pendingTemp       bool
}

type AppendResult struct {
	Skipped        bool
	Path           string
	Created        bool
	HeadingWritten bool
	Outcome        ReplaceOutcome
}

type Appender struct {
	store   Store
	viewer  Viewer
	console io.Writer
	title   string
	loc     *time.Location
	now     func() time.Time
	state   *State

	current *dailyDocument
}

type AppenderConfig struct {
	Title    string
	Location *time.Location
	Now      func() time.Time
}

func NewAppender(store Store, viewer Viewer, console io.Writer, state *State, cfg AppenderConfig) *Appender {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if state == nil {
		state = &State{}
	}
	if console == nil {
		console = io.Discard
	}
	return &Appender{
		store:   store,
		viewer:  viewer,
		console: console,
		title:   cfg.Title,
		loc:     cfg.Location,
		now:     cfg.Now,
		state:   state,
	}
}

// Append adds text to today's document. A destination locked by another
// process is not an error: the text goes to the console and the rendered
// temp file is kept for the next append.
func (a *Appender) Append(text string) (AppendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AppendResult{Skipped: true}, nil
	}

	now := a.now().In(a.loc)
	doc := a.resolve(now)
	d, created, err := a.load(doc)
	if err != nil {
		return AppendResult{Path: doc.path}, err
	}
	if !doc.scanned {
		doc.hasHeadingWritten = d.HasTimestampHeading()
		doc.scanned = true
	}

	writeHeading := !doc.hasHeadingWritten
	if writeHeading {
		d.Add(StyleHeading, now.Format(headingLayout))
		d.Add(StyleBody, "")
		d.Add(StyleBody, text)
	} else {
		d.AppendToLast(" " + text)
	}

	if err := a.store.Save(doc.tmpPath, d); err != nil {
		return AppendResult{Path: doc.path}, fmt.Errorf("save temp document %s: %w", doc.tmpPath, err)
	}
	doc.hasHeadingWritten = true

	result := AppendResult{Path: doc.path, Created: created, HeadingWritten: writeHeading}
	outcome, err := a.store.Replace(doc.tmpPath, doc.path)
	if err != nil {
		doc.pendingTemp = true
		return result, fmt.Errorf("replace document %s: %w", doc.path, err)
	}
	result.Outcome = outcome

	switch outcome {
	case ReplaceApplied:
		doc.pendingTemp = false
		slog.Debug("appended transcript", "path", doc.path, "heading_written", writeHeading, "chars", len(text))
	case ReplaceLocked:
		doc.pendingTemp = true
		slog.Warn("document is locked by another process; transcript kept in temp file", "path", doc.path, "temp_path", doc.tmpPath)
	}
	_, _ = fmt.Fprintln(a.console, text)

	a.openViewerOnce(doc.path)
	return result, nil
}

// Snapshot returns the newest rendered content of the document last
// written to, preferring a temp file that could not be swapped in. Before
// the first append it reports today's document.
func (a *Appender) Snapshot() (string, []byte, error) {
	doc := a.current
	if doc == nil {
		doc = a.resolve(a.now().In(a.loc))
	}
	path := doc.path
	if doc.pendingTemp {
		path = doc.tmpPath
	}
	ok, err := a.store.Exists(path)
	if err != nil {
		return doc.path, nil, err
	}
	if !ok {
		return doc.path, nil, nil
	}
	body, err := a.store.Read(path)
	return doc.path, body, err
}

func (a *Appender) TodayPath() string {
	return a.store.Path(DateKey(a.now().In(a.loc)))
}

func (a *Appender) resolve(now time.Time) *dailyDocument {
	date := DateKey(now)
	if a.current != nil && a.current.date == date {
		return a.current
	}
	if a.current != nil {
		slog.Info("calendar day changed; starting new document", "previous_date", a.current.date, "date", date)
	}
	path := a.store.Path(date)
	a.current = &dailyDocument{
		date:    date,
		path:    path,
		tmpPath: a.store.TempPath(path),
	}
	return a.current
}

func (a *Appender) load(doc *dailyDocument) (*Document, bool, error) {
	if doc.pendingTemp {
		ok, err := a.store.Exists(doc.tmpPath)
		if err != nil {
			return nil, false, fmt.Errorf("stat temp document %s: %w", doc.tmpPath, err)
		}
		if ok {
			d, err := a.store.Load(doc.tmpPath)
			if err != nil {
				return nil, false, fmt.Errorf("load temp document %s: %w", doc.tmpPath, err)
			}
			return d, false, nil
		}
		doc.pendingTemp = false
	}

	ok, err := a.store.Exists(doc.path)
	if err != nil {
		return nil, false, fmt.Errorf("stat document %s: %w", doc.path, err)
	}
	if !ok {
		return New(fmt.Sprintf("%s — %s", a.title, doc.date)), true, nil
	}
	d, err := a.store.Load(doc.path)
	if err != nil {
		return nil, false, fmt.Errorf("load document %s: %w", doc.path, err)
	}
	return d, false, nil
}

func (a *Appender) openViewerOnce(path string) {
	if a.state.viewerOpened || a.viewer == nil {
		return
	}
	a.state.viewerOpened = true
	if err := a.viewer.Open(path); err != nil {
		slog.Warn("failed to open document viewer", "error", err, "path", path)
		return
	}
	slog.Info("opened document viewer", "path", path)
}
