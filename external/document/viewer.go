package document

import (
	"io"

	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/pkg/browser"
)

// SystemViewer opens files with the desktop's default application.
type SystemViewer struct{}

func NewSystemViewer() document.Viewer {
	// stdout carries the live transcript
	browser.Stdout = io.Discard
	return &SystemViewer{}
}

func (v *SystemViewer) Open(path string) error {
	return browser.OpenFile(path)
}
