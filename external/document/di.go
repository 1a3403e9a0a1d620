package document

import (
	"os"

	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (document.Store, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewMarkdownStore(c.OutputDir)
	})
	do.Provide(injector, func(i do.Injector) (*document.Appender, error) {
		c := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[document.Store](i)
		var viewer document.Viewer
		if c.OpenViewer {
			viewer = NewSystemViewer()
		}
		return document.NewAppender(store, viewer, os.Stdout, &document.State{}, document.AppenderConfig{
			Title:    c.DocumentTitle,
			Location: c.Location(),
		}), nil
	})
}
