package vad

import (
	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Segmenter, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewSegmenter(c)
	})
}
