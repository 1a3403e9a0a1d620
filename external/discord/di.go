package discord

import (
	"github.com/foxseedlab/livejournal/internal/config"
	discordpkg "github.com/foxseedlab/livejournal/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*discordpkg.Mirror, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.DiscordToken == "" || c.DiscordChannelID == "" {
			return discordpkg.NewMirror(nil, ""), nil
		}
		client, err := NewClient(c.DiscordToken)
		if err != nil {
			return nil, err
		}
		return discordpkg.NewMirror(client, c.DiscordChannelID), nil
	})
}
