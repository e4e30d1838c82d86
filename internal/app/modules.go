package app

import (
	"os"

	"github.com/specialistvlad/meshboot/internal/registry"
	"github.com/specialistvlad/meshboot/modules/chatclient"
	"github.com/specialistvlad/meshboot/modules/forwarder"
	"github.com/specialistvlad/meshboot/modules/servers"
	"github.com/specialistvlad/meshboot/modules/webclient"
)

// coreModules is the definitive list of node behaviours compiled into the
// meshboot binary. The web client registers before the chat client, so even
// client ids browse and odd ones chat.
func coreModules(cfg *Config) []registry.Module {
	content := servers.DefaultContent
	if cfg.ContentDir != "" {
		content = os.DirFS(cfg.ContentDir)
	}
	return []registry.Module{
		&forwarder.Module{Seed: cfg.Seed, Delay: cfg.RelayDelay},
		&webclient.Module{},
		&chatclient.Module{},
		&servers.Module{Content: content},
	}
}
