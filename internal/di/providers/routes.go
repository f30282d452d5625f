package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/routes"
)

// RoutesHandle wraps the route registry and its optional file watcher.
type RoutesHandle struct {
	*routes.Registry
	watcher *routes.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RoutesHandle) Shutdown() error {
	if h.watcher == nil {
		return nil
	}
	h.cancel()
	return h.watcher.Stop()
}

// ProvideRoutes provides the named route registry.
// Routes from cfg.Routes.File are merged over the built-in defaults.
func ProvideRoutes(i do.Injector) (*RoutesHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	registry := routes.NewDefaultRegistry()
	if cfg.Routes.File == "" {
		log.Info("Using built-in routes", "count", registry.Len())
		return &RoutesHandle{Registry: registry}, nil
	}

	if !cfg.Routes.Watch {
		fileRoutes, err := routes.LoadFile(cfg.Routes.File)
		if err != nil {
			return nil, err
		}
		registry.Replace(routes.Merge(routes.Defaults, fileRoutes))
		log.Info("Routes loaded", "path", cfg.Routes.File, "count", registry.Len())
		return &RoutesHandle{Registry: registry}, nil
	}

	w, err := routes.NewWatcher(cfg.Routes.File, routes.Defaults, registry, log.WithComponent("routes").Logger, routes.WatcherOptions{})
	if err != nil {
		return nil, err
	}
	if err := w.Reload(); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	log.Info("Route file watcher started", "path", cfg.Routes.File)

	return &RoutesHandle{Registry: registry, watcher: w, cancel: cancel}, nil
}
