package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/di/providers"
	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/routes"
	"github.com/treemenu/treemenu-server/internal/service"
	"github.com/treemenu/treemenu-server/internal/store"
)

// loadConfig builds the server configuration from the global flags.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	args := []string{"-env-file", f.envFile}
	if f.dataPath != "" {
		args = append(args, "-data-path", f.dataPath)
	}
	if f.backend != "" {
		args = append(args, "-store", f.backend)
	}
	if f.routesFile != "" {
		args = append(args, "-routes-file", f.routesFile)
	}
	return config.Load(args)
}

// registry returns the named routes, merged with the routes file when one is configured.
func registry(cfg *config.Config) (*routes.Registry, error) {
	reg := routes.NewDefaultRegistry()
	if cfg.Routes.File == "" {
		return reg, nil
	}
	fileRoutes, err := routes.LoadFile(cfg.Routes.File)
	if err != nil {
		return nil, err
	}
	reg.Replace(routes.Merge(routes.Defaults, fileRoutes))
	return reg, nil
}

// env is an opened data directory.
type env struct {
	cfg    *config.Config
	store  store.Store
	routes *routes.Registry
	menus  *service.MenuService
}

func (e *env) Close() error {
	return e.store.Close()
}

// openEnv opens the store and builds a menu service without search.
func openEnv(ctx context.Context, flags *globalFlags) (*env, error) {
	clog := loggerFromContext(ctx)

	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}

	reg, err := registry(cfg)
	if err != nil {
		return nil, err
	}

	log := &logger.Logger{Logger: slog.New(clog)}
	st, path, err := providers.OpenStore(cfg, log, menu.NewGuard(log.Logger, nil))
	if err != nil {
		return nil, err
	}
	clog.Debug("opened store", "backend", cfg.Storage.Backend, "path", path)

	return &env{
		cfg:    cfg,
		store:  st,
		routes: reg,
		menus:  service.NewMenuService(st, reg, nil, nil, log.Logger),
	}, nil
}

// errIntegrity is returned by check when problems were found, for a non-zero exit.
var errIntegrity = errors.New("integrity check failed")
