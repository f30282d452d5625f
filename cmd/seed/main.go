// Package main seeds a data directory with menu items.
//
// Without -file it loads the demo main_menu and sidebar_menu. A fixture file
// lists items by key, with parents referenced by the key of an earlier item:
//
//	[[items]]
//	key = "services"
//	name = "Services"
//	menu_name = "main_menu"
//	named_url = "treemenu_services"
//
//	[[items]]
//	key = "web"
//	name = "Web Development"
//	menu_name = "main_menu"
//	parent = "services"
//	named_url = "treemenu_services_web"
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -file menus.yaml -- -store badger -data-path /srv/treemenu
//
// Arguments after -- are server configuration flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/di/providers"
	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/routes"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/service"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "TOML or YAML fixture (default: built-in demo menus)")
	force := fs.Bool("force", false, "seed even when items already exist")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		Writer:      os.Stderr,
	})

	if err := run(context.Background(), cfg, log, *file, *force); err != nil {
		log.Fatal("Seed failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, file string, force bool) error {
	fixture := service.DemoFixture()
	if file != "" {
		loaded, err := service.LoadFixture(file)
		if err != nil {
			return err
		}
		fixture = loaded
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return fmt.Errorf("create data path: %w", err)
	}

	st, path, err := providers.OpenStore(cfg, log, menu.NewGuard(log.Logger, nil))
	if err != nil {
		return err
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.Storage.DataPath, Logger: log.Logger})
	if err != nil {
		return err
	}
	defer index.Close()
	st.SetSearchIndexer(index)

	menus, err := st.ListMenus(ctx)
	if err != nil {
		return err
	}
	if len(menus) > 0 && !force {
		log.Warn("Store already has menus, skipping (use -force to seed anyway)", "path", path, "menus", len(menus))
		return nil
	}

	svc := service.NewMenuService(st, routes.NewDefaultRegistry(), index, nil, log.Logger)
	ids, err := svc.ImportItems(ctx, fixture)
	if err != nil {
		return err
	}

	source := "demo"
	if file != "" {
		source = filepath.Base(file)
	}
	log.Info("Seeded menu items", "source", source, "items", len(ids), "path", path)
	return nil
}
