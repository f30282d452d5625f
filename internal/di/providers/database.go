package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/metrics"
	"github.com/treemenu/treemenu-server/internal/store"
	"github.com/treemenu/treemenu-server/internal/store/badgerdb"
	"github.com/treemenu/treemenu-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	st, path, err := OpenStore(cfg, log, menu.NewGuard(log.Logger, m))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", path)

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the backend selected by cfg under the data path.
// It is shared with the command line tools.
func OpenStore(cfg *config.Config, log *logger.Logger, guard *menu.Guard) (store.Store, string, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		dir := filepath.Join(cfg.Storage.DataPath, "badger")
		st, err := badgerdb.Open(dir, log.Logger, guard)
		return st, dir, err
	case config.BackendSQLite:
		path := filepath.Join(cfg.Storage.DataPath, "treemenu.db")
		st, err := sqlite.Open(path, log.Logger, guard)
		return st, path, err
	default:
		return nil, "", fmt.Errorf("unknown store backend %q", cfg.Storage.Backend)
	}
}
