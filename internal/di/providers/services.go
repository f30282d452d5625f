package providers

import (
	"github.com/samber/do/v2"

	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/metrics"
	"github.com/treemenu/treemenu-server/internal/service"
)

// ProvideMenuService provides the menu service.
func ProvideMenuService(i do.Injector) (*service.MenuService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	routesHandle := do.MustInvoke[*RoutesHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMenuService(storeHandle.Store, routesHandle.Registry, indexHandle.SearchIndex, m, log.Logger), nil
}
