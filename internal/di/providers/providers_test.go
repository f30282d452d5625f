package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treemenu/treemenu-server/internal/auth"
	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/logger"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/service"
)

func testInjector(t *testing.T, cfg *config.Config) *do.RootScope {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger.Discard())
	do.Provide(injector, ProvideMetrics)
	do.Provide(injector, ProvideAuthKey)
	do.Provide(injector, ProvideStore)
	do.Provide(injector, ProvideSearchIndex)
	do.Provide(injector, ProvideRoutes)
	do.Provide(injector, ProvideTokenService)
	do.Provide(injector, ProvideMenuService)

	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "info"},
		Storage: config.StorageConfig{DataPath: t.TempDir(), Backend: backend},
		Auth:    config.AuthConfig{AdminTokenDuration: time.Hour},
	}
}

func TestProvideMenuService_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			injector := testInjector(t, testConfig(t, backend))
			ctx := context.Background()

			menus := do.MustInvoke[*service.MenuService](injector)
			item, err := menus.CreateItem(ctx, service.CreateItemRequest{Name: "Home", MenuName: "main_menu", NamedURL: "treemenu_home"})
			require.NoError(t, err)
			assert.NotZero(t, item.ID)

			// The store indexes writes into the shared search index.
			index := do.MustInvoke[*SearchIndexHandle](injector)
			result, err := index.Search(ctx, search.Params{Query: "home"})
			require.NoError(t, err)
			require.Len(t, result.Hits, 1)
			assert.Equal(t, item.ID, result.Hits[0].ItemID)
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "postgres")
	_, _, err := OpenStore(cfg, logger.Discard(), nil)
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestProvideAuthKey_SharedWithTokens(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	injector := testInjector(t, cfg)

	tokens := do.MustInvoke[*auth.TokenService](injector)
	token, _, err := tokens.IssueAdminToken("ops")
	require.NoError(t, err)

	// A second service built from the persisted key accepts the token.
	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	require.NoError(t, err)
	assert.Equal(t, key, cfg.Auth.TokenKey)

	other, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)
	claims, err := other.VerifyAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestProvideRoutes_File(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	cfg.Routes.File = filepath.Join(cfg.Storage.DataPath, "routes.toml")
	require.NoError(t, os.WriteFile(cfg.Routes.File, []byte("[routes]\ntreemenu_pricing = \"/pricing/\"\n"), 0o600))

	for _, watch := range []bool{false, true} {
		cfg.Routes.Watch = watch
		injector := testInjector(t, cfg)

		handle := do.MustInvoke[*RoutesHandle](injector)
		path, err := handle.Reverse("treemenu_pricing")
		require.NoError(t, err)
		assert.Equal(t, "/pricing/", path)

		path, err = handle.Reverse("treemenu_home")
		require.NoError(t, err)
		assert.Equal(t, "/", path, "defaults stay available")
	}
}

func TestTriggerSearchReindexIfNeeded(t *testing.T) {
	cfg := testConfig(t, config.BackendBadger)
	injector := testInjector(t, cfg)
	ctx := context.Background()

	menus := do.MustInvoke[*service.MenuService](injector)
	_, err := menus.ImportItems(ctx, service.DemoFixture())
	require.NoError(t, err)

	index := do.MustInvoke[*SearchIndexHandle](injector)
	require.NoError(t, index.Rebuild(ctx, nil))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	TriggerSearchReindexIfNeeded(injector)

	assert.Eventually(t, func() bool {
		count, err := index.DocumentCount()
		return err == nil && count == 12
	}, 5*time.Second, 20*time.Millisecond)
}
