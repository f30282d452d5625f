package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treemenu/treemenu-server/internal/auth"
	"github.com/treemenu/treemenu-server/internal/config"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/metrics"
	"github.com/treemenu/treemenu-server/internal/routes"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/service"
	"github.com/treemenu/treemenu-server/internal/store/badgerdb"
)

type testServer struct {
	*Server
	api     humatest.TestAPI
	menus   *service.MenuService
	metrics *metrics.Metrics
	ids     map[string]int64
	token   string
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Environment: "development"},
		Server:    config.ServerConfig{CORSOrigins: []string{"https://admin.example"}},
		RateLimit: config.RateLimitConfig{WriteRPS: 100, WriteBurst: 100},
	}
}

// setupTestServer creates a server backed by in-memory storage, seeded with the demo menus.
func setupTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), false)

	st, err := badgerdb.OpenInMemory(logger, menu.NewGuard(logger, m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	registry := routes.NewDefaultRegistry()
	menus := service.NewMenuService(st, registry, index, m, logger)

	ids, err := menus.ImportItems(context.Background(), service.DemoFixture())
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.IssueAdminToken("tester")
	require.NoError(t, err)

	s := NewServer(cfg, &Services{
		Menu:    menus,
		Search:  index,
		Routes:  registry,
		Tokens:  tokens,
		Metrics: m,
	}, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		menus:   menus,
		metrics: m,
		ids:     ids,
		token:   token,
	}
}

func (ts *testServer) authHeader() string {
	return "Authorization: Bearer " + ts.token
}

// envelope is the decoded response wrapper.
type envelope struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func decode(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func decodeData[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	env := decode(t, body)
	require.True(t, env.Success, "expected success envelope, got code=%s message=%s", env.Code, env.Message)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp.Body)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "12 documents indexed", health.Components["search"].Message)
	assert.Equal(t, "healthy", health.Components["routes"].Status)
}

func TestHealthCheck_SearchDegraded(t *testing.T) {
	ts := setupTestServer(t, testConfig())
	ts.services.Search = nil

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp.Body)
	assert.Equal(t, "degraded", health.Status)
}

func TestListMenus(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[struct {
		Menus []MenuSummaryResponse `json:"menus"`
	}](t, resp.Body)
	assert.Equal(t, []MenuSummaryResponse{
		{Name: "main_menu", ItemCount: 7},
		{Name: "sidebar_menu", ItemCount: 5},
	}, out.Menus)
}

func TestRenderMenu_ActiveItem(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/main_menu/render?path=/services/web/")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[RenderResponse](t, resp.Body)
	assert.Equal(t, "main_menu", out.MenuName)
	require.NotNil(t, out.ActiveItemID)
	assert.Equal(t, ts.ids["web"], *out.ActiveItemID)
	assert.ElementsMatch(t, []int64{ts.ids["services"], ts.ids["web"]}, out.ExpandedIDs)

	names := make([]string, 0, len(out.MenuNodes))
	for _, n := range out.MenuNodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Home", "About", "Services", "Contact", "Documentation"}, names)

	services := out.MenuNodes[2]
	assert.True(t, services.Expanded)
	assert.False(t, services.Active)
	require.Len(t, services.Children, 2)
	assert.Equal(t, "/services/web/", services.Children[0].ResolvedURL)
	assert.True(t, services.Children[0].Active)
	assert.Equal(t, "https://example.com/docs", out.MenuNodes[4].ResolvedURL)
}

func TestRenderMenu_NoMatch(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/main_menu/render?path=/nowhere/")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[RenderResponse](t, resp.Body)
	assert.Nil(t, out.ActiveItemID)
	assert.Empty(t, out.ExpandedIDs)
	assert.Len(t, out.MenuNodes, 5)
}

func TestRenderMenu_WithoutPath(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/main_menu/render")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[RenderResponse](t, resp.Body)
	assert.Equal(t, "main_menu", out.MenuName)
	assert.Empty(t, out.MenuNodes)
	assert.Nil(t, out.ActiveItemID)
}

func TestRenderMenu_UnknownMenu(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/footer_menu/render?path=/")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[RenderResponse](t, resp.Body)
	assert.Empty(t, out.MenuNodes)
}

func TestListMenuItems_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/sidebar_menu/items")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	env := decode(t, resp.Body)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestListMenuItems_DisplayURL(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/menus/sidebar_menu/items", ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[struct {
		Items []ItemResponse `json:"items"`
	}](t, resp.Body)
	require.Len(t, out.Items, 5)

	byName := make(map[string]ItemResponse, len(out.Items))
	for _, item := range out.Items {
		byName[item.Name] = item
	}
	assert.Equal(t, "-", byName["Help"].DisplayURL)
	assert.Equal(t, "#", byName["Help"].ResolvedURL)
	assert.Equal(t, "/settings/privacy/", byName["Privacy"].ResolvedURL)
	assert.Equal(t, "/profile/", byName["Profile"].DisplayURL)
}

func TestItemCRUD(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	// Create.
	resp := ts.api.Post("/api/v1/items", ts.authHeader(), map[string]any{
		"name":      "Pricing",
		"menu_name": "main_menu",
		"parent_id": ts.ids["services"],
		"url":       "/services/pricing/",
		"order":     2,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	created := decodeData[ItemResponse](t, resp.Body)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Pricing", created.Name)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, ts.ids["services"], *created.ParentID)

	// Get.
	resp = ts.api.Get(fmt.Sprintf("/api/v1/items/%d", created.ID), ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Pricing", decodeData[ItemResponse](t, resp.Body).Name)

	// Update.
	resp = ts.api.Patch(fmt.Sprintf("/api/v1/items/%d", created.ID), ts.authHeader(), map[string]any{
		"name":         "Plans",
		"clear_parent": true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decodeData[ItemResponse](t, resp.Body)
	assert.Equal(t, "Plans", updated.Name)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "/services/pricing/", updated.URL)

	// Delete the services subtree.
	resp = ts.api.Delete(fmt.Sprintf("/api/v1/items/%d", ts.ids["services"]), ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code)
	removed := decodeData[struct {
		Removed []int64 `json:"removed"`
	}](t, resp.Body)
	assert.ElementsMatch(t, []int64{ts.ids["services"], ts.ids["web"], ts.ids["mobile"]}, removed.Removed)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/items/%d", ts.ids["web"]), ts.authHeader())
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, resp.Body).Code)
}

func TestCreateItem_Validation(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"blank name", map[string]any{"name": "  ", "menu_name": "main_menu"}, "name"},
		{"blank menu name", map[string]any{"name": "Orphan", "menu_name": " "}, "menu_name"},
		{"missing parent", map[string]any{"name": "Orphan", "menu_name": "main_menu", "parent_id": 9999}, "parent"},
		{"url too long", map[string]any{"name": "Long", "menu_name": "main_menu", "url": "/" + strings.Repeat("a", 2048)}, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/items", ts.authHeader(), tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			env := decode(t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, "VALIDATION", env.Code)
			assert.Contains(t, env.Details, tt.field)
		})
	}
}

func TestUpdateItem_RejectsCycle(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Patch(fmt.Sprintf("/api/v1/items/%d", ts.ids["services"]), ts.authHeader(), map[string]any{
		"parent_id": ts.ids["web"],
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode(t, resp.Body)
	assert.Equal(t, menu.MsgCircular, env.Details["parent"])

	resp = ts.api.Patch(fmt.Sprintf("/api/v1/items/%d", ts.ids["services"]), ts.authHeader(), map[string]any{
		"parent_id": ts.ids["services"],
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, menu.MsgSelfParent, decode(t, resp.Body).Details["parent"])
}

func TestWrites_RequireAdmin(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Post("/api/v1/items", map[string]any{"name": "X", "menu_name": "main_menu"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Delete(fmt.Sprintf("/api/v1/items/%d", ts.ids["home"]), "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/menus")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSearchItems(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/items/search?q=mobile", ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[SearchItemsResponse](t, resp.Body)
	require.NotEmpty(t, out.Hits)
	assert.Equal(t, ts.ids["mobile"], out.Hits[0].ItemID)

	resp = ts.api.Get("/api/v1/items/search?menu=sidebar_menu", ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code)
	out = decodeData[SearchItemsResponse](t, resp.Body)
	assert.Equal(t, uint64(5), out.Total)
	for _, hit := range out.Hits {
		assert.Equal(t, "sidebar_menu", hit.MenuName)
	}
}

func TestListRoutes(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/routes")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[struct {
		Routes []routes.Route `json:"routes"`
	}](t, resp.Body)
	assert.Len(t, out.Routes, len(routes.Defaults))
	assert.Equal(t, "treemenu_about", out.Routes[0].Name)
}

func TestCheckIntegrity(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	resp := ts.api.Get("/api/v1/admin/integrity", ts.authHeader())
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeData[IntegrityResponse](t, resp.Body)
	assert.True(t, out.OK)
	assert.Empty(t, out.Loops)
	require.Len(t, out.Menus, 2)
	assert.Equal(t, "main_menu", out.Menus[0].MenuName)
}

func TestWriteRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{WriteRPS: 0.001, WriteBurst: 2}
	ts := setupTestServer(t, cfg)

	body := map[string]any{"name": "Extra", "menu_name": "footer_menu"}
	for range 2 {
		resp := ts.api.Post("/api/v1/items", ts.authHeader(), body)
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := ts.api.Post("/api/v1/items", ts.authHeader(), body)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, resp.Body).Code)

	// Reads are not throttled.
	resp = ts.api.Get("/api/v1/menus/footer_menu/items", ts.authHeader())
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMiddleware_HTTP(t *testing.T) {
	ts := setupTestServer(t, testConfig())

	t.Run("request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req-"))

		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "client-supplied")
		ts.ServeHTTP(rec, req)
		assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
	})

	t.Run("cors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/menus", nil)
		req.Header.Set("Origin", "https://admin.example")
		ts.ServeHTTP(rec, req)
		assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/v1/menus", nil)
		req.Header.Set("Origin", "https://evil.example")
		ts.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/menus/main_menu/render?path=/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `treemenu_renders_total{menu="main_menu"} 1`)
		assert.Contains(t, body, "treemenu_http_requests_total")
	})
}
