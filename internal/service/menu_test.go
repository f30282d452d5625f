package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/errors"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/routes"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/store"
	"github.com/treemenu/treemenu-server/internal/store/badgerdb"
)

type countingRecorder struct {
	menu.NopRecorder
	mu       sync.Mutex
	rejected map[string]int
	renders  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: map[string]int{}, renders: map[string]int{}}
}

func (r *countingRecorder) ValidationRejected(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[field]++
}

func (r *countingRecorder) MenuRendered(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders[name]++
}

type testEnv struct {
	svc      *MenuService
	store    store.Store
	index    *search.SearchIndex
	recorder *countingRecorder
}

func setupTestMenuService(t *testing.T) *testEnv {
	t.Helper()

	rec := newCountingRecorder()
	st, err := badgerdb.OpenInMemory(nil, menu.NewGuard(nil, rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	svc := NewMenuService(st, routes.NewDefaultRegistry(), index, rec, nil)
	return &testEnv{svc: svc, store: st, index: index, recorder: rec}
}

func ptr[T any](v T) *T { return &v }

func TestCreateItem_NormalizesInput(t *testing.T) {
	env := setupTestMenuService(t)

	item, err := env.svc.CreateItem(context.Background(), CreateItemRequest{
		Name:     "  Café  Menu ",
		MenuName: " main_menu ",
		URL:      " /cafe/ ",
	})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, "Café  Menu", item.Name, "inner spacing is kept")
	assert.Equal(t, "main_menu", item.MenuName)
	assert.Equal(t, "/cafe/", item.URL)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestCreateItem_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateItemRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank name",
			req:       CreateItemRequest{Name: "   ", MenuName: "main_menu"},
			wantField: "name",
		},
		{
			name:      "blank menu name uses guard message",
			req:       CreateItemRequest{Name: "Home", MenuName: "  "},
			wantField: "menu_name",
			wantMsg:   menu.MsgEmptyMenuName,
		},
		{
			name:      "missing parent",
			req:       CreateItemRequest{Name: "Home", MenuName: "main_menu", ParentID: ptr(int64(404))},
			wantField: "parent",
			wantMsg:   "Parent item 404 does not exist.",
		},
		{
			name:      "url too long",
			req:       CreateItemRequest{Name: "Home", MenuName: "main_menu", URL: "/" + strings.Repeat("a", 2048)},
			wantField: "url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestMenuService(t)

			_, err := env.svc.CreateItem(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)

			field, ok := errors.FieldOf(err)
			require.True(t, ok, "expected a single-field error, got %v", err)
			assert.Equal(t, tt.wantField, field)
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
			assert.Equal(t, 1, env.recorder.rejected[tt.wantField])
		})
	}
}

func TestCreateItem_AcceptsAnyOrderAndPlainURL(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	first, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "Zeta", MenuName: "footer", Order: 0, URL: "/zeta/"})
	require.NoError(t, err)
	pinned, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "Pinned", MenuName: "footer", Order: -5, URL: "about/"})
	require.NoError(t, err)
	mail, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "Mail", MenuName: "footer", Order: 3, URL: "mailto:team@example.com"})
	require.NoError(t, err)

	assert.Equal(t, -5, pinned.Order)
	assert.Equal(t, "about/", pinned.URL)

	result, err := env.svc.DrawMenu(menu.WithRequestPath(ctx, "about/"), "footer")
	require.NoError(t, err)

	var got []int64
	for _, n := range result.Nodes {
		got = append(got, n.ID)
	}
	assert.Equal(t, []int64{pinned.ID, first.ID, mail.ID}, got, "negative order sorts first")
	require.NotNil(t, result.ActiveItemID)
	assert.Equal(t, pinned.ID, *result.ActiveItemID)
	assert.Equal(t, "mailto:team@example.com", result.Nodes[2].ResolvedURL)

	updated, err := env.svc.UpdateItem(ctx, first.ID, UpdateItemRequest{Order: ptr(-10), URL: ptr("zeta")})
	require.NoError(t, err)
	assert.Equal(t, -10, updated.Order)
	assert.Equal(t, "zeta", updated.URL)
}

func TestUpdateItem_Partial(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	parent, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "Services", MenuName: "main_menu"})
	require.NoError(t, err)
	child, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "Web", MenuName: "main_menu", URL: "/web/", Order: 2})
	require.NoError(t, err)

	updated, err := env.svc.UpdateItem(ctx, child.ID, UpdateItemRequest{ParentID: ptr(parent.ID), Name: ptr("Web Development")})
	require.NoError(t, err)
	assert.Equal(t, "Web Development", updated.Name)
	assert.True(t, updated.HasParent(parent.ID))
	assert.Equal(t, "/web/", updated.URL, "untouched fields keep their value")
	assert.Equal(t, 2, updated.Order)

	cleared, err := env.svc.UpdateItem(ctx, child.ID, UpdateItemRequest{ClearParent: true})
	require.NoError(t, err)
	assert.True(t, cleared.IsRoot())

	stored, err := env.svc.GetItem(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRoot())
}

func TestUpdateItem_GuardErrors(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	a, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "A", MenuName: "m"})
	require.NoError(t, err)
	b, err := env.svc.CreateItem(ctx, CreateItemRequest{Name: "B", MenuName: "m", ParentID: ptr(a.ID)})
	require.NoError(t, err)

	_, err = env.svc.UpdateItem(ctx, a.ID, UpdateItemRequest{ParentID: ptr(a.ID)})
	assert.EqualError(t, err, menu.MsgSelfParent)

	_, err = env.svc.UpdateItem(ctx, a.ID, UpdateItemRequest{ParentID: ptr(b.ID)})
	assert.EqualError(t, err, menu.MsgCircular)

	_, err = env.svc.UpdateItem(ctx, a.ID, UpdateItemRequest{ParentID: ptr(b.ID), ClearParent: true})
	assert.ErrorIs(t, err, errors.ErrValidation)

	assert.Equal(t, 3, env.recorder.rejected["parent"])

	stored, err := env.svc.GetItem(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRoot(), "rejected updates must not be saved")
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	_, err := env.svc.GetItem(ctx, 42)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = env.svc.UpdateItem(ctx, 42, UpdateItemRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = env.svc.DeleteItem(ctx, 42)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDeleteItem_CascadesAndUnindexes(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	ids, err := env.svc.ImportItems(ctx, DemoFixture())
	require.NoError(t, err)

	removed, err := env.svc.DeleteItem(ctx, ids["services"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids["services"], ids["web"], ids["mobile"]}, removed)

	res, err := env.svc.SearchItems(ctx, search.Params{Query: "web"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestListItemViews(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	_, err := env.svc.ImportItems(ctx, DemoFixture())
	require.NoError(t, err)

	views, err := env.svc.ListItemViews(ctx, "sidebar_menu")
	require.NoError(t, err)

	byName := map[string]ItemView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, "/settings/account/", byName["Account"].ResolvedURL)
	assert.Equal(t, "/settings/privacy/", byName["Privacy"].ResolvedURL, "unknown route falls back to url")
	assert.Equal(t, "#", byName["Help"].ResolvedURL)
	assert.Equal(t, "-", byName["Help"].DisplayURL)
}

func TestDrawMenu(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	ids, err := env.svc.ImportItems(ctx, DemoFixture())
	require.NoError(t, err)

	result, err := env.svc.DrawMenu(menu.WithRequestPath(ctx, "/services/web/"), " main_menu")
	require.NoError(t, err)

	assert.Equal(t, "main_menu", result.MenuName)
	require.NotNil(t, result.ActiveItemID)
	assert.Equal(t, ids["web"], *result.ActiveItemID)
	assert.Equal(t, sortedPair(ids["services"], ids["web"]), result.ExpandedIDs.Sorted())
	assert.True(t, result.IsExpanded(ids["services"]))
	assert.False(t, result.IsExpanded(ids["about"]))

	var rootNames []string
	for _, n := range result.Nodes {
		rootNames = append(rootNames, n.Name)
	}
	assert.Equal(t, []string{"Home", "About", "Services", "Contact", "Documentation"}, rootNames)
	assert.Equal(t, 1, env.recorder.renders["main_menu"])

	empty, err := env.svc.DrawMenu(ctx, "main_menu")
	require.NoError(t, err)
	assert.Empty(t, empty.Nodes, "no request path renders nothing")
}

func sortedPair(a, b int64) []int64 {
	if a > b {
		a, b = b, a
	}
	return []int64{a, b}
}

func TestSearchItems(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	ids, err := env.svc.ImportItems(ctx, DemoFixture())
	require.NoError(t, err)

	res, err := env.svc.SearchItems(ctx, search.Params{Query: "account", MenuName: "sidebar_menu"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, ids["account"], res.Hits[0].ItemID)

	noSearch := NewMenuService(env.store, nil, nil, nil, nil)
	_, err = noSearch.SearchItems(ctx, search.Params{Query: "x"})
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestListMenus(t *testing.T) {
	ctx := context.Background()
	env := setupTestMenuService(t)

	_, err := env.svc.ImportItems(ctx, DemoFixture())
	require.NoError(t, err)

	menus, err := env.svc.ListMenus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.MenuSummary{
		{Name: "main_menu", ItemCount: 7},
		{Name: "sidebar_menu", ItemCount: 5},
	}, menus)
}

func TestImportItems_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fixture *Fixture
		wantErr string
	}{
		{"missing key", &Fixture{Items: []FixtureItem{{Name: "A", MenuName: "m"}}}, "has no key"},
		{"duplicate key", &Fixture{Items: []FixtureItem{
			{Key: "a", Name: "A", MenuName: "m"},
			{Key: "a", Name: "B", MenuName: "m"},
		}}, "used twice"},
		{"forward parent", &Fixture{Items: []FixtureItem{
			{Key: "a", Name: "A", MenuName: "m", ParentKey: "b"},
			{Key: "b", Name: "B", MenuName: "m"},
		}}, "not defined before it"},
		{"invalid item", &Fixture{Items: []FixtureItem{{Key: "a", Name: "", MenuName: "m"}}}, `fixture item "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestMenuService(t)
			_, err := env.svc.ImportItems(ctx, tt.fixture)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
items:
  - key: home
    name: Home
    menu_name: main_menu
    named_url: treemenu_home
  - key: team
    name: Team
    menu_name: main_menu
    parent: home
    url: /team/
    order: 1
`), 0o600))

	tomlPath := filepath.Join(dir, "menu.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[[items]]
key = "home"
name = "Home"
menu_name = "main_menu"
named_url = "treemenu_home"

[[items]]
key = "team"
name = "Team"
menu_name = "main_menu"
parent = "home"
url = "/team/"
order = 1
`), 0o600))

	for _, path := range []string{yamlPath, tomlPath} {
		f, err := LoadFixture(path)
		require.NoError(t, err, path)
		require.Len(t, f.Items, 2)
		assert.Equal(t, FixtureItem{Key: "team", Name: "Team", MenuName: "main_menu", ParentKey: "home", URL: "/team/", Order: 1}, f.Items[1])
	}

	_, err := LoadFixture(filepath.Join(dir, "menu.json"))
	assert.Error(t, err)
}
