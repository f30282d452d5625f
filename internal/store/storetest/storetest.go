// Package storetest holds behavior tests shared by every store backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/errors"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/store"
)

// Harness adapts a backend to the shared tests.
type Harness struct {
	// New opens an empty store, closed by t.Cleanup.
	New func(t *testing.T) store.Store
	// ForceParent rewrites a parent link without validation, simulating
	// data corrupted before the guard existed.
	ForceParent func(t *testing.T, s store.Store, id int64, parent *int64)
}

// Run executes the shared store behavior tests.
func Run(t *testing.T, h Harness) {
	t.Run("CreateAssignsID", func(t *testing.T) { testCreateAssignsID(t, h) })
	t.Run("GetNotFound", func(t *testing.T) { testGetNotFound(t, h) })
	t.Run("ListItemsRenderOrder", func(t *testing.T) { testListItemsRenderOrder(t, h) })
	t.Run("ListItemsFiltersMenu", func(t *testing.T) { testListItemsFiltersMenu(t, h) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, h) })
	t.Run("UpdateNotFound", func(t *testing.T) { testUpdateNotFound(t, h) })
	t.Run("GuardOnCreate", func(t *testing.T) { testGuardOnCreate(t, h) })
	t.Run("GuardOnUpdate", func(t *testing.T) { testGuardOnUpdate(t, h) })
	t.Run("PreExistingLoopDoesNotBlock", func(t *testing.T) { testPreExistingLoop(t, h) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, h) })
	t.Run("DeleteNotFound", func(t *testing.T) { testDeleteNotFound(t, h) })
	t.Run("ListMenus", func(t *testing.T) { testListMenus(t, h) })
	t.Run("ListAllItems", func(t *testing.T) { testListAllItems(t, h) })
	t.Run("SearchIndexerHooks", func(t *testing.T) { testSearchIndexerHooks(t, h) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, h.New(t).Ping(context.Background())) })
}

// NewItem builds an unsaved item in menuName.
func NewItem(menuName, name string, order int, url string, parent *int64) *domain.MenuItem {
	return &domain.MenuItem{
		Name:     name,
		MenuName: menuName,
		Order:    order,
		URL:      url,
		ParentID: parent,
	}
}

func mustCreate(t *testing.T, s store.Store, item *domain.MenuItem) *domain.MenuItem {
	t.Helper()
	require.NoError(t, s.CreateItem(context.Background(), item))
	require.NotZero(t, item.ID)
	return item
}

func names(items []*domain.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	got, ok := errors.FieldOf(err)
	require.True(t, ok, "expected field error, got %v", err)
	assert.Equal(t, field, got)
}

func testCreateAssignsID(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	home := mustCreate(t, s, NewItem("main_menu", "Home", 0, "/", nil))
	about := NewItem("main_menu", "About", 0, "", &home.ID)
	about.NamedURL = "treemenu_about"
	mustCreate(t, s, about)

	assert.NotEqual(t, home.ID, about.ID)
	assert.False(t, home.CreatedAt.IsZero())

	got, err := s.GetItem(ctx, about.ID)
	require.NoError(t, err)
	assert.Equal(t, "About", got.Name)
	assert.Equal(t, "main_menu", got.MenuName)
	assert.Equal(t, "treemenu_about", got.NamedURL)
	assert.Empty(t, got.URL)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, home.ID, *got.ParentID)
	assert.WithinDuration(t, about.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testGetNotFound(t *testing.T, h Harness) {
	s := h.New(t)
	_, err := s.GetItem(context.Background(), 12345)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListItemsRenderOrder(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	b := mustCreate(t, s, NewItem("main_menu", "B Root", 1, "", nil))
	a := mustCreate(t, s, NewItem("main_menu", "A Root", 1, "", nil))
	mustCreate(t, s, NewItem("main_menu", "Z First", 0, "", nil))
	mustCreate(t, s, NewItem("main_menu", "Under A 2", 2, "", &a.ID))
	mustCreate(t, s, NewItem("main_menu", "Under B", 0, "", &b.ID))
	mustCreate(t, s, NewItem("main_menu", "Under A 1", 0, "", &a.ID))

	items, err := s.ListItems(ctx, "main_menu")
	require.NoError(t, err)

	// Roots first, then children grouped by parent id (b was created before a).
	assert.Equal(t, []string{"Z First", "A Root", "B Root", "Under B", "Under A 1", "Under A 2"}, names(items))
}

func testListItemsFiltersMenu(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	mustCreate(t, s, NewItem("main_menu", "Home", 0, "/", nil))
	mustCreate(t, s, NewItem("sidebar_menu", "Profile", 0, "/profile/", nil))

	items, err := s.ListItems(ctx, "sidebar_menu")
	require.NoError(t, err)
	assert.Equal(t, []string{"Profile"}, names(items))

	items, err = s.ListItems(ctx, "missing_menu")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testUpdate(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	home := mustCreate(t, s, NewItem("main_menu", "Home", 0, "/", nil))
	about := mustCreate(t, s, NewItem("main_menu", "About", 0, "/about/", nil))
	created := about.CreatedAt

	about.Name = "About Us"
	about.ParentID = &home.ID
	about.Order = 3
	require.NoError(t, s.UpdateItem(ctx, about))

	got, err := s.GetItem(ctx, about.ID)
	require.NoError(t, err)
	assert.Equal(t, "About Us", got.Name)
	assert.Equal(t, 3, got.Order)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, home.ID, *got.ParentID)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	// Moving back to root clears the parent.
	got.ParentID = nil
	require.NoError(t, s.UpdateItem(ctx, got))
	again, err := s.GetItem(ctx, about.ID)
	require.NoError(t, err)
	assert.Nil(t, again.ParentID)
}

func testUpdateNotFound(t *testing.T, h Harness) {
	s := h.New(t)
	err := s.UpdateItem(context.Background(), &domain.MenuItem{ID: 999, Name: "Ghost", MenuName: "main_menu"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGuardOnCreate(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	err := s.CreateItem(ctx, NewItem("   ", "Home", 0, "/", nil))
	requireField(t, err, "menu_name")

	missing := int64(4242)
	err = s.CreateItem(ctx, NewItem("main_menu", "Orphan", 0, "", &missing))
	requireField(t, err, "parent")

	items, err := s.ListAllItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "rejected items are not persisted")
}

func testGuardOnUpdate(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	a := mustCreate(t, s, NewItem("main_menu", "A", 0, "", nil))
	b := mustCreate(t, s, NewItem("main_menu", "B", 0, "", &a.ID))
	c := mustCreate(t, s, NewItem("main_menu", "C", 0, "", &b.ID))

	self := a.Clone()
	self.ParentID = &self.ID
	err := s.UpdateItem(ctx, self)
	requireField(t, err, "parent")
	assert.Equal(t, menu.MsgSelfParent, err.Error())

	loop := a.Clone()
	loop.ParentID = &c.ID
	err = s.UpdateItem(ctx, loop)
	requireField(t, err, "parent")
	assert.Equal(t, menu.MsgCircular, err.Error())

	blank := b.Clone()
	blank.MenuName = " "
	requireField(t, s.UpdateItem(ctx, blank), "menu_name")

	got, err := s.GetItem(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "rejected update left the row untouched")
}

func testPreExistingLoop(t *testing.T, h Harness) {
	if h.ForceParent == nil {
		t.Skip("backend cannot simulate corrupted data")
	}
	s := h.New(t)
	ctx := context.Background()

	x := mustCreate(t, s, NewItem("main_menu", "X", 0, "", nil))
	y := mustCreate(t, s, NewItem("main_menu", "Y", 0, "", &x.ID))
	h.ForceParent(t, s, x.ID, &y.ID)

	child := NewItem("main_menu", "Child", 0, "", &x.ID)
	require.NoError(t, s.CreateItem(ctx, child))

	items, err := s.ListItems(ctx, "main_menu")
	require.NoError(t, err)
	assert.Equal(t, []int64{x.ID, y.ID}, menu.DetectLoops(items))
}

func testDeleteCascades(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	root := mustCreate(t, s, NewItem("main_menu", "Services", 0, "", nil))
	web := mustCreate(t, s, NewItem("main_menu", "Web", 0, "", &root.ID))
	deep := mustCreate(t, s, NewItem("main_menu", "Frontend", 0, "", &web.ID))
	other := mustCreate(t, s, NewItem("main_menu", "Contact", 1, "", nil))

	removed, err := s.DeleteItem(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{root.ID, web.ID, deep.ID}, removed)

	for _, id := range []int64{root.ID, web.ID, deep.ID} {
		_, err := s.GetItem(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	_, err = s.GetItem(ctx, other.ID)
	assert.NoError(t, err)
}

func testDeleteNotFound(t *testing.T, h Harness) {
	s := h.New(t)
	_, err := s.DeleteItem(context.Background(), 31337)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListMenus(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	mustCreate(t, s, NewItem("sidebar_menu", "Profile", 0, "", nil))
	mustCreate(t, s, NewItem("main_menu", "Home", 0, "", nil))
	mustCreate(t, s, NewItem("main_menu", "About", 1, "", nil))

	menus, err := s.ListMenus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.MenuSummary{
		{Name: "main_menu", ItemCount: 2},
		{Name: "sidebar_menu", ItemCount: 1},
	}, menus)
}

func testListAllItems(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()

	mustCreate(t, s, NewItem("sidebar_menu", "Profile", 0, "", nil))
	mustCreate(t, s, NewItem("main_menu", "Home", 0, "", nil))

	items, err := s.ListAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Profile"}, names(items))
}

// RecordingIndexer captures search index calls.
type RecordingIndexer struct {
	mu      sync.Mutex
	Indexed []int64
	Deleted []int64
}

// IndexItem records the id.
func (r *RecordingIndexer) IndexItem(_ context.Context, item *domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Indexed = append(r.Indexed, item.ID)
	return nil
}

// DeleteItems records the ids.
func (r *RecordingIndexer) DeleteItems(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deleted = append(r.Deleted, ids...)
	return nil
}

func testSearchIndexerHooks(t *testing.T, h Harness) {
	s := h.New(t)
	ctx := context.Background()
	rec := &RecordingIndexer{}
	s.SetSearchIndexer(rec)

	home := mustCreate(t, s, NewItem("main_menu", "Home", 0, "/", nil))
	child := mustCreate(t, s, NewItem("main_menu", "Child", 0, "", &home.ID))
	home.Name = "Start"
	require.NoError(t, s.UpdateItem(ctx, home))
	_, err := s.DeleteItem(ctx, home.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{home.ID, child.ID, home.ID}, rec.Indexed)
	assert.ElementsMatch(t, []int64{home.ID, child.ID}, rec.Deleted)
}
