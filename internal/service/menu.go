// Package service holds the menu business logic shared by the HTTP API and the CLIs.
package service

import (
	"context"
	"log/slog"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/errors"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/normalize"
	"github.com/treemenu/treemenu-server/internal/search"
	"github.com/treemenu/treemenu-server/internal/store"
	"github.com/treemenu/treemenu-server/internal/validation"
)

// Recorder extends menu.Recorder with write-path events.
type Recorder interface {
	menu.Recorder
	ValidationRejected(field string)
}

type nopRecorder struct{ menu.NopRecorder }

func (nopRecorder) ValidationRejected(string) {}

// Searcher answers admin item searches.
type Searcher interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// MenuService orchestrates menu item operations.
type MenuService struct {
	store     store.Store
	resolver  menu.URLResolver
	renderer  *menu.Renderer
	searcher  Searcher
	recorder  Recorder
	logger    *slog.Logger
	validator *validation.Validator
}

// NewMenuService creates a menu service. searcher and recorder may be nil.
func NewMenuService(st store.Store, resolver menu.URLResolver, searcher Searcher, recorder Recorder, logger *slog.Logger) *MenuService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MenuService{
		store:     st,
		resolver:  resolver,
		renderer:  menu.NewRenderer(st, resolver, logger, recorder),
		searcher:  searcher,
		recorder:  recorder,
		logger:    logger,
		validator: validation.New(),
	}
}

// ItemView is an item as shown in admin listings.
type ItemView struct {
	*domain.MenuItem
	ResolvedURL string `json:"resolved_url"`
	// DisplayURL is "-" when the item has no link.
	DisplayURL string `json:"display_url"`
}

// CreateItemRequest contains fields for creating a menu item.
// A blank menu_name is rejected by the menu guard so its message is used.
type CreateItemRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	MenuName string `json:"menu_name" validate:"max=50"`
	ParentID *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	URL      string `json:"url,omitempty" validate:"max=2048"`
	NamedURL string `json:"named_url,omitempty" validate:"max=100"`
	Order    int    `json:"order"`
}

// CreateItem validates and stores a new item.
func (s *MenuService) CreateItem(ctx context.Context, req CreateItemRequest) (*domain.MenuItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, s.rejected(err)
	}

	item := &domain.MenuItem{
		Name:     normalize.Label(req.Name),
		MenuName: normalize.MenuName(req.MenuName),
		ParentID: req.ParentID,
		URL:      normalize.Path(req.URL),
		NamedURL: normalize.MenuName(req.NamedURL),
		Order:    req.Order,
	}
	item.InitTimestamps()

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, s.writeError(err, item.ID)
	}

	s.logger.Info("menu item created", "id", item.ID, "name", item.Name, "menu_name", item.MenuName, "parent_id", item.ParentID)
	return item, nil
}

// UpdateItemRequest contains fields for a partial item update.
// Nil fields are left unchanged; ClearParent moves the item to the root.
type UpdateItemRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	MenuName    *string `json:"menu_name,omitempty" validate:"omitempty,max=50"`
	ParentID    *int64  `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	ClearParent bool    `json:"clear_parent,omitempty"`
	URL         *string `json:"url,omitempty" validate:"omitempty,max=2048"`
	NamedURL    *string `json:"named_url,omitempty" validate:"omitempty,max=100"`
	Order       *int    `json:"order,omitempty"`
}

// UpdateItem applies req to an existing item.
func (s *MenuService) UpdateItem(ctx context.Context, id int64, req UpdateItemRequest) (*domain.MenuItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, s.rejected(err)
	}
	if req.ClearParent && req.ParentID != nil {
		return nil, s.rejected(errors.Field("parent", "parent_id and clear_parent cannot be combined"))
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = normalize.Label(*req.Name)
	}
	if req.MenuName != nil {
		item.MenuName = normalize.MenuName(*req.MenuName)
	}
	switch {
	case req.ClearParent:
		item.ParentID = nil
	case req.ParentID != nil:
		item.ParentID = domain.ParentRef(*req.ParentID)
	}
	if req.URL != nil {
		item.URL = normalize.Path(*req.URL)
	}
	if req.NamedURL != nil {
		item.NamedURL = normalize.MenuName(*req.NamedURL)
	}
	if req.Order != nil {
		item.Order = *req.Order
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, s.writeError(err, id)
	}

	s.logger.Info("menu item updated", "id", item.ID, "name", item.Name, "menu_name", item.MenuName, "parent_id", item.ParentID)
	return item, nil
}

// DeleteItem removes an item and its descendants, returning the removed ids.
func (s *MenuService) DeleteItem(ctx context.Context, id int64) ([]int64, error) {
	removed, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return nil, s.writeError(err, id)
	}
	s.logger.Info("menu item deleted", "id", id, "removed", len(removed))
	return removed, nil
}

// GetItem returns a single item.
func (s *MenuService) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, s.writeError(err, id)
	}
	return item, nil
}

// ListItems returns the items of one menu in render order.
func (s *MenuService) ListItems(ctx context.Context, menuName string) ([]*domain.MenuItem, error) {
	return s.store.ListItems(ctx, normalize.MenuName(menuName))
}

// ListItemViews returns one menu's items with their resolved links.
func (s *MenuService) ListItemViews(ctx context.Context, menuName string) ([]ItemView, error) {
	items, err := s.ListItems(ctx, menuName)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		resolved := menu.ResolveURL(item, s.resolver, s.logger)
		views = append(views, ItemView{
			MenuItem:    item,
			ResolvedURL: resolved,
			DisplayURL:  menu.DisplayURL(resolved),
		})
	}
	return views, nil
}

// ListMenus returns every menu name with its item count.
func (s *MenuService) ListMenus(ctx context.Context) ([]domain.MenuSummary, error) {
	return s.store.ListMenus(ctx)
}

// DrawMenu renders menuName for the request path carried by ctx
// (see menu.WithRequestPath).
func (s *MenuService) DrawMenu(ctx context.Context, menuName string) (menu.Result, error) {
	return s.renderer.Draw(ctx, normalize.MenuName(menuName))
}

// SearchItems searches item labels, links and route names.
func (s *MenuService) SearchItems(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.searcher == nil {
		return nil, errors.Internal("search is not configured")
	}
	params.MenuName = normalize.MenuName(params.MenuName)
	return s.searcher.Search(ctx, params)
}

// rejected counts a validation failure by field and returns err unchanged.
func (s *MenuService) rejected(err error) error {
	var domainErr *errors.Error
	if !errors.As(err, &domainErr) || domainErr.Code != errors.CodeValidation {
		return err
	}

	fields, _ := domainErr.Details.(map[string]string)
	if len(fields) == 0 {
		s.recorder.ValidationRejected("")
	}
	for field := range fields {
		s.recorder.ValidationRejected(field)
	}
	return err
}

// writeError maps store failures to domain errors.
func (s *MenuService) writeError(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFoundf("menu item %d not found", id)
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.Conflict(err.Error())
	case errors.Is(err, errors.ErrValidation):
		return s.rejected(err)
	default:
		return err
	}
}

// Ping checks the backing store.
func (s *MenuService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
