package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	writes := huma.Middlewares{s.limitWrites}

	huma.Register(s.api, huma.Operation{
		OperationID:   "createItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/items",
		Summary:       "Create menu item",
		Description:   "Creates an item. The parent must exist and must not make the item its own ancestor.",
		Tags:          []string{"Items"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
		Middlewares:   writes,
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get menu item",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/items/{id}",
		Summary:     "Update menu item",
		Description: "Partially updates an item. Omitted fields are left unchanged.",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
		Middlewares: writes,
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/items/{id}",
		Summary:     "Delete menu item",
		Description: "Deletes an item and all of its descendants",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
		Middlewares: writes,
	}, s.handleDeleteItem)
}

// === DTOs ===

// ItemResponse is a stored menu item in API responses.
type ItemResponse struct {
	ID          int64     `json:"id" doc:"Item ID"`
	Name        string    `json:"name" doc:"Display label"`
	MenuName    string    `json:"menu_name" doc:"Menu the item belongs to"`
	ParentID    *int64    `json:"parent_id" doc:"Parent item, null for root items"`
	URL         string    `json:"url,omitempty" doc:"Explicit link path"`
	NamedURL    string    `json:"named_url,omitempty" doc:"Named route"`
	Order       int       `json:"order" doc:"Sibling order"`
	ResolvedURL string    `json:"resolved_url,omitempty" doc:"Effective link target"`
	DisplayURL  string    `json:"display_url,omitempty" doc:"Link as shown in listings, - when the item has none"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last modification time"`
}

// ItemOutput wraps a single item for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// CreateItemBody is the request body for creating an item.
// Fields are optional in the schema so that validation failures come back
// with per-field details instead of a generic schema error.
type CreateItemBody struct {
	Name     string `json:"name,omitempty" doc:"Display label"`
	MenuName string `json:"menu_name,omitempty" doc:"Menu name"`
	ParentID *int64 `json:"parent_id,omitempty" doc:"Parent item ID"`
	URL      string `json:"url,omitempty" doc:"Explicit link path"`
	NamedURL string `json:"named_url,omitempty" doc:"Named route, takes precedence over url"`
	Order    int    `json:"order,omitempty" doc:"Sibling order"`
}

// CreateItemInput contains parameters for creating an item.
type CreateItemInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateItemBody
}

// ItemIDInput identifies one item.
type ItemIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Item ID"`
}

// UpdateItemBody is the request body for a partial update.
type UpdateItemBody struct {
	Name        *string `json:"name,omitempty" doc:"Display label"`
	MenuName    *string `json:"menu_name,omitempty" doc:"Menu name"`
	ParentID    *int64  `json:"parent_id,omitempty" doc:"New parent item ID"`
	ClearParent bool    `json:"clear_parent,omitempty" doc:"Move the item to the root"`
	URL         *string `json:"url,omitempty" doc:"Explicit link path"`
	NamedURL    *string `json:"named_url,omitempty" doc:"Named route"`
	Order       *int    `json:"order,omitempty" doc:"Sibling order"`
}

// UpdateItemInput contains parameters for updating an item.
type UpdateItemInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Item ID"`
	Body          UpdateItemBody
}

// DeleteItemOutput lists every removed item.
type DeleteItemOutput struct {
	Body struct {
		Removed []int64 `json:"removed" doc:"IDs of the item and its descendants"`
	}
}

// === Handlers ===

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	item, err := s.services.Menu.CreateItem(ctx, service.CreateItemRequest{
		Name:     input.Body.Name,
		MenuName: input.Body.MenuName,
		ParentID: input.Body.ParentID,
		URL:      input.Body.URL,
		NamedURL: input.Body.NamedURL,
		Order:    input.Body.Order,
	})
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: toItemResponse(item)}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	item, err := s.services.Menu.GetItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: toItemResponse(item)}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	item, err := s.services.Menu.UpdateItem(ctx, input.ID, service.UpdateItemRequest{
		Name:        input.Body.Name,
		MenuName:    input.Body.MenuName,
		ParentID:    input.Body.ParentID,
		ClearParent: input.Body.ClearParent,
		URL:         input.Body.URL,
		NamedURL:    input.Body.NamedURL,
		Order:       input.Body.Order,
	})
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: toItemResponse(item)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *ItemIDInput) (*DeleteItemOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	removed, err := s.services.Menu.DeleteItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := &DeleteItemOutput{}
	out.Body.Removed = removed
	return out, nil
}

func toItemResponse(item *domain.MenuItem) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		MenuName:  item.MenuName,
		ParentID:  item.ParentID,
		URL:       item.URL,
		NamedURL:  item.NamedURL,
		Order:     item.Order,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
