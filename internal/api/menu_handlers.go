package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/menu"
)

func (s *Server) registerMenuRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMenus",
		Method:      http.MethodGet,
		Path:        "/api/v1/menus",
		Summary:     "List menus",
		Description: "Returns every menu name with its item count",
		Tags:        []string{"Menus"},
	}, s.handleListMenus)

	huma.Register(s.api, huma.Operation{
		OperationID: "renderMenu",
		Method:      http.MethodGet,
		Path:        "/api/v1/menus/{menu}/render",
		Summary:     "Render menu",
		Description: "Builds the menu tree and marks the item matching path as active. Without a path nothing is rendered.",
		Tags:        []string{"Menus"},
	}, s.handleRenderMenu)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMenuItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/menus/{menu}/items",
		Summary:     "List menu items",
		Description: "Admin listing of a menu's items with their resolved links",
		Tags:        []string{"Menus"},
		Security:    bearerSecurity,
	}, s.handleListMenuItems)
}

// === DTOs ===

// MenuSummaryResponse describes one menu.
type MenuSummaryResponse struct {
	Name      string `json:"name" doc:"Menu name"`
	ItemCount int    `json:"item_count" doc:"Number of items in the menu"`
}

// ListMenusOutput wraps the menu list for Huma.
type ListMenusOutput struct {
	Body struct {
		Menus []MenuSummaryResponse `json:"menus" doc:"Menus ordered by name"`
	}
}

// RenderMenuInput contains parameters for rendering a menu.
type RenderMenuInput struct {
	Menu string `path:"menu" maxLength:"50" doc:"Menu name"`
	Path string `query:"path" maxLength:"2048" doc:"Current request path used to pick the active item"`
}

// NodeResponse is one rendered menu entry.
type NodeResponse struct {
	ID          int64          `json:"id" doc:"Item ID"`
	Name        string         `json:"name" doc:"Display label"`
	ResolvedURL string         `json:"resolved_url" doc:"Link target, # when the item has none"`
	Active      bool           `json:"active" doc:"Item matches the request path"`
	Expanded    bool           `json:"expanded" doc:"Children should be displayed"`
	Children    []NodeResponse `json:"children" doc:"Child items in display order"`
}

// RenderResponse is the render output for one menu.
type RenderResponse struct {
	MenuName     string         `json:"menu_name" doc:"Menu name"`
	MenuNodes    []NodeResponse `json:"menu_nodes" doc:"Root items in display order"`
	ActiveItemID *int64         `json:"active_item_id" doc:"Active item, null when nothing matches"`
	ExpandedIDs  []int64        `json:"expanded_ids" doc:"Active item and its ancestors, ascending"`
}

// RenderMenuOutput wraps the render response for Huma.
type RenderMenuOutput struct {
	Body RenderResponse
}

// ListMenuItemsInput contains parameters for the admin item listing.
type ListMenuItemsInput struct {
	Authorization string `header:"Authorization"`
	Menu          string `path:"menu" maxLength:"50" doc:"Menu name"`
}

// ListMenuItemsOutput wraps the admin item listing for Huma.
type ListMenuItemsOutput struct {
	Body struct {
		Items []ItemResponse `json:"items" doc:"Items in render order"`
	}
}

// === Handlers ===

func (s *Server) handleListMenus(ctx context.Context, _ *struct{}) (*ListMenusOutput, error) {
	menus, err := s.services.Menu.ListMenus(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListMenusOutput{}
	out.Body.Menus = make([]MenuSummaryResponse, 0, len(menus))
	for _, m := range menus {
		out.Body.Menus = append(out.Body.Menus, MenuSummaryResponse{Name: m.Name, ItemCount: m.ItemCount})
	}
	return out, nil
}

func (s *Server) handleRenderMenu(ctx context.Context, input *RenderMenuInput) (*RenderMenuOutput, error) {
	if input.Path != "" {
		ctx = menu.WithRequestPath(ctx, input.Path)
	}

	result, err := s.services.Menu.DrawMenu(ctx, input.Menu)
	if err != nil {
		return nil, err
	}

	return &RenderMenuOutput{Body: toRenderResponse(result)}, nil
}

func (s *Server) handleListMenuItems(ctx context.Context, input *ListMenuItemsInput) (*ListMenuItemsOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	views, err := s.services.Menu.ListItemViews(ctx, input.Menu)
	if err != nil {
		return nil, err
	}

	out := &ListMenuItemsOutput{}
	out.Body.Items = make([]ItemResponse, 0, len(views))
	for _, v := range views {
		resp := toItemResponse(v.MenuItem)
		resp.ResolvedURL = v.ResolvedURL
		resp.DisplayURL = v.DisplayURL
		out.Body.Items = append(out.Body.Items, resp)
	}
	return out, nil
}

// === Mappers ===

func toRenderResponse(result menu.Result) RenderResponse {
	return RenderResponse{
		MenuName:     result.MenuName,
		MenuNodes:    toNodeResponses(result.Nodes, result),
		ActiveItemID: result.ActiveItemID,
		ExpandedIDs:  result.ExpandedIDs.Sorted(),
	}
}

func toNodeResponses(nodes []*menu.Node, result menu.Result) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeResponse{
			ID:          n.ID,
			Name:        n.Name,
			ResolvedURL: n.ResolvedURL,
			Active:      result.IsActive(n.ID),
			Expanded:    result.IsExpanded(n.ID),
			Children:    toNodeResponses(n.Children, result),
		})
	}
	return out
}
