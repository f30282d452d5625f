package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/search",
		Summary:     "Search menu items",
		Description: "Full-text search over item labels, links and route names",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleSearchItems)
}

// === DTOs ===

// SearchItemsInput contains parameters for searching items.
type SearchItemsInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" maxLength:"200" doc:"Search query, empty lists everything"`
	Menu          string `query:"menu" maxLength:"50" doc:"Restrict results to one menu"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchHitResponse is one matching item.
type SearchHitResponse struct {
	ItemID     int64             `json:"item_id" doc:"Item ID"`
	Name       string            `json:"name" doc:"Display label"`
	MenuName   string            `json:"menu_name" doc:"Menu name"`
	URL        string            `json:"url,omitempty" doc:"Explicit link path"`
	NamedURL   string            `json:"named_url,omitempty" doc:"Named route"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchItemsResponse contains search results.
type SearchItemsResponse struct {
	Query  string              `json:"query" doc:"Original search query"`
	Total  uint64              `json:"total" doc:"Total matches"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching items"`
}

// SearchItemsOutput wraps the search response for Huma.
type SearchItemsOutput struct {
	Body SearchItemsResponse
}

// === Handlers ===

func (s *Server) handleSearchItems(ctx context.Context, input *SearchItemsInput) (*SearchItemsOutput, error) {
	if _, err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Menu.SearchItems(ctx, search.Params{
		Query:    input.Query,
		MenuName: input.Menu,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, SearchHitResponse{
			ItemID:     h.ItemID,
			Name:       h.Name,
			MenuName:   h.MenuName,
			URL:        h.URL,
			NamedURL:   h.NamedURL,
			Score:      h.Score,
			Highlights: h.Highlights,
		})
	}

	return &SearchItemsOutput{
		Body: SearchItemsResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}
