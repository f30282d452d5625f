package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/routes"
)

func (s *Server) registerRouteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRoutes",
		Method:      http.MethodGet,
		Path:        "/api/v1/routes",
		Summary:     "List named routes",
		Description: "Returns the route names items may reference through named_url",
		Tags:        []string{"Routes"},
	}, s.handleListRoutes)
}

// ListRoutesOutput wraps the route table for Huma.
type ListRoutesOutput struct {
	Body struct {
		Routes []routes.Route `json:"routes" doc:"Named routes ordered by name"`
	}
}

func (s *Server) handleListRoutes(_ context.Context, _ *struct{}) (*ListRoutesOutput, error) {
	out := &ListRoutesOutput{}
	out.Body.Routes = []routes.Route{}
	if s.services.Routes != nil {
		out.Body.Routes = s.services.Routes.List()
	}
	return out, nil
}
