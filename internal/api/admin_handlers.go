package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "checkIntegrity",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/integrity",
		Summary:     "Check menu integrity",
		Description: "Reports parent chains that loop and items whose parent is missing",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleCheckIntegrity)
}

// MenuIntegrityResponse is the integrity report for one menu.
type MenuIntegrityResponse struct {
	MenuName  string  `json:"menu_name" doc:"Menu name"`
	ItemCount int     `json:"item_count" doc:"Number of items"`
	Dangling  []int64 `json:"dangling" doc:"Items whose parent is not in this menu"`
	Loops     []int64 `json:"loops" doc:"Items of this menu on a parent cycle"`
}

// IntegrityResponse is the full integrity report.
type IntegrityResponse struct {
	OK    bool                    `json:"ok" doc:"No problems found"`
	Loops []int64                 `json:"loops" doc:"Items on a parent chain that never reaches a root"`
	Menus []MenuIntegrityResponse `json:"menus" doc:"Per-menu findings ordered by name"`
}

// IntegrityOutput wraps the integrity report for Huma.
type IntegrityOutput struct {
	Body IntegrityResponse
}

// AdminInput carries the admin token.
type AdminInput struct {
	Authorization string `header:"Authorization"`
}

func (s *Server) handleCheckIntegrity(ctx context.Context, input *AdminInput) (*IntegrityOutput, error) {
	claims, err := s.requireAdmin(input.Authorization)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Menu.CheckIntegrity(ctx)
	if err != nil {
		return nil, err
	}

	menus := make([]MenuIntegrityResponse, 0, len(report.Menus))
	for _, m := range report.Menus {
		menus = append(menus, MenuIntegrityResponse{
			MenuName:  m.MenuName,
			ItemCount: m.ItemCount,
			Dangling:  m.Dangling,
			Loops:     m.Loops,
		})
	}

	s.logger.Info("integrity check requested", "subject", claims.Subject, "ok", report.OK())

	return &IntegrityOutput{
		Body: IntegrityResponse{
			OK:    report.OK(),
			Loops: report.Loops,
			Menus: menus,
		},
	}, nil
}
