package service

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/treemenu/treemenu-server/internal/menu"
)

// integrityConcurrency caps how many menus are scanned at once.
const integrityConcurrency = 4

// MenuIntegrity summarizes the parent links of one menu.
type MenuIntegrity struct {
	MenuName  string `json:"menu_name"`
	ItemCount int    `json:"item_count"`
	// Dangling items point at a parent outside the menu and render as roots.
	Dangling []int64 `json:"dangling"`
	// Loops lists items of this menu sitting on a parent cycle.
	Loops []int64 `json:"loops"`
}

// IntegrityReport is the result of CheckIntegrity.
type IntegrityReport struct {
	Menus []MenuIntegrity `json:"menus"`
	// Loops lists every item on a parent cycle, across menus.
	Loops []int64 `json:"loops"`
}

// OK reports whether no loops were found. Dangling parents are allowed.
func (r *IntegrityReport) OK() bool {
	return len(r.Loops) == 0
}

// CheckIntegrity scans stored items for parent cycles and dangling parents.
// Cycles can only exist in data written before the guard, or edited directly.
func (s *MenuService) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	menus, err := s.store.ListMenus(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}

	report := &IntegrityReport{Menus: make([]MenuIntegrity, len(menus))}
	loopMenus := make(map[int64]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(integrityConcurrency)

	// Loops may cross menus, so they are found over the full item set.
	g.Go(func() error {
		all, err := s.store.ListAllItems(gctx)
		if err != nil {
			return fmt.Errorf("list all items: %w", err)
		}
		loops := menu.DetectLoops(all)
		report.Loops = loops
		onLoop := make(map[int64]struct{}, len(loops))
		for _, id := range loops {
			onLoop[id] = struct{}{}
		}
		for _, item := range all {
			if _, ok := onLoop[item.ID]; ok {
				loopMenus[item.ID] = item.MenuName
			}
		}
		return nil
	})

	for i, summary := range menus {
		g.Go(func() error {
			items, err := s.store.ListItems(gctx, summary.Name)
			if err != nil {
				return fmt.Errorf("list items of %q: %w", summary.Name, err)
			}
			report.Menus[i] = MenuIntegrity{
				MenuName:  summary.Name,
				ItemCount: len(items),
				Dangling:  menu.FindDangling(items),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range report.Menus {
		m := &report.Menus[i]
		for _, id := range report.Loops {
			if loopMenus[id] == m.MenuName {
				m.Loops = append(m.Loops, id)
			}
		}
		if m.Dangling == nil {
			m.Dangling = []int64{}
		}
		if m.Loops == nil {
			m.Loops = []int64{}
		}
	}
	if report.Loops == nil {
		report.Loops = []int64{}
	}
	slices.SortFunc(report.Menus, func(a, b MenuIntegrity) int {
		switch {
		case a.MenuName < b.MenuName:
			return -1
		case a.MenuName > b.MenuName:
			return 1
		}
		return 0
	})

	if !report.OK() {
		s.logger.Error("parent loops found in stored menu items", "items", report.Loops)
	}
	return report, nil
}
