package menu

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/errors"
)

// Validation messages returned by the guard.
const (
	MsgSelfParent    = "An item cannot be its own parent."
	MsgCircular      = "Circular dependency: Item cannot be an ancestor of itself."
	MsgEmptyMenuName = "Menu Name is required and cannot be empty."
)

// AncestorLookup reports the parent of a stored item.
// found is false when no item with that id exists.
type AncestorLookup interface {
	ParentOf(ctx context.Context, id int64) (parentID *int64, found bool, err error)
}

// LookupFunc adapts a function to AncestorLookup.
type LookupFunc func(ctx context.Context, id int64) (*int64, bool, error)

// ParentOf calls f.
func (f LookupFunc) ParentOf(ctx context.Context, id int64) (*int64, bool, error) {
	return f(ctx, id)
}

// ItemsLookup answers ancestor queries from an in-memory item list.
type ItemsLookup map[int64]*int64

// NewItemsLookup indexes items by id.
func NewItemsLookup(items []*domain.MenuItem) ItemsLookup {
	l := make(ItemsLookup, len(items))
	for _, item := range items {
		l[item.ID] = item.ParentID
	}
	return l
}

// ParentOf implements AncestorLookup.
func (l ItemsLookup) ParentOf(_ context.Context, id int64) (*int64, bool, error) {
	parent, ok := l[id]
	return parent, ok, nil
}

// Guard validates items before they are persisted.
// Stores run it inside their write transaction so no write path skips it.
type Guard struct {
	logger   *slog.Logger
	recorder Recorder
}

// NewGuard creates a guard. Nil arguments fall back to discard/no-op.
func NewGuard(logger *slog.Logger, recorder Recorder) *Guard {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Guard{logger: orDiscard(logger), recorder: recorder}
}

// CheckItem validates item with a guard that only logs.
func CheckItem(ctx context.Context, item *domain.MenuItem, lookup AncestorLookup, logger *slog.Logger) error {
	return NewGuard(logger, nil).Check(ctx, item, lookup)
}

// Check rejects an item that would be its own parent, would become its own
// ancestor, points at a parent that does not exist, or has a blank menu name.
//
// A loop found further up the chain that does not pass through item existed
// before this save. It is logged and the walk stops, but the save is allowed.
func (g *Guard) Check(ctx context.Context, item *domain.MenuItem, lookup AncestorLookup) error {
	if item.ParentID != nil {
		if err := g.checkParent(ctx, item, lookup); err != nil {
			return err
		}
	}

	if strings.TrimSpace(item.MenuName) == "" {
		return errors.Field("menu_name", MsgEmptyMenuName)
	}

	return nil
}

func (g *Guard) checkParent(ctx context.Context, item *domain.MenuItem, lookup AncestorLookup) error {
	parentID := *item.ParentID

	if !item.IsNew() && parentID == item.ID {
		return errors.Field("parent", MsgSelfParent)
	}

	visited := map[int64]struct{}{parentID: {}}
	current := parentID

	for depth := 0; ; depth++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, found, err := lookup.ParentOf(ctx, current)
		if err != nil {
			return fmt.Errorf("look up ancestor %d: %w", current, err)
		}
		if !found {
			if depth == 0 {
				return errors.Field("parent", fmt.Sprintf("Parent item %d does not exist.", parentID))
			}
			// Chain ends at a missing record.
			return nil
		}

		if !item.IsNew() && current == item.ID {
			return errors.Field("parent", MsgCircular)
		}

		if next == nil {
			return nil
		}

		if _, seen := visited[*next]; seen {
			g.logger.Error("loop detected in parent chain during validation, data might be corrupted",
				"item_id", item.ID,
				"parent_id", *next,
			)
			g.recorder.CorruptChain(item.ID)
			return nil
		}

		visited[*next] = struct{}{}
		current = *next
	}
}

// DetectLoops returns, in ascending order, the ids of items that sit on a
// parent cycle within items. Items that merely lead into a cycle are not listed.
func DetectLoops(items []*domain.MenuItem) []int64 {
	parents := NewItemsLookup(items)

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[int64]int, len(parents))
	onLoop := make(map[int64]struct{})

	for _, item := range items {
		if state[item.ID] != unvisited {
			continue
		}

		var path []int64
		cur := item.ID
		for {
			if state[cur] == done {
				break
			}
			if state[cur] == inProgress {
				// cur is on the current path: everything from it onward is the cycle.
				start := slices.Index(path, cur)
				for _, id := range path[start:] {
					onLoop[id] = struct{}{}
				}
				break
			}

			state[cur] = inProgress
			path = append(path, cur)

			parent, ok := parents[cur]
			if !ok || parent == nil {
				break
			}
			if _, exists := parents[*parent]; !exists {
				break
			}
			cur = *parent
		}

		for _, id := range path {
			state[id] = done
		}
	}

	ids := make([]int64, 0, len(onLoop))
	for id := range onLoop {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// FindDangling returns, in ascending order, the ids of items whose parent is not in items.
func FindDangling(items []*domain.MenuItem) []int64 {
	parents := NewItemsLookup(items)

	var ids []int64
	for _, item := range items {
		if item.ParentID == nil {
			continue
		}
		if _, ok := parents[*item.ParentID]; !ok {
			ids = append(ids, item.ID)
		}
	}
	slices.Sort(ids)
	return ids
}
