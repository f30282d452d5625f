package menu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// Result is the render output handed to a presentation layer.
type Result struct {
	MenuName     string      `json:"menu_name"`
	Nodes        []*Node     `json:"menu_nodes"`
	ActiveItemID *int64      `json:"active_item_id"`
	ExpandedIDs  ExpandedSet `json:"expanded_ids"`
}

// Empty is the result for a menu with nothing to show or nothing active.
func Empty(menuName string) Result {
	return Result{
		MenuName:    menuName,
		Nodes:       []*Node{},
		ExpandedIDs: ExpandedSet{},
	}
}

// IsExpanded reports whether the children of id should be displayed.
func (r Result) IsExpanded(id int64) bool {
	return r.ExpandedIDs.Has(id)
}

// IsActive reports whether id is the active item.
func (r Result) IsActive(id int64) bool {
	return r.ActiveItemID != nil && *r.ActiveItemID == id
}

// Render builds the tree for items and marks the item matching path.
// It has no side effects beyond logging.
func Render(menuName string, items []*domain.MenuItem, path string, resolver URLResolver, logger *slog.Logger) Result {
	if len(items) == 0 {
		return Empty(menuName)
	}

	tree := Build(items, resolver, logger)
	activeID, expanded := ResolveActive(tree, path, logger)

	return Result{
		MenuName:     menuName,
		Nodes:        tree.Roots,
		ActiveItemID: activeID,
		ExpandedIDs:  expanded,
	}
}

type requestPathKey struct{}

// WithRequestPath returns a context carrying the current request path.
func WithRequestPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, requestPathKey{}, path)
}

// RequestPath returns the request path carried by ctx, if any.
func RequestPath(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(requestPathKey{}).(string)
	return path, ok
}

// ItemSource supplies the items of one menu ordered by (parent_id, order, name).
type ItemSource interface {
	ListItems(ctx context.Context, menuName string) ([]*domain.MenuItem, error)
}

// Renderer draws menus from an item source.
type Renderer struct {
	items    ItemSource
	resolver URLResolver
	logger   *slog.Logger
	recorder Recorder
}

// NewRenderer creates a renderer. A nil recorder records nothing.
func NewRenderer(items ItemSource, resolver URLResolver, logger *slog.Logger, recorder Recorder) *Renderer {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Renderer{
		items:    items,
		resolver: resolver,
		logger:   orDiscard(logger),
		recorder: recorder,
	}
}

// Draw renders menuName for the request path carried by ctx.
// Without a request path nothing can be active, so the empty result is returned
// and the store is not consulted.
func (r *Renderer) Draw(ctx context.Context, menuName string) (Result, error) {
	path, ok := RequestPath(ctx)
	if !ok {
		r.logger.Debug("no request path in context, rendering empty menu", "menu_name", menuName)
		return Empty(menuName), nil
	}

	items, err := r.items.ListItems(ctx, menuName)
	if err != nil {
		return Result{}, fmt.Errorf("fetch items for menu %q: %w", menuName, err)
	}

	result := Render(menuName, items, path, recordingResolver{r.resolver, r.recorder}, r.logger)
	r.recorder.MenuRendered(menuName)
	return result, nil
}

// recordingResolver reports failed lookups to a Recorder.
type recordingResolver struct {
	inner    URLResolver
	recorder Recorder
}

func (rr recordingResolver) Reverse(name string) (string, error) {
	if rr.inner == nil {
		rr.recorder.URLResolutionFailed(name)
		return "", ErrNoReverseMatch
	}
	path, err := rr.inner.Reverse(name)
	if err != nil {
		rr.recorder.URLResolutionFailed(name)
	}
	return path, err
}
