// Package store defines the persistence contract for menu items.
// Backends live in the sqlite and badgerdb subpackages.
package store

import (
	"context"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// Every CreateItem and UpdateItem runs the menu guard inside the backend's
// write transaction, so a cycle or blank menu name is rejected no matter
// which caller performs the write.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Menu items
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	UpdateItem(ctx context.Context, item *domain.MenuItem) error
	GetItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	// DeleteItem removes the item and all its descendants, returning every removed id.
	DeleteItem(ctx context.Context, id int64) ([]int64, error)
	// ListItems returns one menu's items ordered by (parent_id nulls first, order, name, id).
	ListItems(ctx context.Context, menuName string) ([]*domain.MenuItem, error)
	// ListAllItems returns every item ordered by (menu_name, parent_id, order, name, id).
	ListAllItems(ctx context.Context) ([]*domain.MenuItem, error)
	ListMenus(ctx context.Context) ([]domain.MenuSummary, error)
}

// SearchIndexer keeps a search index in sync with item writes.
// Index failures are logged by the store and never fail the write.
type SearchIndexer interface {
	IndexItem(ctx context.Context, item *domain.MenuItem) error
	DeleteItems(ctx context.Context, ids []int64) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexItem is a no-op.
func (NoopSearchIndexer) IndexItem(context.Context, *domain.MenuItem) error { return nil }

// DeleteItems is a no-op.
func (NoopSearchIndexer) DeleteItems(context.Context, []int64) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
