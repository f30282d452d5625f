package badgerdb

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/store"
)

// txnLookup answers the guard's ancestor queries inside a transaction.
type txnLookup struct {
	txn *badger.Txn
}

func (l txnLookup) ParentOf(_ context.Context, id int64) (*int64, bool, error) {
	item, err := getItem(l.txn, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.ParentID, true, nil
}

// nextID draws ids from the sequence, skipping zero and any id already taken
// by an item created with a preset id.
func (s *Store) nextID(txn *badger.Txn) (int64, error) {
	for {
		n, err := s.seq.Next()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		id := int64(n)
		if _, err := txn.Get(itemKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return id, nil
		} else if err != nil {
			return 0, err
		}
	}
}

// CreateItem validates and stores a new item, assigning its id.
func (s *Store) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	if item.CreatedAt.IsZero() {
		item.InitTimestamps()
	}
	presetID := item.ID

	err := s.update(ctx, func(txn *badger.Txn) error {
		item.ID = presetID
		if err := s.guard.Check(ctx, item, txnLookup{txn}); err != nil {
			return err
		}

		if presetID != 0 {
			if _, err := txn.Get(itemKey(presetID)); err == nil {
				return store.ErrAlreadyExists
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		} else {
			id, err := s.nextID(txn)
			if err != nil {
				return err
			}
			item.ID = id
		}

		return putItem(txn, item, nil)
	})
	if err != nil {
		item.ID = presetID
		return err
	}

	s.index(ctx, item)
	return nil
}

// UpdateItem validates and saves every field of an existing item.
func (s *Store) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		existing, err := getItem(txn, item.ID)
		if err != nil {
			return err
		}

		if err := s.guard.Check(ctx, item, txnLookup{txn}); err != nil {
			return err
		}

		item.CreatedAt = existing.CreatedAt
		item.Touch()
		return putItem(txn, item, existing)
	})
	if err != nil {
		return err
	}

	s.index(ctx, item)
	return nil
}

// GetItem retrieves an item by id.
func (s *Store) GetItem(_ context.Context, id int64) (*domain.MenuItem, error) {
	var item *domain.MenuItem
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = getItem(txn, id)
		return err
	})
	return item, err
}

// DeleteItem removes the item and every descendant reachable through the parent index.
func (s *Store) DeleteItem(ctx context.Context, id int64) ([]int64, error) {
	var removed []int64

	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = removed[:0]

		root, err := getItem(txn, id)
		if err != nil {
			return err
		}

		visited := map[int64]bool{root.ID: true}
		queue := []*domain.MenuItem{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			childIDs, err := scanIndex(txn, []byte(parentIndexPrefix+idString(cur.ID)+":"))
			if err != nil {
				return err
			}
			for _, childID := range childIDs {
				if visited[childID] {
					continue
				}
				visited[childID] = true
				child, err := getItem(txn, childID)
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				queue = append(queue, child)
			}

			if err := deleteItem(txn, cur); err != nil {
				return err
			}
			removed = append(removed, cur.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(removed)
	if err := s.searchIndexer.DeleteItems(ctx, removed); err != nil {
		s.logger.Warn("failed to remove items from search index", "ids", removed, "error", err)
	}
	return removed, nil
}

// ListItems returns the items of one menu in render order.
func (s *Store) ListItems(_ context.Context, menuName string) ([]*domain.MenuItem, error) {
	var items []*domain.MenuItem

	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := scanIndex(txn, []byte(menuIndexPrefix+menuName+":"))
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := getItem(txn, id)
			if err != nil {
				return err
			}
			// Menu names containing ":" can share a prefix with another menu.
			if item.MenuName == menuName {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, compareRenderOrder)
	return items, nil
}

// ListAllItems returns every item grouped by menu.
func (s *Store) ListAllItems(_ context.Context) ([]*domain.MenuItem, error) {
	var items []*domain.MenuItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id, err := idFromIndexKey(it.Item().Key())
			if err != nil {
				return err
			}
			item, err := getItem(txn, id)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b *domain.MenuItem) int {
		return cmp.Or(strings.Compare(a.MenuName, b.MenuName), compareRenderOrder(a, b))
	})
	return items, nil
}

// ListMenus returns each menu name with its item count, sorted by name.
func (s *Store) ListMenus(ctx context.Context) ([]domain.MenuSummary, error) {
	items, err := s.ListAllItems(ctx)
	if err != nil {
		return nil, err
	}

	var menus []domain.MenuSummary
	for _, item := range items {
		if n := len(menus); n > 0 && menus[n-1].Name == item.MenuName {
			menus[n-1].ItemCount++
			continue
		}
		menus = append(menus, domain.MenuSummary{Name: item.MenuName, ItemCount: 1})
	}
	return menus, nil
}

// compareRenderOrder orders roots first, then by parent id, order, name and id.
func compareRenderOrder(a, b *domain.MenuItem) int {
	if (a.ParentID == nil) != (b.ParentID == nil) {
		if a.ParentID == nil {
			return -1
		}
		return 1
	}
	var pa, pb int64
	if a.ParentID != nil {
		pa, pb = *a.ParentID, *b.ParentID
	}
	return cmp.Or(
		cmp.Compare(pa, pb),
		cmp.Compare(a.Order, b.Order),
		strings.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

func (s *Store) index(ctx context.Context, item *domain.MenuItem) {
	if err := s.searchIndexer.IndexItem(ctx, item); err != nil {
		s.logger.Warn("failed to index menu item", "item_id", item.ID, "error", err)
	}
}
