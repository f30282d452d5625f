package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/store"
)

// itemColumns is the ordered list of columns selected in item queries.
// Must match the scan order in scanItem.
const itemColumns = `id, created_at, updated_at, name, menu_name, parent_id, url, named_url, sort_order`

// renderOrder sorts parents first-null, then by order and name, id as the final tie breaker.
const renderOrder = `parent_id IS NOT NULL, parent_id, sort_order, name, id`

type rowScanner interface{ Scan(dest ...any) error }

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanItem scans a sql.Row (or sql.Rows via its Scan method) into a domain.MenuItem.
func scanItem(scanner rowScanner) (*domain.MenuItem, error) {
	var (
		item      domain.MenuItem
		createdAt string
		updatedAt string
		parentID  sql.NullInt64
	)

	err := scanner.Scan(
		&item.ID,
		&createdAt,
		&updatedAt,
		&item.Name,
		&item.MenuName,
		&parentID,
		&item.URL,
		&item.NamedURL,
		&item.Order,
	)
	if err != nil {
		return nil, err
	}

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		item.ParentID = domain.ParentRef(parentID.Int64)
	}

	return &item, nil
}

// txLookup answers the guard's ancestor queries inside a write transaction.
type txLookup struct {
	tx *sql.Tx
}

func (l txLookup) ParentOf(ctx context.Context, id int64) (*int64, bool, error) {
	var parent sql.NullInt64
	err := l.tx.QueryRowContext(ctx, `SELECT parent_id FROM menu_items WHERE id = ?`, id).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !parent.Valid {
		return nil, true, nil
	}
	return domain.ParentRef(parent.Int64), true, nil
}

// CreateItem validates and inserts a new item, assigning its id.
// An item with a preset id keeps it; a clash returns store.ErrAlreadyExists.
func (s *Store) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	if item.CreatedAt.IsZero() {
		item.InitTimestamps()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.guard.Check(ctx, item, txLookup{tx}); err != nil {
		return err
	}

	var id sql.NullInt64
	if !item.IsNew() {
		id = sql.NullInt64{Int64: item.ID, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO menu_items (
			id, created_at, updated_at, name, menu_name, parent_id, url, named_url, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		item.Name,
		item.MenuName,
		nullInt64Ptr(item.ParentID),
		item.URL,
		item.NamedURL,
		item.Order,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert menu item: %w", err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	item.ID = newID

	s.index(ctx, item)
	return nil
}

// UpdateItem validates and saves every field of an existing item.
// Returns store.ErrNotFound if the item does not exist.
func (s *Store) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	existing, err := getItem(ctx, tx, item.ID)
	if err != nil {
		return err
	}

	if err := s.guard.Check(ctx, item, txLookup{tx}); err != nil {
		return err
	}

	item.CreatedAt = existing.CreatedAt
	item.Touch()

	_, err = tx.ExecContext(ctx, `
		UPDATE menu_items SET
			updated_at = ?, name = ?, menu_name = ?, parent_id = ?, url = ?, named_url = ?, sort_order = ?
		WHERE id = ?`,
		formatTime(item.UpdatedAt),
		item.Name,
		item.MenuName,
		nullInt64Ptr(item.ParentID),
		item.URL,
		item.NamedURL,
		item.Order,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update menu item %d: %w", item.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.index(ctx, item)
	return nil
}

// GetItem retrieves an item by id.
// Returns store.ErrNotFound if the item does not exist.
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	return getItem(ctx, s.db, id)
}

func getItem(ctx context.Context, q queryer, id int64) (*domain.MenuItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item and, through the foreign key cascade, its descendants.
// Returns the removed ids in ascending order.
func (s *Store) DeleteItem(ctx context.Context, id int64) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// UNION (not UNION ALL) stops at rows already collected, so a corrupted loop terminates.
	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM menu_items WHERE id = ?
			UNION
			SELECT m.id FROM menu_items m JOIN subtree ON m.parent_id = subtree.id
		)
		SELECT id FROM subtree ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("collect subtree of %d: %w", id, err)
	}

	var removed []int64
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, rid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(removed) == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete menu item %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if err := s.searchIndexer.DeleteItems(ctx, removed); err != nil {
		s.logger.Warn("failed to remove items from search index", "ids", removed, "error", err)
	}
	return removed, nil
}

// ListItems returns the items of one menu in render order.
func (s *Store) ListItems(ctx context.Context, menuName string) ([]*domain.MenuItem, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE menu_name = ? ORDER BY `+renderOrder, menuName)
}

// ListAllItems returns every item grouped by menu.
func (s *Store) ListAllItems(ctx context.Context) ([]*domain.MenuItem, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM menu_items ORDER BY menu_name, `+renderOrder)
}

// ListMenus returns each menu name with its item count, sorted by name.
func (s *Store) ListMenus(ctx context.Context) ([]domain.MenuSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT menu_name, COUNT(*) FROM menu_items GROUP BY menu_name ORDER BY menu_name`)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	var menus []domain.MenuSummary
	for rows.Next() {
		var m domain.MenuSummary
		if err := rows.Scan(&m.Name, &m.ItemCount); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) index(ctx context.Context, item *domain.MenuItem) {
	if err := s.searchIndexer.IndexItem(ctx, item); err != nil {
		s.logger.Warn("failed to index menu item", "item_id", item.ID, "error", err)
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
