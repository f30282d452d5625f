// Package badgerdb provides a Badger-backed menu item store.
//
// Items are JSON records under menuitem:<id>. Two index families make the
// store's queries prefix scans:
//
//	idx:menuitem:menu:<menu_name>:<id>
//	idx:menuitem:parent:<parent_id|root>:<id>
package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/menu"
	"github.com/treemenu/treemenu-server/internal/store"
)

const (
	itemPrefix        = "menuitem:"
	menuIndexPrefix   = "idx:menuitem:menu:"
	parentIndexPrefix = "idx:menuitem:parent:"
	rootParent        = "root"
	sequenceKey       = "seq:menuitem"

	// maxTxnRetries bounds optimistic retries after a write conflict.
	maxTxnRetries = 5
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
	guard  *menu.Guard

	searchIndexer store.SearchIndexer
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger store in dir.
func Open(dir string, logger *slog.Logger, guard *menu.Guard) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if guard == nil {
		guard = menu.NewGuard(logger, nil)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes so a crash cannot lose acknowledged edits
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger, guard)
}

// OpenInMemory opens a store that lives only in memory. Used by tests.
func OpenInMemory(logger *slog.Logger, guard *menu.Guard) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if guard == nil {
		guard = menu.NewGuard(logger, nil)
	}
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger, guard)
}

func open(opts badger.Options, logger *slog.Logger, guard *menu.Guard) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	logger.Info("badger store opened", "path", opts.Dir, "in_memory", opts.InMemory)

	return &Store{
		db:            db,
		seq:           seq,
		logger:        logger,
		guard:         guard,
		searchIndexer: store.NewNoopSearchIndexer(),
	}, nil
}

// Close releases the id sequence and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("failed to release id sequence", "error", err)
	}
	return s.db.Close()
}

// Ping verifies the database accepts reads.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.searchIndexer = indexer
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("badger write conflict, retrying", "attempt", attempt+1)
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return err
}

func idString(id int64) string {
	// Zero padding keeps lexicographic key order equal to numeric order.
	return fmt.Sprintf("%020d", id)
}

func itemKey(id int64) []byte {
	return []byte(itemPrefix + idString(id))
}

func menuIndexKey(menuName string, id int64) []byte {
	return []byte(menuIndexPrefix + menuName + ":" + idString(id))
}

func parentIndexKey(parentID *int64, id int64) []byte {
	return []byte(parentIndexPrefix + parentToken(parentID) + ":" + idString(id))
}

func parentToken(parentID *int64) string {
	if parentID == nil {
		return rootParent
	}
	return idString(*parentID)
}

// idFromIndexKey parses the id that ends every index key.
func idFromIndexKey(key []byte) (int64, error) {
	if len(key) < 20 {
		return 0, fmt.Errorf("malformed index key %q", key)
	}
	return strconv.ParseInt(string(key[len(key)-20:]), 10, 64)
}

// getItem reads one item inside txn.
func getItem(txn *badger.Txn, id int64) (*domain.MenuItem, error) {
	entry, err := txn.Get(itemKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var item domain.MenuItem
	if err := entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &item)
	}); err != nil {
		return nil, fmt.Errorf("decode menu item %d: %w", id, err)
	}
	return &item, nil
}

// putItem writes the record and its index entries, removing stale entries of previous.
func putItem(txn *badger.Txn, item, previous *domain.MenuItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if previous != nil {
		if previous.MenuName != item.MenuName {
			if err := txn.Delete(menuIndexKey(previous.MenuName, previous.ID)); err != nil {
				return err
			}
		}
		if parentToken(previous.ParentID) != parentToken(item.ParentID) {
			if err := txn.Delete(parentIndexKey(previous.ParentID, previous.ID)); err != nil {
				return err
			}
		}
	}

	if err := txn.Set(itemKey(item.ID), data); err != nil {
		return err
	}
	if err := txn.Set(menuIndexKey(item.MenuName, item.ID), nil); err != nil {
		return err
	}
	return txn.Set(parentIndexKey(item.ParentID, item.ID), nil)
}

func deleteItem(txn *badger.Txn, item *domain.MenuItem) error {
	for _, key := range [][]byte{
		itemKey(item.ID),
		menuIndexKey(item.MenuName, item.ID),
		parentIndexKey(item.ParentID, item.ID),
	} {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// scanIndex returns the ids found under an index prefix.
func scanIndex(txn *badger.Txn, prefix []byte) ([]int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []int64
	for it.Rewind(); it.Valid(); it.Next() {
		id, err := idFromIndexKey(it.Item().Key())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
