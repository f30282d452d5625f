package menu

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// mapResolver resolves names from a fixed table.
type mapResolver map[string]string

func (m mapResolver) Reverse(name string) (string, error) {
	if path, ok := m[name]; ok {
		return path, nil
	}
	return "", ErrNoReverseMatch
}

// item builds a MenuItem; parent 0 means root.
func item(id, parent int64, name string, order int, url string) *domain.MenuItem {
	it := &domain.MenuItem{ID: id, Name: name, MenuName: "main_menu", Order: order, URL: url}
	if parent != 0 {
		it.ParentID = domain.ParentRef(parent)
	}
	return it
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

type fakeSource struct {
	items []*domain.MenuItem
	err   error
	calls int
}

func (f *fakeSource) ListItems(_ context.Context, menuName string) ([]*domain.MenuItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.MenuItem
	for _, it := range f.items {
		if it.MenuName == menuName {
			out = append(out, it)
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store down")

type countingRecorder struct {
	mu          sync.Mutex
	renders     map[string]int
	failures    []string
	corruptions []int64
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{renders: map[string]int{}}
}

func (c *countingRecorder) MenuRendered(menuName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renders[menuName]++
}

func (c *countingRecorder) URLResolutionFailed(namedURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, namedURL)
}

func (c *countingRecorder) CorruptChain(itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corruptions = append(c.corruptions, itemID)
}
