package routes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treemenu/treemenu-server/internal/menu"
)

func TestRegistry_Reverse(t *testing.T) {
	r := NewDefaultRegistry()

	path, err := r.Reverse("treemenu_settings_account")
	require.NoError(t, err)
	assert.Equal(t, "/settings/account/", path)

	_, err = r.Reverse("nope")
	assert.ErrorIs(t, err, menu.ErrNoReverseMatch)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestRegistry_CopiesInput(t *testing.T) {
	src := map[string]string{"a": "/a/"}
	r := NewRegistry(src)
	src["a"] = "/changed/"

	path, err := r.Reverse("a")
	require.NoError(t, err)
	assert.Equal(t, "/a/", path)
}

func TestRegistry_ReplaceAndList(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, len(Defaults), r.Len())

	r.Replace(map[string]string{"b": "/b/", "a": "/a/"})

	assert.Equal(t, []Route{{Name: "a", Path: "/a/"}, {Name: "b", Path: "/b/"}}, r.List())
	_, err := r.Reverse("treemenu_home")
	assert.Error(t, err)

	r.Replace(nil)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewDefaultRegistry()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					r.Replace(Defaults)
				} else {
					_, _ = r.Reverse("treemenu_home")
					_ = r.List()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, len(Defaults), r.Len())
}
