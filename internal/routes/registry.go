// Package routes maps symbolic route names to paths for menu link resolution.
package routes

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/treemenu/treemenu-server/internal/menu"
)

// Defaults are the demo site's named routes.
var Defaults = map[string]string{
	"treemenu_home":             "/",
	"treemenu_about":            "/about/",
	"treemenu_services":         "/services/",
	"treemenu_services_web":     "/services/web/",
	"treemenu_services_mobile":  "/services/mobile/",
	"treemenu_contact":          "/contact/",
	"treemenu_profile":          "/profile/",
	"treemenu_settings":         "/settings/",
	"treemenu_settings_account": "/settings/account/",
}

// Route is one named path.
type Route struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Registry is a concurrency-safe name to path table. It implements menu.URLResolver.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]string
}

var _ menu.URLResolver = (*Registry)(nil)

// NewRegistry creates a registry holding a copy of routes.
func NewRegistry(routes map[string]string) *Registry {
	return &Registry{routes: maps.Clone(routes)}
}

// NewDefaultRegistry creates a registry with the built-in routes.
func NewDefaultRegistry() *Registry {
	return NewRegistry(Defaults)
}

// Reverse returns the path registered under name.
func (r *Registry) Reverse(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.routes[name]
	if !ok {
		return "", fmt.Errorf("route %q: %w", name, menu.ErrNoReverseMatch)
	}
	return path, nil
}

// Replace swaps the whole table atomically.
func (r *Registry) Replace(routes map[string]string) {
	next := maps.Clone(routes)
	if next == nil {
		next = map[string]string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = next
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// List returns the routes sorted by name.
func (r *Registry) List() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Route, 0, len(r.routes))
	for _, name := range slices.Sorted(maps.Keys(r.routes)) {
		out = append(out, Route{Name: name, Path: r.routes[name]})
	}
	return out
}
