package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/treemenu/treemenu-server/internal/domain"
	"github.com/treemenu/treemenu-server/internal/errors"
)

// Fixture is a portable list of menu items. Parents are referenced by key
// so a fixture can be loaded into any store.
type Fixture struct {
	Items []FixtureItem `json:"items" toml:"items" yaml:"items"`
}

// FixtureItem is one item of a Fixture. ParentKey must name an earlier item.
type FixtureItem struct {
	Key       string `json:"key" toml:"key" yaml:"key"`
	Name      string `json:"name" toml:"name" yaml:"name"`
	MenuName  string `json:"menu_name" toml:"menu_name" yaml:"menu_name"`
	ParentKey string `json:"parent,omitempty" toml:"parent,omitempty" yaml:"parent,omitempty"`
	URL       string `json:"url,omitempty" toml:"url,omitempty" yaml:"url,omitempty"`
	NamedURL  string `json:"named_url,omitempty" toml:"named_url,omitempty" yaml:"named_url,omitempty"`
	Order     int    `json:"order" toml:"order" yaml:"order"`
}

// LoadFixture reads a fixture from a .toml, .yaml or .yml file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- fixture path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parse toml fixture: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml fixture: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture extension %q", ext)
	}
	return &f, nil
}

// ImportItems creates every fixture item in order and returns the id given to each key.
// It stops at the first failure; items created before it are kept.
func (s *MenuService) ImportItems(ctx context.Context, f *Fixture) (map[string]int64, error) {
	ids := make(map[string]int64, len(f.Items))

	for i, fi := range f.Items {
		if fi.Key == "" {
			return ids, errors.Validationf("fixture item %d has no key", i)
		}
		if _, dup := ids[fi.Key]; dup {
			return ids, errors.Validationf("fixture key %q is used twice", fi.Key)
		}

		req := CreateItemRequest{
			Name:     fi.Name,
			MenuName: fi.MenuName,
			URL:      fi.URL,
			NamedURL: fi.NamedURL,
			Order:    fi.Order,
		}
		if fi.ParentKey != "" {
			parentID, ok := ids[fi.ParentKey]
			if !ok {
				return ids, errors.Validationf("fixture item %q: parent %q is not defined before it", fi.Key, fi.ParentKey)
			}
			req.ParentID = &parentID
		}

		item, err := s.CreateItem(ctx, req)
		if err != nil {
			return ids, fmt.Errorf("fixture item %q: %w", fi.Key, err)
		}
		ids[fi.Key] = item.ID
	}

	s.logger.Info("fixture imported", "items", len(ids))
	return ids, nil
}

// ExportFixture dumps every stored item as a fixture that ImportItems can load.
// Parents always precede their children, including parents in another menu.
// Items whose parent is missing are exported as roots, as are items on a parent loop.
func (s *MenuService) ExportFixture(ctx context.Context) (*Fixture, error) {
	items, err := s.store.ListAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	byID := make(map[int64]*domain.MenuItem, len(items))
	children := make(map[int64][]*domain.MenuItem)
	for _, item := range items {
		byID[item.ID] = item
	}

	var roots []*domain.MenuItem
	for _, item := range items {
		var parent *domain.MenuItem
		if item.ParentID != nil {
			parent = byID[*item.ParentID]
		}
		if parent != nil {
			children[parent.ID] = append(children[parent.ID], item)
			continue
		}
		roots = append(roots, item)
	}

	f := &Fixture{Items: make([]FixtureItem, 0, len(items))}
	emitted := make(map[int64]bool, len(items))

	var emit func(item *domain.MenuItem, parentKey string)
	emit = func(item *domain.MenuItem, parentKey string) {
		emitted[item.ID] = true
		f.Items = append(f.Items, FixtureItem{
			Key:       fixtureKey(item.ID),
			Name:      item.Name,
			MenuName:  item.MenuName,
			ParentKey: parentKey,
			URL:       item.URL,
			NamedURL:  item.NamedURL,
			Order:     item.Order,
		})
		for _, child := range children[item.ID] {
			if !emitted[child.ID] {
				emit(child, fixtureKey(item.ID))
			}
		}
	}
	for _, root := range roots {
		emit(root, "")
	}

	// Whatever is left sits on a loop and was never reached from a root.
	for _, item := range items {
		if !emitted[item.ID] {
			s.logger.Warn("exporting looped item as a root", "id", item.ID, "menu_name", item.MenuName)
			emit(item, "")
		}
	}

	return f, nil
}

func fixtureKey(id int64) string {
	return fmt.Sprintf("item-%d", id)
}

// WriteFixture encodes f as "toml" or "yaml".
func WriteFixture(w io.Writer, f *Fixture, format string) error {
	switch strings.ToLower(format) {
	case "toml":
		return toml.NewEncoder(w).Encode(f)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported fixture format %q (want toml or yaml)", format)
	}
}

// DemoFixture returns the sample main and sidebar menus that link to the built-in routes.
func DemoFixture() *Fixture {
	return &Fixture{Items: []FixtureItem{
		{Key: "home", Name: "Home", MenuName: "main_menu", NamedURL: "treemenu_home", Order: 0},
		{Key: "about", Name: "About", MenuName: "main_menu", NamedURL: "treemenu_about", Order: 1},
		{Key: "services", Name: "Services", MenuName: "main_menu", NamedURL: "treemenu_services", Order: 2},
		{Key: "web", Name: "Web Development", MenuName: "main_menu", ParentKey: "services", NamedURL: "treemenu_services_web", Order: 0},
		{Key: "mobile", Name: "Mobile Apps", MenuName: "main_menu", ParentKey: "services", NamedURL: "treemenu_services_mobile", Order: 1},
		{Key: "contact", Name: "Contact", MenuName: "main_menu", NamedURL: "treemenu_contact", Order: 3},
		{Key: "docs", Name: "Documentation", MenuName: "main_menu", URL: "https://example.com/docs", Order: 4},

		{Key: "profile", Name: "Profile", MenuName: "sidebar_menu", NamedURL: "treemenu_profile", Order: 0},
		{Key: "settings", Name: "Settings", MenuName: "sidebar_menu", NamedURL: "treemenu_settings", Order: 1},
		{Key: "account", Name: "Account", MenuName: "sidebar_menu", ParentKey: "settings", NamedURL: "treemenu_settings_account", Order: 0},
		{Key: "privacy", Name: "Privacy", MenuName: "sidebar_menu", ParentKey: "settings", NamedURL: "treemenu_settings_privacy", URL: "/settings/privacy/", Order: 1},
		{Key: "help", Name: "Help", MenuName: "sidebar_menu", Order: 2},
	}}
}
