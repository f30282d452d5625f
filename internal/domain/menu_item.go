package domain

import "fmt"

// Field limits for menu items.
const (
	MaxNameLength     = 100
	MaxMenuNameLength = 50
	MaxURLLength      = 2048
	MaxNamedURLLength = 100
)

// MenuItem is one entry of a named, hierarchical menu.
// Items are stored flat; the tree is rebuilt from ParentID on every render.
type MenuItem struct {
	Timestamps
	ID       int64  `json:"id"`
	Name     string `json:"name"`                // Display label: "About"
	MenuName string `json:"menu_name"`           // Menu the item belongs to: "main_menu"
	ParentID *int64 `json:"parent_id,omitempty"` // nil for root items
	URL      string `json:"url,omitempty"`       // Explicit path: "/about/"
	NamedURL string `json:"named_url,omitempty"` // Route name: "treemenu_about"
	Order    int    `json:"order"`               // Sibling order, ties broken by name
}

// IsRoot returns true if the item has no parent.
func (m *MenuItem) IsRoot() bool {
	return m.ParentID == nil
}

// IsNew returns true if the item has not been assigned an ID yet.
func (m *MenuItem) IsNew() bool {
	return m.ID == 0
}

// HasParent reports whether the item's parent is the given id.
func (m *MenuItem) HasParent(id int64) bool {
	return m.ParentID != nil && *m.ParentID == id
}

// String renders the item for logs and CLI output.
func (m *MenuItem) String() string {
	if m.ParentID == nil {
		return fmt.Sprintf("'%s' [%s] (Root)", m.Name, m.MenuName)
	}
	return fmt.Sprintf("'%s' [%s] (Parent: %d)", m.Name, m.MenuName, *m.ParentID)
}

// Clone returns a deep copy of the item.
func (m *MenuItem) Clone() *MenuItem {
	c := *m
	if m.ParentID != nil {
		p := *m.ParentID
		c.ParentID = &p
	}
	return &c
}

// ParentRef returns a pointer to a copy of id, for building ParentID values.
func ParentRef(id int64) *int64 {
	return &id
}

// MenuSummary describes a menu by name and how many items it holds.
type MenuSummary struct {
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}
