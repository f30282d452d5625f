package search

import (
	"strconv"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// ItemDocument is the flattened form of a menu item stored in the index.
type ItemDocument struct {
	ID       string
	ItemID   int64
	Name     string
	MenuName string
	URL      string
	NamedURL string
	ParentID int64 // 0 for roots
	Order    int
}

// DocID returns the index document id for a menu item id.
func DocID(itemID int64) string {
	return strconv.FormatInt(itemID, 10)
}

// NewItemDocument converts a menu item for indexing.
func NewItemDocument(item *domain.MenuItem) *ItemDocument {
	doc := &ItemDocument{
		ID:       DocID(item.ID),
		ItemID:   item.ID,
		Name:     item.Name,
		MenuName: item.MenuName,
		URL:      item.URL,
		NamedURL: item.NamedURL,
		Order:    item.Order,
	}
	if item.ParentID != nil {
		doc.ParentID = *item.ParentID
	}
	return doc
}

// ToMap uses the lowercase field names the mapping declares.
func (d *ItemDocument) ToMap() map[string]any {
	return map[string]any{
		"item_id":   float64(d.ItemID),
		"name":      d.Name,
		"menu_name": d.MenuName,
		"url":       d.URL,
		"named_url": d.NamedURL,
		"parent_id": float64(d.ParentID),
		"order":     float64(d.Order),
	}
}
