// Package menu builds renderable menu trees from flat item lists.
//
// Items arrive pre-sorted by (parent_id, order, name). Build wraps each one
// in a Node carrying its resolved link and children, ResolveActive finds the
// item matching the current request path and the ancestors to expand, and
// the write-time Guard keeps parent chains acyclic.
package menu

import (
	"errors"
	"log/slog"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// NoLink is the resolved URL of an item with no usable destination.
const NoLink = "#"

// ErrNoReverseMatch is returned by a URLResolver that does not know a route name.
var ErrNoReverseMatch = errors.New("no reverse match")

// URLResolver maps a symbolic route name to a concrete path.
type URLResolver interface {
	Reverse(name string) (string, error)
}

// ResolverFunc adapts a function to URLResolver.
type ResolverFunc func(name string) (string, error)

// Reverse calls f(name).
func (f ResolverFunc) Reverse(name string) (string, error) {
	return f(name)
}

// ResolveURL returns the link an item points at.
// A named URL wins when it resolves; a failure is logged and the explicit
// URL is used instead. Items with neither resolve to NoLink.
func ResolveURL(item *domain.MenuItem, resolver URLResolver, logger *slog.Logger) string {
	if item.NamedURL != "" && resolver != nil {
		path, err := resolver.Reverse(item.NamedURL)
		if err == nil {
			return path
		}
		orDiscard(logger).Warn("named url failed to resolve, falling back",
			"item_id", item.ID,
			"item_name", item.Name,
			"named_url", item.NamedURL,
			"error", err,
		)
	}
	if item.URL != "" {
		return item.URL
	}
	return NoLink
}

// DisplayURL is the admin listing form of a resolved URL: "-" when there is no link.
func DisplayURL(resolved string) string {
	if resolved == "" || resolved == NoLink {
		return "-"
	}
	return resolved
}

var discardLogger = slog.New(slog.DiscardHandler)

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discardLogger
	}
	return logger
}
