// Package normalize cleans up user-supplied menu text before it is stored.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Label prepares a display label for storage.
// Composes unicode (NFC) so visually identical labels compare and sort equal
// and trims the ends. Inner spacing is kept as typed.
func Label(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// MenuName trims a menu identifier. Inner characters are kept as typed since
// templates refer to menus by exact name.
func MenuName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Path trims an explicit URL. Matching against request paths is exact,
// so nothing else (case, trailing slash) is touched.
func Path(s string) string {
	return strings.TrimSpace(s)
}
