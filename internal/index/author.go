package index

import (
	"slices"

	"github.com/mesh-intelligence/shelf/internal/hashtable"
)

// AuthorIndex maps a normalized author name to the set of ISBNs written by
// that author. ISBNs are kept newest first with no duplicates.
type AuthorIndex struct {
	table *hashtable.Table[[]string]
}

// NewAuthorIndex creates an empty AuthorIndex.
func NewAuthorIndex(opts ...Option) *AuthorIndex {
	return &AuthorIndex{table: hashtable.New[[]string](opts...)}
}

// Add records isbn under author unless it is already there.
func (ix *AuthorIndex) Add(author, isbn string) {
	key := Normalize(author)
	isbns, _ := ix.table.Search(key)
	if slices.Contains(isbns, isbn) {
		return
	}
	ix.table.Insert(key, append([]string{isbn}, isbns...))
}

// ISBNs returns a copy of the ISBNs indexed under author, empty (not nil)
// for an unknown author.
func (ix *AuthorIndex) ISBNs(author string) []string {
	isbns, _ := ix.table.Search(Normalize(author))
	return append([]string{}, isbns...)
}

// Len returns the number of indexed authors.
func (ix *AuthorIndex) Len() int {
	return ix.table.Len()
}
