package index

import "github.com/mesh-intelligence/shelf/internal/hashtable"

// TitleIndex maps a normalized title to one ISBN. Adding a second ISBN
// under an equal normalized title replaces the first mapping.
type TitleIndex struct {
	table *hashtable.Table[string]
}

// NewTitleIndex creates an empty TitleIndex.
func NewTitleIndex(opts ...Option) *TitleIndex {
	return &TitleIndex{table: hashtable.New[string](opts...)}
}

// Add maps title to isbn, overwriting any previous mapping.
func (ix *TitleIndex) Add(title, isbn string) {
	ix.table.Insert(Normalize(title), isbn)
}

// Get returns the ISBN indexed under title.
func (ix *TitleIndex) Get(title string) (string, bool) {
	return ix.table.Search(Normalize(title))
}

// Exists reports whether title is indexed.
func (ix *TitleIndex) Exists(title string) bool {
	return ix.table.Contains(Normalize(title))
}

// Remove deletes the mapping for title. Returns false if it was absent.
func (ix *TitleIndex) Remove(title string) bool {
	return ix.table.Delete(Normalize(title))
}

// Len returns the number of indexed titles.
func (ix *TitleIndex) Len() int {
	return ix.table.Len()
}
