// Package index provides the catalogue's secondary indices. Both indices
// are built on hashtable.Table and store only ISBNs, never book payloads.
package index

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/shelf/internal/hashtable"
)

// Normalize case-folds s and collapses runs of whitespace to single
// spaces, trimming both ends. "  DUNE " and "dune" normalize equally.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Option configures the hash table underneath an index.
type Option = hashtable.Option
