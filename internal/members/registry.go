// Package members keeps the member registry: a hash table from member ID
// to the member's name and borrowed list.
package members

import (
	"slices"

	"github.com/mesh-intelligence/shelf/internal/hashtable"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Registry maps member IDs to members. Members are never removed.
type Registry struct {
	table *hashtable.Table[*types.Member]
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...hashtable.Option) *Registry {
	return &Registry{table: hashtable.New[*types.Member](opts...)}
}

// Add registers a member with nothing borrowed. Returns false if id is
// already registered.
func (r *Registry) Add(id, name string) bool {
	if r.table.Contains(id) {
		return false
	}
	r.table.Insert(id, &types.Member{MemberID: id, Name: name, Borrowed: []string{}})
	return true
}

// Restore creates or replaces a member with the given borrowed list,
// without applying the borrow limit. Used when loading trusted snapshots.
func (r *Registry) Restore(id, name string, borrowed []string) {
	r.table.Insert(id, &types.Member{
		MemberID: id,
		Name:     name,
		Borrowed: append([]string{}, borrowed...),
	})
}

// Get returns a copy of the member with the given id.
func (r *Registry) Get(id string) (types.Member, bool) {
	m, ok := r.table.Search(id)
	if !ok {
		return types.Member{}, false
	}
	return clone(m), true
}

// Exists reports whether id is registered.
func (r *Registry) Exists(id string) bool {
	return r.table.Contains(id)
}

// CanBorrow reports whether the member exists and is under the limit.
func (r *Registry) CanBorrow(id string) bool {
	m, ok := r.table.Search(id)
	return ok && m.CanBorrow()
}

// Borrow appends isbn to the member's borrowed list. Returns false if the
// member is unknown or already at the borrow limit.
func (r *Registry) Borrow(id, isbn string) bool {
	m, ok := r.table.Search(id)
	if !ok || !m.CanBorrow() {
		return false
	}
	m.Borrowed = append(m.Borrowed, isbn)
	return true
}

// Return removes one occurrence of isbn from the member's borrowed list.
// Returns false if the member is unknown or does not hold isbn.
func (r *Registry) Return(id, isbn string) bool {
	m, ok := r.table.Search(id)
	if !ok {
		return false
	}
	i := slices.Index(m.Borrowed, isbn)
	if i < 0 {
		return false
	}
	m.Borrowed = slices.Delete(m.Borrowed, i, i+1)
	return true
}

// All returns a copy of every member in bucket-chain order.
func (r *Registry) All() []types.Member {
	out := make([]types.Member, 0, r.table.Len())
	for _, m := range r.table.All() {
		out = append(out, clone(m))
	}
	return out
}

// Loans counts, per ISBN, the copies held across all members.
func (r *Registry) Loans() map[string]int {
	loans := make(map[string]int)
	for _, m := range r.table.All() {
		for _, isbn := range m.Borrowed {
			loans[isbn]++
		}
	}
	return loans
}

// Len returns the number of registered members.
func (r *Registry) Len() int {
	return r.table.Len()
}

func clone(m *types.Member) types.Member {
	c := *m
	c.Borrowed = append([]string{}, m.Borrowed...)
	return c
}
