package avl

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants walks the tree and fails if ordering, cached heights, or
// balance factors are wrong. Returns the subtree height and node count.
func checkInvariants[K ~string | ~int, V any](t *testing.T, n *node[K, V], lo, hi *K) (int, int) {
	t.Helper()
	if n == nil {
		return -1, 0
	}
	if lo != nil {
		require.Greater(t, n.key, *lo, "key must exceed every key in its left ancestry")
	}
	if hi != nil {
		require.Less(t, n.key, *hi, "key must be below every key in its right ancestry")
	}
	lh, lc := checkInvariants(t, n.left, lo, &n.key)
	rh, rc := checkInvariants(t, n.right, &n.key, hi)
	require.Equal(t, 1+max(lh, rh), n.height, "cached height at %v", n.key)
	bf := lh - rh
	require.True(t, bf >= -1 && bf <= 1, "balance factor %d at %v", bf, n.key)
	return n.height, lc + rc + 1
}

func TestEmptyTree(t *testing.T) {
	var tr Tree[string, int]
	assert.Equal(t, -1, tr.Height())
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.InOrder())
	_, ok := tr.Search("x")
	assert.False(t, ok)
}

func TestLeafHeightIsZero(t *testing.T) {
	tr := New[string, int]()
	require.True(t, tr.Insert("m", 1))
	assert.Equal(t, 0, tr.Height())
}

func TestRotationCases(t *testing.T) {
	tests := []struct {
		name  string
		order []int
		root  int
	}{
		{name: "left-left", order: []int{3, 2, 1}, root: 2},
		{name: "right-right", order: []int{1, 2, 3}, root: 2},
		{name: "left-right", order: []int{3, 1, 2}, root: 2},
		{name: "right-left", order: []int{1, 3, 2}, root: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New[int, string]()
			for _, k := range tt.order {
				require.True(t, tr.Insert(k, fmt.Sprint(k)))
			}
			assert.Equal(t, tt.root, tr.root.key)
			assert.Equal(t, 1, tr.Height())
			checkInvariants(t, tr.root, nil, nil)
		})
	}
}

func TestBalancedAfterEveryInsert(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	keys := rng.Perm(500)

	tr := New[int, int]()
	for i, k := range keys {
		require.True(t, tr.Insert(k, k*10))
		_, count := checkInvariants(t, tr.root, nil, nil)
		require.Equal(t, i+1, count)
		require.Equal(t, i+1, tr.Len())
	}

	entries := tr.InOrder()
	require.Len(t, entries, len(keys))
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Key, entries[i].Key, "inorder must be strictly ascending")
	}
	// 1.44*log2(501) bounds an AVL tree of 500 nodes well under 13.
	assert.LessOrEqual(t, tr.Height(), 12)
}

func TestSequentialStringKeysStayBalanced(t *testing.T) {
	tr := New[string, int]()
	var want []string
	for i := range 200 {
		k := fmt.Sprintf("978-%06d", i)
		want = append(want, k)
		tr.Insert(k, i)
		checkInvariants(t, tr.root, nil, nil)
	}
	sort.Strings(want)

	got := make([]string, 0, len(want))
	for _, e := range tr.InOrder() {
		got = append(got, e.Key)
	}
	assert.Equal(t, want, got)
}

func TestDuplicateInsertLeavesTreeUnchanged(t *testing.T) {
	tr := New[string, string]()
	for _, k := range []string{"d", "b", "f", "a", "c", "e", "g"} {
		tr.Insert(k, "orig-"+k)
	}
	before := tr.InOrder()
	rootKey, rootHeight := tr.root.key, tr.Height()

	assert.False(t, tr.Insert("c", "replacement"))

	assert.Equal(t, 7, tr.Len())
	assert.Equal(t, before, tr.InOrder())
	assert.Equal(t, rootKey, tr.root.key)
	assert.Equal(t, rootHeight, tr.Height())
	got, ok := tr.Search("c")
	require.True(t, ok)
	assert.Equal(t, "orig-c", got, "original payload wins")
}

func TestSearch(t *testing.T) {
	tr := New[string, int]()
	for i, k := range []string{"111", "222", "333", "444"} {
		tr.Insert(k, i)
	}
	for i, k := range []string{"111", "222", "333", "444"} {
		got, ok := tr.Search(k)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.False(t, tr.Contains("000"))
	assert.False(t, tr.Contains("555"))
}

func TestPointerPayloadIsShared(t *testing.T) {
	type rec struct{ n int }
	tr := New[string, *rec]()
	tr.Insert("k", &rec{n: 1})

	r, _ := tr.Search("k")
	r.n = 5

	again, _ := tr.Search("k")
	assert.Equal(t, 5, again.n)
}
