package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsPolynomialBase31(t *testing.T) {
	// "ab" = (97*31 + 98) = 3105; 3105 % 100 = 5
	assert.Equal(t, 5, hash("ab", 100))
	assert.Equal(t, 0, hash("", 100))
	assert.Equal(t, hash("ab", 7), (97*31+98)%7)

	for _, k := range []string{"Dune", "herbert", "978-0441013593", "ñandú"} {
		h := hash(k, 13)
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, 13)
	}
}

func TestInsertThenSearch(t *testing.T) {
	tbl := New[int]()
	keys := []string{"alpha", "beta", "gamma", "delta", ""}
	for i, k := range keys {
		tbl.Insert(k, i)
		got, ok := tbl.Search(k)
		require.True(t, ok, "key %q should be found right after insert", k)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, len(keys), tbl.Len())

	_, ok := tbl.Search("missing")
	assert.False(t, ok)
}

func TestInsertExistingKeyReplaces(t *testing.T) {
	tbl := New[string]()
	tbl.Insert("k", "old")
	tbl.Insert("k", "new")

	got, ok := tbl.Search("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, tbl.Len(), "re-insert must not create a second entry")

	count := 0
	for k := range tbl.All() {
		if k == "k" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCollidingKeysShareABucket(t *testing.T) {
	// A single bucket forces every key into one chain.
	tbl := New[int](WithBuckets(1))
	for i := range 20 {
		tbl.Insert(fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, 1, tbl.Buckets())
	for i := range 20 {
		got, ok := tbl.Search(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

func TestNewKeysGoToChainHead(t *testing.T) {
	tbl := New[int](WithBuckets(1))
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)
	tbl.Insert("c", 3)
	tbl.Insert("a", 10)

	var keys []string
	for k := range tbl.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys, "update keeps position, inserts prepend")

	got, _ := tbl.Search("a")
	assert.Equal(t, 10, got)
}

func TestDelete(t *testing.T) {
	tbl := New[int](WithBuckets(1))
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)
	tbl.Insert("c", 3)

	assert.True(t, tbl.Delete("b"))
	assert.False(t, tbl.Delete("b"), "second delete of the same key reports absent")
	assert.False(t, tbl.Delete("zzz"))
	assert.Equal(t, 2, tbl.Len())

	_, ok := tbl.Search("b")
	assert.False(t, ok)
	for _, k := range []string{"a", "c"} {
		assert.True(t, tbl.Contains(k), "neighbour %q must survive relinking", k)
	}
}

func TestFixedTableNeverRehashes(t *testing.T) {
	tbl := New[int](WithBuckets(4))
	for i := range 100 {
		tbl.Insert(fmt.Sprintf("%d", i), i)
	}
	assert.Equal(t, 4, tbl.Buckets())
	assert.InDelta(t, 25.0, tbl.LoadFactor(), 0.0001)
}

func TestRehashKeepsEntries(t *testing.T) {
	tbl := New[int](WithBuckets(4), WithMaxLoadFactor(0.75))
	for i := range 100 {
		tbl.Insert(fmt.Sprintf("isbn-%03d", i), i)
		assert.LessOrEqual(t, tbl.LoadFactor(), 0.75)
	}
	assert.Greater(t, tbl.Buckets(), 4)
	assert.Equal(t, 100, tbl.Len())
	for i := range 100 {
		got, ok := tbl.Search(fmt.Sprintf("isbn-%03d", i))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

func TestAllStopsEarly(t *testing.T) {
	tbl := New[int]()
	for i := range 10 {
		tbl.Insert(fmt.Sprintf("%d", i), i)
	}
	seen := 0
	for range tbl.All() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}
