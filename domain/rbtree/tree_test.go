package rbtree_test

import (
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"

	"rbtengine/domain/rbtree"
)

const (
	size = 5_000
	seed = 42
)

func insertAll[K constraints.Ordered](t *testing.T, tree *rbtree.Tree[K], keys ...K) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, tree.Insert(k), "insert %v", k)
	}
}

func TestInsertThreeKeys(t *testing.T) {
	tree := rbtree.New[string]()
	insertAll(t, tree, "A", "K", "Z")

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, rbtree.Black, root.Color)
	assert.Equal(t, "K", root.Key)
	assert.Equal(t, []string{"A", "K", "Z"}, tree.Traverse(rbtree.InOrder))
	assert.Equal(t, []string{"K", "A", "Z"}, tree.Traverse(rbtree.PreOrder))
	assert.Equal(t, []string{"A", "Z", "K"}, tree.Traverse(rbtree.PostOrder))
	require.NoError(t, tree.Validate())
}

func TestInsertDuplicateIsRejected(t *testing.T) {
	tree := rbtree.New[string]()
	insertAll(t, tree, "A", "K", "Z")
	before := tree.StructureSnapshot()

	err := tree.Insert("A")
	require.ErrorIs(t, err, rbtree.ErrDuplicateKey)

	assert.True(t, before.Equal(tree.StructureSnapshot()), "duplicate insert changed the tree")
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, []string{"A", "K", "Z"}, tree.Keys())
}

func TestDeleteLeaf(t *testing.T) {
	tree := rbtree.New[string]()
	insertAll(t, tree, "A", "K", "Z")

	require.NoError(t, tree.Delete("A"))

	assert.Equal(t, []string{"K", "Z"}, tree.Keys())
	require.NoError(t, tree.Validate())
	_, found := tree.Search("A")
	assert.False(t, found)
	assert.Equal(t, 2, tree.Len())
}

func TestDeleteMissingKey(t *testing.T) {
	tree := rbtree.New[string]()
	insertAll(t, tree, "A", "K", "Z")
	before := tree.StructureSnapshot()

	require.ErrorIs(t, tree.Delete("Q"), rbtree.ErrKeyNotFound)
	assert.True(t, before.Equal(tree.StructureSnapshot()))

	empty := rbtree.New[string]()
	require.ErrorIs(t, empty.Delete("Q"), rbtree.ErrKeyNotFound)
}

func TestInsertRotationSequence(t *testing.T) {
	tree := rbtree.New[string]()
	insertAll(t, tree, "M", "N", "O", "P", "Q", "L", "K")
	require.NoError(t, tree.Validate())

	//         N(B)
	//       /      \
	//    L(B)      P(B)
	//   /   \     /   \
	// K(R) M(R) O(R) Q(R)
	want := &rbtree.Shape[string]{
		Key: "N", Color: rbtree.Black,
		Left: &rbtree.Shape[string]{
			Key: "L", Color: rbtree.Black,
			Left:  &rbtree.Shape[string]{Key: "K", Color: rbtree.Red},
			Right: &rbtree.Shape[string]{Key: "M", Color: rbtree.Red},
		},
		Right: &rbtree.Shape[string]{
			Key: "P", Color: rbtree.Black,
			Left:  &rbtree.Shape[string]{Key: "O", Color: rbtree.Red},
			Right: &rbtree.Shape[string]{Key: "Q", Color: rbtree.Red},
		},
	}
	assert.True(t, want.Equal(tree.StructureSnapshot()))
	assert.Equal(t, 2, tree.BlackHeight())
	assert.Equal(t, []string{"N", "L", "K", "M", "P", "O", "Q"}, tree.Traverse(rbtree.PreOrder))
	assert.Equal(t, []string{"K", "M", "L", "O", "Q", "P", "N"}, tree.Traverse(rbtree.PostOrder))

	// Two children, red successor.
	require.NoError(t, tree.Delete("N"))
	require.NoError(t, tree.Validate())
	root, _ := tree.Root()
	assert.Equal(t, "O", root.Key)

	// Black leaves force the deletion fix-up.
	for _, k := range []string{"K", "M", "L", "Q", "P"} {
		require.NoError(t, tree.Delete(k))
		require.NoError(t, tree.Validate(), "after deleting %s", k)
	}
	assert.Equal(t, []string{"O"}, tree.Keys())
}

func TestInsertOrders(t *testing.T) {
	r := rand.New(rand.NewPCG(seed, seed))
	random := r.Perm(size)
	sorted := make([]int, size)
	reversed := make([]int, size)
	for i := range sorted {
		sorted[i] = i
		reversed[i] = size - 1 - i
	}

	tests := []struct {
		name  string
		input []int
	}{
		{"Empty", nil},
		{"Single", []int{1}},
		{"Random", random},
		{"Sorted", sorted},
		{"Reversed", reversed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := rbtree.New[int]()
			insertAll(t, tree, tt.input...)

			require.NoError(t, tree.Validate())
			require.Equal(t, len(tt.input), tree.Len())

			keys := tree.Keys()
			for i := 1; i < len(keys); i++ {
				require.Less(t, keys[i-1], keys[i])
			}

			bound := 2 * math.Log2(float64(len(tt.input)+1))
			assert.LessOrEqual(t, float64(tree.Height()), bound)
		})
	}
}

func TestDeleteRandomOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(seed, seed+1))
	tree := rbtree.New[int]()
	keys := r.Perm(size / 5)
	insertAll(t, tree, keys...)

	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for i, k := range keys {
		require.NoError(t, tree.Delete(k))
		require.False(t, tree.Contains(k), "key %d still present (iteration %d)", k, i)
		require.NoError(t, tree.Validate(), "after deleting %d (iteration %d)", k, i)
	}
	assert.Zero(t, tree.Len())
	_, ok := tree.Root()
	assert.False(t, ok)
}

func TestMixedOperations(t *testing.T) {
	r := rand.New(rand.NewPCG(seed, seed+2))
	tree := rbtree.New[int]()
	present := map[int]bool{}

	for i := 0; i < size; i++ {
		k := r.IntN(size / 10)
		if r.IntN(3) == 0 {
			err := tree.Delete(k)
			if present[k] {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, rbtree.ErrKeyNotFound)
			}
			delete(present, k)
		} else {
			err := tree.Insert(k)
			if present[k] {
				require.ErrorIs(t, err, rbtree.ErrDuplicateKey)
			} else {
				require.NoError(t, err)
			}
			present[k] = true
		}
		if i%50 == 0 {
			require.NoError(t, tree.Validate(), "step %d", i)
		}
	}
	require.NoError(t, tree.Validate())
	assert.Equal(t, len(present), tree.Len())
	for k := range present {
		assert.True(t, tree.Contains(k))
	}
}

func TestSearchRoundTrip(t *testing.T) {
	tree := rbtree.New[string]()
	for i := 0; i < 100; i++ {
		k := strconv.Itoa(i)
		require.NoError(t, tree.Insert(k))
		n, ok := tree.Search(k)
		require.True(t, ok)
		assert.Equal(t, k, n.Key)
	}
	for i := 0; i < 100; i += 2 {
		k := strconv.Itoa(i)
		require.NoError(t, tree.Delete(k))
		_, ok := tree.Search(k)
		assert.False(t, ok)
	}
	n, ok := tree.Search("1")
	require.True(t, ok)
	assert.Equal(t, "1", n.Key)
}

func TestMinMax(t *testing.T) {
	tree := rbtree.New[int]()
	_, ok := tree.Min()
	assert.False(t, ok)
	_, ok = tree.Max()
	assert.False(t, ok)

	insertAll(t, tree, 50, 20, 80, 10, 90)
	lo, _ := tree.Min()
	hi, _ := tree.Max()
	assert.Equal(t, 10, lo.Key)
	assert.Equal(t, 90, hi.Key)
}

func TestFloatKeysWithNaN(t *testing.T) {
	nan := math.NaN()
	tree := rbtree.New[float64]()
	insertAll(t, tree, 2.5, nan, 1.0, -3.0, 7.0)
	require.ErrorIs(t, tree.Insert(math.NaN()), rbtree.ErrDuplicateKey)
	require.ErrorIs(t, tree.Insert(1.0), rbtree.ErrDuplicateKey)
	require.NoError(t, tree.Validate())
	assert.Equal(t, 5, tree.Len())

	keys := tree.Keys()
	require.Len(t, keys, 5)
	assert.True(t, math.IsNaN(keys[0]))
	assert.Equal(t, []float64{-3.0, 1.0, 2.5, 7.0}, keys[1:])

	lo, ok := tree.Min()
	require.True(t, ok)
	assert.True(t, math.IsNaN(lo.Key))
	assert.True(t, tree.Contains(nan))
	assert.True(t, tree.StructureSnapshot().Equal(tree.StructureSnapshot()))

	require.NoError(t, tree.Delete(nan))
	require.NoError(t, tree.Validate())
	assert.False(t, tree.Contains(nan))
	assert.Equal(t, []float64{-3.0, 1.0, 2.5, 7.0}, tree.Keys())
}

func TestWalkEarlyBreakAndRestart(t *testing.T) {
	tree := rbtree.New[int]()
	insertAll(t, tree, 5, 3, 8, 1, 4)

	var got []int
	for k := range tree.Walk(rbtree.InOrder) {
		got = append(got, k)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, []int{1, 3, 4, 5, 8}, tree.Traverse(rbtree.InOrder))
}

func TestTraverseEmpty(t *testing.T) {
	tree := rbtree.New[string]()
	for _, o := range []rbtree.Order{rbtree.InOrder, rbtree.PreOrder, rbtree.PostOrder} {
		assert.Empty(t, tree.Traverse(o), o.String())
	}
	assert.Nil(t, tree.StructureSnapshot())
	assert.Zero(t, tree.Height())
	require.NoError(t, tree.Validate())
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]rbtree.Order{
		"in": rbtree.InOrder, "INORDER": rbtree.InOrder,
		"pre": rbtree.PreOrder, "pre-order": rbtree.PreOrder,
		"post": rbtree.PostOrder, " PostOrder ": rbtree.PostOrder,
	} {
		got, err := rbtree.ParseOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := rbtree.ParseOrder("level")
	require.ErrorIs(t, err, rbtree.ErrUnknownOrder)
}

func TestClear(t *testing.T) {
	tree := rbtree.New[int]()
	insertAll(t, tree, 3, 1, 2)
	tree.Clear()
	assert.Zero(t, tree.Len())
	assert.Empty(t, tree.Keys())
	require.NoError(t, tree.Validate())

	insertAll(t, tree, 7)
	assert.Equal(t, []int{7}, tree.Keys())
}

func BenchmarkInsert(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run("Size-"+strconv.Itoa(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree := rbtree.New[int]()
				for k := 0; k < n; k++ {
					_ = tree.Insert(k)
				}
			}
		})
	}
}

func BenchmarkDelete(b *testing.B) {
	tree := rbtree.New[int]()
	for k := 0; k < size; k++ {
		_ = tree.Insert(k)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := i % size
		_ = tree.Delete(k)
		_ = tree.Insert(k)
	}
}

func BenchmarkSearch(b *testing.B) {
	tree := rbtree.New[int]()
	for k := 0; k < size; k++ {
		_ = tree.Insert(k)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Contains(i % size)
	}
}
