package avl //nolint:testpackage // tests require access to unexported fields (storage, gaps, hibernated columns)

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorMallocFree(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, string]()
	first := alloc.malloc()
	second := alloc.malloc()

	assert.Equal(t, uint32(1), first, "slot 0 is reserved")
	assert.Equal(t, uint32(2), second)
	assert.Equal(t, 3, alloc.Size())
	assert.Equal(t, 3, alloc.Used())

	alloc.storage[first].key = 7
	alloc.free(first)
	assert.Equal(t, 2, alloc.Used())
	assert.Equal(t, node[int, string]{}, alloc.storage[first])
	assert.Panics(t, func() { alloc.free(first) }, "double free")

	assert.Equal(t, first, alloc.malloc(), "freed slots are recycled")
	assert.Equal(t, 3, alloc.Size())
}

func TestAllocatorFreeZero(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, int]()
	alloc.malloc()
	assert.PanicsWithValue(t, "node #0 is special and cannot be deallocated", func() { alloc.free(0) })
}

func TestCloneShallow(t *testing.T) {
	t.Parallel()

	alloc1 := NewAllocator[int, int]()
	tree := NewWithAllocator(alloc1, func(a, b int) int { return a - b })
	tree.Insert(7, 70)
	tree.Insert(8, 80)
	tree.Remove(8)

	assert.Equal(t, []node[int, int]{{}, {key: 7, value: 70}, {}}, alloc1.storage)

	alloc2 := alloc1.Clone()
	clone := tree.CloneShallow(alloc2)

	assert.Equal(t, alloc1.storage, alloc2.storage)
	assert.Equal(t, 1, clone.Len())
	assert.Same(t, alloc2, clone.Allocator())

	tree.Insert(10, 100)
	require.NoError(t, tree.Verify())

	assert.False(t, clone.Contains(10), "the clone does not see later inserts")
	assert.Equal(t, []int{7}, clone.Keys())
	assert.Equal(t, []int{7, 10}, tree.Keys())
	assert.Equal(t, 3, alloc2.Size())
}

func TestCloneDeep(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()

	for idx := range 100 {
		tree.Insert(idx, idx)
	}

	for idx := 0; idx < 100; idx += 3 {
		tree.Remove(idx)
	}

	alloc := NewAllocator[int, int]()
	clone := tree.CloneDeep(alloc)

	require.NoError(t, clone.Verify())
	assert.Equal(t, tree.Keys(), clone.Keys())
	assert.Equal(t, tree.Root().Key(), clone.Root().Key())
	assert.Equal(t, tree.Height(), clone.Height())
	assert.Equal(t, tree.Len()+1, alloc.Size(), "deep clones are compact")
	assert.Equal(t, alloc.Size(), alloc.Used())

	clone.Insert(1000, 1000)
	assert.False(t, tree.Contains(1000))
}

func TestAllocatorHibernateBoot(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[uint32, uint32]()

	for idx := range 10000 {
		nd := alloc.malloc()
		alloc.storage[nd].key = uint32(idx)
		alloc.storage[nd].value = uint32(idx)
		alloc.storage[nd].left = uint32(idx)
		alloc.storage[nd].right = uint32(idx)
		alloc.storage[nd].parent = uint32(idx)
		alloc.storage[nd].balance = int8(idx%3 - 1)
	}

	for idx := range 10000 {
		alloc.gaps[uint32(idx)] = true // Makes no sense, only to test.
	}

	alloc.Hibernate()
	assert.PanicsWithValue(t, "cannot hibernate an already hibernated Allocator", alloc.Hibernate)
	assert.True(t, alloc.Hibernated())
	assert.Nil(t, alloc.storage)
	assert.Nil(t, alloc.gaps)
	assert.Equal(t, 0, alloc.Size())
	assert.Positive(t, alloc.CompressedSize())
	assert.Equal(t, 10001, alloc.hibernatedStorageLen)
	assert.Equal(t, 10000, alloc.hibernatedGapsLen)
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.Used() })
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.malloc() })
	assert.PanicsWithValue(t, "hibernated allocators cannot be used", func() { alloc.free(0) })
	assert.PanicsWithValue(t, "cannot clone a hibernated allocator", func() { alloc.Clone() })

	alloc.Boot()
	assert.False(t, alloc.Hibernated())
	assert.Equal(t, 0, alloc.hibernatedStorageLen)
	assert.Equal(t, 0, alloc.hibernatedGapsLen)
	assert.Equal(t, 0, alloc.CompressedSize())

	for nd := 1; nd <= 10000; nd++ {
		assert.Equal(t, uint32(nd-1), alloc.storage[nd].key)
		assert.Equal(t, uint32(nd-1), alloc.storage[nd].value)
		assert.Equal(t, uint32(nd-1), alloc.storage[nd].left)
		assert.Equal(t, uint32(nd-1), alloc.storage[nd].right)
		assert.Equal(t, uint32(nd-1), alloc.storage[nd].parent)
		assert.Equal(t, int8((nd-1)%3-1), alloc.storage[nd].balance)
		assert.True(t, alloc.gaps[uint32(nd-1)])
	}
}

func TestAllocatorHibernateBootTree(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()

	for idx := range 5000 {
		tree.Insert((idx*7919)%5000, "v")
	}

	for idx := 0; idx < 5000; idx += 4 {
		tree.Remove(idx)
	}

	keys := tree.Keys()
	tree.Allocator().Hibernate()
	tree.Allocator().Boot()

	require.NoError(t, tree.Verify())
	assert.Equal(t, keys, tree.Keys())
	assert.True(t, tree.Insert(0, "back"))
}

func TestAllocatorHibernateBootEmpty(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, int]()
	alloc.Hibernate()
	alloc.Boot()
	assert.NotNil(t, alloc.gaps)
	assert.Equal(t, 0, alloc.Size())
	assert.Equal(t, 0, alloc.Used())
}

func TestAllocatorHibernateBootThreshold(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, int]()
	alloc.malloc()
	alloc.HibernationThreshold = 3
	assert.Equal(t, 3, alloc.Clone().HibernationThreshold)

	alloc.Hibernate()
	assert.Equal(t, 0, alloc.hibernatedStorageLen)
	assert.False(t, alloc.Hibernated())

	alloc.Boot()
	alloc.malloc()
	alloc.Hibernate()
	assert.Equal(t, 0, alloc.hibernatedGapsLen)
	assert.Equal(t, 3, alloc.hibernatedStorageLen)

	alloc.Boot()
	assert.Equal(t, 3, alloc.Size())
	assert.Equal(t, 3, alloc.Used())
	assert.NotNil(t, alloc.gaps)
}

func TestAllocatorBootCorrupt(t *testing.T) {
	t.Parallel()

	alloc := NewAllocator[int, int]()
	alloc.malloc()
	alloc.Hibernate()
	alloc.hibernatedData[columnLeft] = nil

	assert.Panics(t, alloc.Boot)
}
