package avl

import (
	"maps"
	"math"
	"sync"

	"github.com/Sumatoshi-tech/avltree/pkg/safeconv"
)

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// Hibernated columns, in order. Keys and values are not compressed.
const (
	columnParent = iota
	columnLeft
	columnRight
	columnBalance
	columnGaps
	columnCount
)

const negativeLimitNode = math.MaxUint32

// Allocator owns the nodes of one or more AVL trees. Nodes are addressed by
// uint32 handles; handle 0 is reserved and stands for "no node".
type Allocator[K, V any] struct {
	storage              []node[K, V]
	gaps                 map[uint32]bool
	hibernatedData       [columnCount][]byte
	hibernatedKeys       []K
	hibernatedValues     []V
	HibernationThreshold int
	hibernatedStorageLen int
	hibernatedGapsLen    int
}

// NewAllocator creates a new allocator for AVL tree nodes.
func NewAllocator[K, V any]() *Allocator[K, V] {
	return &Allocator[K, V]{
		storage: []node[K, V]{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated size, including free slots and the reserved one.
func (allocator *Allocator[K, V]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of nodes contained in the allocator.
func (allocator *Allocator[K, V]) Used() int {
	allocator.assertAwake()

	return len(allocator.storage) - len(allocator.gaps)
}

// Hibernated reports whether the allocator is currently compressed.
func (allocator *Allocator[K, V]) Hibernated() bool {
	return allocator.storage == nil && allocator.hibernatedStorageLen > 0
}

// CompressedSize returns the number of bytes held by the compressed columns.
// It is zero unless the allocator is hibernated.
func (allocator *Allocator[K, V]) CompressedSize() int {
	total := 0

	for _, data := range allocator.hibernatedData {
		total += len(data)
	}

	return total
}

// Clone copies an existing allocator. Trees bound to the original can be
// re-bound to the clone with Tree.CloneShallow.
func (allocator *Allocator[K, V]) Clone() *Allocator[K, V] {
	if allocator.storage == nil {
		panic("cannot clone a hibernated allocator")
	}

	newAllocator := &Allocator[K, V]{
		HibernationThreshold: allocator.HibernationThreshold,
		storage:              make([]node[K, V], len(allocator.storage), cap(allocator.storage)),
		gaps:                 map[uint32]bool{},
	}
	copy(newAllocator.storage, allocator.storage)
	maps.Copy(newAllocator.gaps, allocator.gaps)

	return newAllocator
}

// Hibernate compresses the link and balance columns of the allocated nodes.
// Keys and values stay resident. Allocators smaller than HibernationThreshold
// are left untouched.
func (allocator *Allocator[K, V]) Hibernate() {
	if allocator.hibernatedStorageLen > 0 {
		panic("cannot hibernate an already hibernated Allocator")
	}

	if len(allocator.storage) < allocator.HibernationThreshold {
		return
	}

	allocator.hibernatedStorageLen = len(allocator.storage)
	if allocator.hibernatedStorageLen == 0 {
		allocator.storage = nil

		return
	}

	buffers := [columnGaps][]uint32{}

	for idx := range buffers {
		buffers[idx] = make([]uint32, len(allocator.storage))
	}

	allocator.hibernatedKeys = make([]K, len(allocator.storage))
	allocator.hibernatedValues = make([]V, len(allocator.storage))

	// We deinterleave to achieve a better compression ratio.
	for idx, nd := range allocator.storage {
		buffers[columnParent][idx] = nd.parent
		buffers[columnLeft][idx] = nd.left
		buffers[columnRight][idx] = nd.right
		buffers[columnBalance][idx] = uint32(int32(nd.balance)) //nolint:gosec // sign-extended on the way back
		allocator.hibernatedKeys[idx] = nd.key
		allocator.hibernatedValues[idx] = nd.value
	}

	allocator.storage = nil

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx, buffer := range buffers {
		go func(bufIdx int, buf []uint32) {
			allocator.hibernatedData[bufIdx] = CompressUInt32Slice(buf)
			buffers[bufIdx] = nil

			wg.Done()
		}(idx, buffer)
	}

	go func() {
		if len(allocator.gaps) > 0 {
			allocator.hibernatedGapsLen = len(allocator.gaps)

			gapsBuffer := make([]uint32, 0, len(allocator.gaps))
			for key := range allocator.gaps {
				gapsBuffer = append(gapsBuffer, key)
			}

			allocator.hibernatedData[columnGaps] = CompressUInt32Slice(gapsBuffer)
		}

		allocator.gaps = nil

		wg.Done()
	}()

	wg.Wait()
}

// Boot performs the opposite of Hibernate() - decompresses and restores the allocated memory.
func (allocator *Allocator[K, V]) Boot() {
	if allocator.storage == nil && allocator.hibernatedStorageLen == 0 {
		allocator.storage = []node[K, V]{}
		allocator.gaps = map[uint32]bool{}

		return
	}

	if allocator.hibernatedStorageLen == 0 {
		// Not hibernated.
		return
	}

	allocator.gaps = map[uint32]bool{}
	buffers := [columnGaps][]uint32{}
	errs := [columnCount]error{}

	wg := &sync.WaitGroup{}
	wg.Add(len(buffers) + 1)

	for idx := range buffers {
		go func(bufIdx int) {
			buffers[bufIdx] = make([]uint32, allocator.hibernatedStorageLen)
			errs[bufIdx] = DecompressUInt32Slice(allocator.hibernatedData[bufIdx], buffers[bufIdx])
			allocator.hibernatedData[bufIdx] = nil

			wg.Done()
		}(idx)
	}

	go func() {
		if allocator.hibernatedGapsLen > 0 {
			buffer := make([]uint32, allocator.hibernatedGapsLen)
			errs[columnGaps] = DecompressUInt32Slice(allocator.hibernatedData[columnGaps], buffer)

			for _, key := range buffer {
				allocator.gaps[key] = true
			}

			allocator.hibernatedData[columnGaps] = nil
			allocator.hibernatedGapsLen = 0
		}

		wg.Done()
	}()

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			panic("corrupt hibernated allocator: " + err.Error())
		}
	}

	capSize := (allocator.hibernatedStorageLen * growCapacityNumerator) / growCapacityDenominator
	allocator.storage = make([]node[K, V], allocator.hibernatedStorageLen, capSize)

	for idx := range allocator.storage {
		nd := &allocator.storage[idx]
		nd.key = allocator.hibernatedKeys[idx]
		nd.value = allocator.hibernatedValues[idx]
		nd.parent = buffers[columnParent][idx]
		nd.left = buffers[columnLeft][idx]
		nd.right = buffers[columnRight][idx]
		nd.balance = int8(int32(buffers[columnBalance][idx])) //nolint:gosec // written from an int8
	}

	allocator.hibernatedKeys = nil
	allocator.hibernatedValues = nil
	allocator.hibernatedStorageLen = 0
}

func (allocator *Allocator[K, V]) assertAwake() {
	if allocator.storage == nil {
		panic("hibernated allocators cannot be used")
	}
}

func (allocator *Allocator[K, V]) malloc() uint32 {
	allocator.assertAwake()

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node[K, V]{})
		nodeLen = 1
	}

	if nodeLen == negativeLimitNode-1 {
		// [math.MaxUint32] is reserved.
		panic("the AVL allocator has reached the maximum value for uint32")
	}

	allocator.storage = append(allocator.storage, node[K, V]{})

	return safeconv.MustIntToUint32(nodeLen)
}

func (allocator *Allocator[K, V]) free(nodeIdx uint32) {
	allocator.assertAwake()

	if nodeIdx == 0 {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)

	allocator.storage[nodeIdx] = node[K, V]{}
	allocator.gaps[nodeIdx] = true
}
