// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package malloc

import (
	"sync/atomic"
)

const (
	minClassSize    = 128
	maxClassSize    = 8 * (1 << 20)
	classSizeFactor = 1.8
)

// ClassAllocator serves requests from size classed free lists on the Go
// heap. Requests larger than the biggest class go straight to make.
type ClassAllocator struct {
	classSizes []uint64
	pools      []classAllocatorPool
}

type classAllocatorPool struct {
	numAlloc atomic.Int64
	numFree  atomic.Int64
	ch       chan []byte
}

type classAllocatorHandle struct {
	buf       []byte
	class     int
	allocator *ClassAllocator
}

var _ Allocator = new(ClassAllocator)

// NewClassAllocator keeps at most maxBufferSize bytes of freed memory
// across all classes.
func NewClassAllocator(maxBufferSize uint64) *ClassAllocator {
	var classSizes []uint64
	for size := uint64(minClassSize); size <= maxClassSize; size = uint64(float64(size) * classSizeFactor) {
		classSizes = append(classSizes, size)
	}

	var classSumSize uint64
	for _, size := range classSizes {
		classSumSize += size
	}
	bufferedObjectsPerClass := int(maxBufferSize / classSumSize)

	pools := make([]classAllocatorPool, len(classSizes))
	for i := range pools {
		pools[i].ch = make(chan []byte, bufferedObjectsPerClass)
	}

	return &ClassAllocator{
		classSizes: classSizes,
		pools:      pools,
	}
}

func (p *ClassAllocator) requestSizeToClass(size uint64) int {
	for class, classSize := range p.classSizes {
		if classSize >= size {
			return class
		}
	}
	return -1
}

func (p *ClassAllocator) classAllocate(class int) []byte {
	select {
	case buf := <-p.pools[class].ch:
		p.pools[class].numAlloc.Add(1)
		clear(buf)
		return buf
	default:
		return make([]byte, p.classSizes[class])
	}
}

func (p *ClassAllocator) Allocate(size uint64) ([]byte, Deallocator, error) {
	if size == 0 {
		return []byte{}, dumbDeallocator, nil
	}
	class := p.requestSizeToClass(size)
	if class == -1 {
		return make([]byte, size), dumbDeallocator, nil
	}
	buf := p.classAllocate(class)
	return buf[:size], &classAllocatorHandle{
		buf:       buf,
		class:     class,
		allocator: p,
	}, nil
}

// Reused reports how many allocations were served from free lists.
func (p *ClassAllocator) Reused() int64 {
	var n int64
	for i := range p.pools {
		n += p.pools[i].numAlloc.Load()
	}
	return n
}

func (h *classAllocatorHandle) Deallocate() {
	select {
	case h.allocator.pools[h.class].ch <- h.buf:
		h.allocator.pools[h.class].numFree.Add(1)
	default:
	}
}
