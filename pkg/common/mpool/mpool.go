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

package mpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/matrixorigin/packrow/pkg/common/malloc"
	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/logutil"
)

const (
	NoLimit = 0

	// DefaultBufferSize is the free list budget of the class allocator.
	DefaultBufferSize = 64 << 20
)

var (
	globalAllocator     malloc.Allocator
	globalAllocatorOnce sync.Once
)

// GlobalAllocator is the metered class allocator shared by pools that do
// not bring their own.
func GlobalAllocator() malloc.Allocator {
	globalAllocatorOnce.Do(func() {
		globalAllocator = malloc.NewMetricsAllocator(
			malloc.NewClassAllocator(DefaultBufferSize),
			malloc.AllocateBytesCounter,
			malloc.InuseBytesGauge,
			malloc.AllocateObjectsCounter,
			malloc.InuseObjectsGauge,
		)
	})
	return globalAllocator
}

type allocation struct {
	size int64
	dec  malloc.Deallocator
}

// MPool is a named, optionally capped accounting layer over an allocator.
// Every buffer a vector owns comes from an MPool and goes back through Free.
type MPool struct {
	name      string
	cap       int64
	curr      atomic.Int64
	peak      atomic.Int64
	allocator malloc.Allocator

	mu    sync.Mutex
	alive map[*byte]allocation
}

// NewMPool creates a pool over the global allocator. capacity 0 means no limit.
func NewMPool(name string, capacity int64) (*MPool, error) {
	return NewMPoolWithAllocator(name, capacity, GlobalAllocator())
}

func NewMPoolWithAllocator(name string, capacity int64, allocator malloc.Allocator) (*MPool, error) {
	if capacity < 0 {
		return nil, moerr.NewInvalidArgNoCtx("mpool capacity", capacity)
	}
	if allocator == nil {
		return nil, moerr.NewInvalidArgNoCtx("mpool allocator", "nil")
	}
	mp := &MPool{
		name:      name,
		cap:       capacity,
		allocator: allocator,
		alive:     make(map[*byte]allocation),
	}
	logutil.Debug("mpool created", zap.String("name", name), zap.Int64("cap", capacity))
	return mp, nil
}

// MustNewZero returns an unlimited pool, used by tests.
func MustNewZero() *MPool {
	mp, err := NewMPool("zero", NoLimit)
	if err != nil {
		panic(err)
	}
	return mp
}

func (mp *MPool) Name() string {
	return mp.name
}

func (mp *MPool) Cap() int64 {
	return mp.cap
}

// CurrNB is the number of bytes currently allocated.
func (mp *MPool) CurrNB() int64 {
	return mp.curr.Load()
}

func (mp *MPool) PeakNB() int64 {
	return mp.peak.Load()
}

// Alloc returns a zeroed buffer of sz bytes.
func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, moerr.NewInvalidArgNoCtx("mpool alloc size", sz)
	}
	if sz == 0 {
		return []byte{}, nil
	}
	nb := int64(sz)
	curr := mp.curr.Add(nb)
	if mp.cap > 0 && curr > mp.cap {
		mp.curr.Add(-nb)
		logutil.Warn("mpool out of capacity",
			zap.String("name", mp.name),
			zap.Int64("cap", mp.cap),
			zap.Int64("curr", curr-nb),
			zap.Int("request", sz))
		return nil, moerr.NewOOMNoCtx()
	}
	buf, dec, err := mp.allocator.Allocate(uint64(sz))
	if err != nil {
		mp.curr.Add(-nb)
		return nil, err
	}
	for {
		peak := mp.peak.Load()
		if curr <= peak || mp.peak.CompareAndSwap(peak, curr) {
			break
		}
	}
	mp.mu.Lock()
	mp.alive[unsafe.SliceData(buf)] = allocation{size: nb, dec: dec}
	mp.mu.Unlock()
	return buf, nil
}

// Free returns a buffer obtained from Alloc. Freeing a foreign buffer is a
// programming error and panics.
func (mp *MPool) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	ptr := unsafe.SliceData(buf)
	mp.mu.Lock()
	a, ok := mp.alive[ptr]
	if ok {
		delete(mp.alive, ptr)
	}
	mp.mu.Unlock()
	if !ok {
		panic(moerr.NewInternalErrorNoCtx("mpool %s: free of unknown buffer", mp.name))
	}
	mp.curr.Add(-a.size)
	a.dec.Deallocate()
}

// Grow reallocates buf to hold at least sz bytes, keeping its content.
func (mp *MPool) Grow(buf []byte, sz int) ([]byte, error) {
	if sz <= len(buf) {
		return buf[:sz], nil
	}
	nbuf, err := mp.Alloc(sz)
	if err != nil {
		return nil, err
	}
	copy(nbuf, buf)
	mp.Free(buf)
	return nbuf, nil
}

func (mp *MPool) Report() string {
	return fmt.Sprintf("mpool %s: cap %d, curr %d, peak %d", mp.name, mp.cap, mp.CurrNB(), mp.PeakNB())
}
