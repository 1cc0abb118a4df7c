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

package bitmap

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

//
// Trailing bits of the last word beyond len are always kept zero, the
// iterator relies on it.
//

const (
	kEmptyFlagUnknown  int32 = 0
	kEmptyFlagEmpty    int32 = 1
	kEmptyFlagNotEmpty int32 = 2
)

// Bitmap is a fixed size set of row positions backed by uint64 words.
type Bitmap struct {
	len       int64
	emptyFlag atomic.Int32
	data      []uint64
}

type Iterator interface {
	HasNext() bool
	Next() uint64
}

type BitmapIterator struct {
	i       uint64
	hasNext bool
	bm      *Bitmap
}

func New() *Bitmap {
	var n Bitmap
	n.emptyFlag.Store(kEmptyFlagEmpty)
	return &n
}

func (n *Bitmap) InitWithSize(len int64) {
	n.len = len
	n.emptyFlag.Store(kEmptyFlagEmpty)
	n.data = make([]uint64, Nwords(int(len)))
}

func (n *Bitmap) Iterator() Iterator {
	itr := BitmapIterator{bm: n}
	itr.i, itr.hasNext = itr.seek(0)
	return &itr
}

// seek finds the first set bit at or after i, word at a time.
func (itr *BitmapIterator) seek(i uint64) (uint64, bool) {
	nwords := uint64(len(itr.bm.data))
	w := i >> 6
	if w >= nwords {
		return 0, false
	}
	word := itr.bm.data[w] & (^uint64(0) << (i & 0x3F))
	for {
		if word != 0 {
			return w<<6 + uint64(bits.TrailingZeros64(word)), true
		}
		w++
		if w >= nwords {
			return 0, false
		}
		word = itr.bm.data[w]
	}
}

func (itr *BitmapIterator) HasNext() bool {
	return itr.hasNext
}

func (itr *BitmapIterator) Next() uint64 {
	pos := itr.i
	itr.i, itr.hasNext = itr.seek(pos + 1)
	return pos
}

// EmptyByFlag is a quick check. If it returns true the bitmap is empty,
// otherwise it may or may not be empty.
func (n *Bitmap) EmptyByFlag() bool {
	return n == nil || n.emptyFlag.Load() == kEmptyFlagEmpty || len(n.data) == 0
}

// IsEmpty returns true if no bit in the Bitmap is set, otherwise it will return false.
func (n *Bitmap) IsEmpty() bool {
	flag := n.emptyFlag.Load()
	if flag == kEmptyFlagEmpty {
		return true
	} else if flag == kEmptyFlagNotEmpty {
		return false
	}
	for i := 0; i < len(n.data); i++ {
		if n.data[i] != 0 {
			n.emptyFlag.Store(kEmptyFlagNotEmpty)
			return false
		}
	}
	n.emptyFlag.Store(kEmptyFlagEmpty)
	return true
}

// We always assume that bitmap has been extended to at least row.
func (n *Bitmap) Add(row uint64) {
	n.data[row>>6] |= 1 << (row & 0x3F)
	n.emptyFlag.Store(kEmptyFlagNotEmpty)
}

func (n *Bitmap) AddMany(rows []uint64) {
	for _, row := range rows {
		n.data[row>>6] |= 1 << (row & 0x3F)
	}
	if len(rows) > 0 {
		n.emptyFlag.Store(kEmptyFlagNotEmpty)
	}
}

// Contains returns true if the row is contained in the Bitmap
func (n *Bitmap) Contains(row uint64) bool {
	if row >= uint64(n.len) {
		return false
	}
	return n.data[row>>6]&(1<<(row&0x3F)) != 0
}

func (n *Bitmap) TryExpandWithSize(size int) {
	if int(n.len) >= size {
		return
	}
	newCap := Nwords(size)
	n.len = int64(size)
	if newCap > cap(n.data) {
		data := make([]uint64, newCap)
		copy(data, n.data)
		n.data = data
		return
	}
	if len(n.data) < newCap {
		n.data = n.data[:newCap]
	}
}

func (n *Bitmap) ToArray() []uint64 {
	var rows []uint64
	if n.EmptyByFlag() {
		return rows
	}
	itr := n.Iterator()
	for itr.HasNext() {
		rows = append(rows, itr.Next())
	}
	return rows
}

// WriteTo copies bits [start, start+cnt) into buf as bits [0, cnt) of a
// little-endian word bitmap, the layout used by packed rows. Bits already
// set in buf are kept.
func (n *Bitmap) WriteTo(buf []byte, start, cnt uint64) {
	itr := BitmapIterator{bm: n}
	for itr.i, itr.hasNext = itr.seek(start); itr.hasNext; {
		r := itr.Next()
		if r >= start+cnt {
			break
		}
		SetBit(buf, int(r-start))
	}
}

func (n *Bitmap) String() string {
	return fmt.Sprintf("%v", n.ToArray())
}
