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

package packrow

import (
	"encoding/binary"
	"math"

	"github.com/matrixorigin/packrow/pkg/common/bitmap"
	"github.com/matrixorigin/packrow/pkg/common/moerr"
)

// Layout of a packed row. Everything is little endian and counted in bytes.
//
//	array blob: [count:8][nulls][slots][payloads]
//	map blob:   [keys blob length:8][keys array blob][values array blob]
//	row blob:   [nulls][8 byte slots][payloads]
//
// Nulls take 8*ceil(n/64) bytes. Array slots of a fixed width element type
// use the natural width of the type and the slot region is rounded up to a
// word. Every other slot is one word. A variable length or nested value is
// referenced by a word holding its offset, relative to the start of the
// enclosing blob, in the upper half and its length in the lower half.
// Payloads start on a word boundary and are zero padded to one.
const (
	wordSize   = bitmap.WordSize
	headerSize = wordSize
)

// source is a sequence of values laid out by one blob: the elements of an
// array, one side of a map, or the fields of a row.
type source interface {
	count() int
	isNull(i int) bool
	// width is the natural width of value i when it is fixed width, 0
	// when it is referenced by an offset and length word.
	width(i int) int
	putFixed(i int, dst []byte)
	// putVar writes value i at the start of dst and returns its length.
	putVar(i int, dst []byte) int
	// varSize is the length putVar returns for value i.
	varSize(i int) int
}

// nullWriter is a source that copies all its null bits into a cleared null
// region at once. writeNulls reports false when it cannot.
type nullWriter interface {
	writeNulls(dst []byte) bool
}

// putOffsetAndSize writes an offset and length word. Both halves are 32
// bits, a blob of 4GiB or more cannot be referenced and panics with
// ErrInvalidArg.
func putOffsetAndSize(dst []byte, offset, size int) {
	if uint64(offset) > math.MaxUint32 || uint64(size) > math.MaxUint32 {
		panic(moerr.NewInvalidArgNoCtx("offset and size", [2]int{offset, size}))
	}
	binary.LittleEndian.PutUint64(dst, uint64(offset)<<32|uint64(size))
}

// putVarRegion appends the variable length values of src after end, the
// unpadded end of what has been written to buf so far. Padding in front of
// each payload is cleared, the padding after the last one is not.
func putVarRegion(src source, buf []byte, slots int, slotWidth int, end int) int {
	for i, n := 0, src.count(); i < n; i++ {
		if src.isNull(i) || src.width(i) > 0 {
			continue
		}
		cursor := bitmap.AlignWord(end)
		clear(buf[end:cursor])
		size := src.putVar(i, buf[cursor:])
		putOffsetAndSize(buf[slots+i*slotWidth:], cursor, size)
		end = cursor + size
	}
	return end
}

func varRegionSize(src source, end int) int {
	for i, n := 0, src.count(); i < n; i++ {
		if src.isNull(i) || src.width(i) > 0 {
			continue
		}
		end = bitmap.AlignWord(end) + src.varSize(i)
	}
	return end
}

func arraySlotWidth(elemWidth int) int {
	if elemWidth > 0 {
		return elemWidth
	}
	return wordSize
}

func arrayFixedEnd(n int, slotWidth int) (slots int, end int) {
	slots = headerSize + bitmap.NullWidth(n)
	return slots, slots + bitmap.AlignWord(n*slotWidth)
}

// writeArray writes src as an array blob of elements of elemWidth, 0 for
// variable length elements, and returns the padded blob size.
func writeArray(src source, elemWidth int, buf []byte) int {
	n := src.count()
	slotWidth := arraySlotWidth(elemWidth)
	slots, fixedEnd := arrayFixedEnd(n, slotWidth)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	clear(buf[headerSize:fixedEnd])
	written := false
	if w, ok := src.(nullWriter); ok {
		written = w.writeNulls(buf[headerSize:slots])
	}
	for i := 0; i < n; i++ {
		if src.isNull(i) {
			if !written {
				bitmap.SetBit(buf[headerSize:], i)
			}
		} else if elemWidth > 0 {
			src.putFixed(i, buf[slots+i*slotWidth:])
		}
	}
	end := putVarRegion(src, buf, slots, slotWidth, fixedEnd)
	padded := bitmap.AlignWord(end)
	clear(buf[end:padded])
	return padded
}

func arraySize(src source, elemWidth int) int {
	_, fixedEnd := arrayFixedEnd(src.count(), arraySlotWidth(elemWidth))
	return bitmap.AlignWord(varRegionSize(src, fixedEnd))
}

// writeMap writes keys and values as a map blob and returns its size. Key
// offsets are relative to the keys array blob. Velox UnsafeRow writes
// variable length key offsets 8 lower, so such maps are not byte compatible
// with it. Sizes agree.
func writeMap(keys source, keyWidth int, values source, valueWidth int, buf []byte) int {
	k := writeArray(keys, keyWidth, buf[headerSize:])
	binary.LittleEndian.PutUint64(buf, uint64(k))
	v := writeArray(values, valueWidth, buf[headerSize+k:])
	return headerSize + k + v
}

func mapSize(keys source, keyWidth int, values source, valueWidth int) int {
	return headerSize + arraySize(keys, keyWidth) + arraySize(values, valueWidth)
}

// writeRow writes the fields of src as a row blob. A nested row is padded,
// the size of a top level row ends with its last payload.
func writeRow(src source, buf []byte, top bool) int {
	n := src.count()
	slots := bitmap.NullWidth(n)
	fixedEnd := slots + n*wordSize
	clear(buf[:fixedEnd])
	for i := 0; i < n; i++ {
		if src.isNull(i) {
			bitmap.SetBit(buf, i)
		} else if src.width(i) > 0 {
			src.putFixed(i, buf[slots+i*wordSize:])
		}
	}
	end := putVarRegion(src, buf, slots, wordSize, fixedEnd)
	if top {
		return end
	}
	padded := bitmap.AlignWord(end)
	clear(buf[end:padded])
	return padded
}

func rowSize(src source, top bool) int {
	n := src.count()
	end := varRegionSize(src, bitmap.NullWidth(n)+n*wordSize)
	if top {
		return end
	}
	return bitmap.AlignWord(end)
}
