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

import "math/bits"

// WordSize is the unit every packed region is aligned to.
const WordSize = 8

// Byte buffer bit helpers. Bit i lives in byte i/8 at position i%8, which
// is the same as bit i%64 of little-endian word i/64.

func Nwords(n int) int {
	return (n + 63) >> 6
}

// NullWidth is the byte size of a word padded null bitmap for n entries.
func NullWidth(n int) int {
	return Nwords(n) * WordSize
}

// AlignWord rounds n up to a multiple of WordSize.
func AlignWord(n int) int {
	return (n + WordSize - 1) &^ (WordSize - 1)
}

func SetBit(buf []byte, i int) {
	buf[i>>3] |= 1 << (i & 7)
}

func IsBitSet(buf []byte, i int) bool {
	return buf[i>>3]&(1<<(i&7)) != 0
}

// CountBits counts set bits in [begin, end).
func CountBits(buf []byte, begin, end int) int {
	cnt := 0
	for begin < end && begin&7 != 0 {
		if IsBitSet(buf, begin) {
			cnt++
		}
		begin++
	}
	for ; begin+8 <= end; begin += 8 {
		cnt += bits.OnesCount8(buf[begin>>3])
	}
	for ; begin < end; begin++ {
		if IsBitSet(buf, begin) {
			cnt++
		}
	}
	return cnt
}
