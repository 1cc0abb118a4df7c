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

// Package nulls wraps the bitmap used to mark null rows of a vector.
// A nil *Nulls, or one with a nil Np, has no nulls.
package nulls

import (
	"github.com/matrixorigin/packrow/pkg/common/bitmap"
)

type Nulls struct {
	Np *bitmap.Bitmap
}

func NewWithSize(size int) *Nulls {
	np := bitmap.New()
	np.InitWithSize(int64(size))
	return &Nulls{Np: np}
}

// Build returns a Nulls of size with the given rows set.
func Build(size int, rows ...uint64) *Nulls {
	nsp := NewWithSize(size)
	Add(nsp, rows...)
	return nsp
}

// Any returns true if any bit in the Nulls is set, otherwise it will return false.
func Any(nsp *Nulls) bool {
	if nsp == nil || nsp.Np == nil {
		return false
	}
	return !nsp.Np.IsEmpty()
}

func TryExpand(nsp *Nulls, size int) {
	if nsp.Np == nil {
		nsp.Np = bitmap.New()
		nsp.Np.InitWithSize(int64(size))
		return
	}
	nsp.Np.TryExpandWithSize(size)
}

// Contains returns true if the integer is contained in the Nulls
func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(row)
}

// Add marks rows as null, growing the set when needed.
func Add(nsp *Nulls, rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	max := rows[0]
	for _, row := range rows[1:] {
		if row > max {
			max = row
		}
	}
	TryExpand(nsp, int(max)+1)
	nsp.Np.AddMany(rows)
}

// ToArray lists null rows in ascending order.
func ToArray(nsp *Nulls) []uint64 {
	if nsp == nil || nsp.Np == nil {
		return nil
	}
	return nsp.Np.ToArray()
}

// WriteBits writes rows [start, start+n) of nsp into buf as a packed null
// bitmap of n bits. buf must be zeroed and hold at least
// bitmap.NullWidth(n) bytes.
func WriteBits(nsp *Nulls, buf []byte, start, n int) {
	if !Any(nsp) {
		return
	}
	nsp.Np.WriteTo(buf, uint64(start), uint64(n))
}

func (nsp *Nulls) Any() bool {
	return Any(nsp)
}

func (nsp *Nulls) Set(row uint64) {
	Add(nsp, row)
}

func (nsp *Nulls) Contains(row uint64) bool {
	return Contains(nsp, row)
}
