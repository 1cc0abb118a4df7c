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

package vector

import (
	"unsafe"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
)

func checkNulls(nsp *nulls.Nulls, n int) error {
	if rows := nulls.ToArray(nsp); len(rows) > 0 && rows[len(rows)-1] >= uint64(n) {
		return moerr.NewInvalidArgNoCtx("nulls length", rows[len(rows)-1]+1)
	}
	return nil
}

// NewFlat returns a FLAT vector of n zero, non null rows of a scalar type.
func NewFlat(typ types.Type, n int, m *mpool.MPool) (*Vector, error) {
	if typ.TypeSize() == 0 {
		return nil, moerr.NewInvalidArgNoCtx("flat vector type", typ.String())
	}
	if n < 0 {
		return nil, moerr.NewInvalidArgNoCtx("vector length", n)
	}
	vec := &Vector{
		class:  FLAT,
		typ:    typ,
		nsp:    &nulls.Nulls{},
		length: n,
	}
	data, err := vec.alloc(m, n*typ.TypeSize())
	if err != nil {
		return nil, err
	}
	vec.data = data
	return vec, nil
}

// NewFlatFixed builds a FLAT vector holding vals.
func NewFlatFixed[T types.FixedSizeT](typ types.Type, vals []T, nsp *nulls.Nulls, m *mpool.MPool) (*Vector, error) {
	if typ.Oid != types.OidOf[T]() {
		return nil, moerr.NewTypeMismatchNoCtx("%s values for %s vector", types.OidOf[T](), typ.String())
	}
	if err := checkNulls(nsp, len(vals)); err != nil {
		return nil, err
	}
	vec, err := NewFlat(typ, len(vals), m)
	if err != nil {
		return nil, err
	}
	copy(MustFixedCol[T](vec), vals)
	if nsp != nil {
		vec.nsp = nsp
	}
	return vec, nil
}

// NewFlatBytes builds a FLAT VARCHAR or VARBINARY vector holding vals.
func NewFlatBytes(typ types.Type, vals [][]byte, nsp *nulls.Nulls, m *mpool.MPool) (*Vector, error) {
	if !typ.IsVarlen() {
		return nil, moerr.NewTypeMismatchNoCtx("byte values for %s vector", typ.String())
	}
	if err := checkNulls(nsp, len(vals)); err != nil {
		return nil, err
	}
	vec, err := NewFlat(typ, len(vals), m)
	if err != nil {
		return nil, err
	}
	for i, bs := range vals {
		if err = SetBytesAt(vec, i, bs, m); err != nil {
			vec.Free(m)
			return nil, err
		}
	}
	if nsp != nil {
		vec.nsp = nsp
	}
	return vec, nil
}

// NewConst broadcasts row index of base to n rows.
func NewConst(base *Vector, index int, n int) (*Vector, error) {
	if base.Length() == 0 {
		return nil, moerr.NewEmptyVectorNoCtx()
	}
	if index < 0 || index >= base.Length() {
		return nil, moerr.NewOutOfRangeNoCtx("constant index", "index %d, base length %d", index, base.Length())
	}
	if n < 0 {
		return nil, moerr.NewInvalidArgNoCtx("vector length", n)
	}
	return &Vector{
		class:  CONSTANT,
		typ:    base.typ,
		length: n,
		base:   base,
		index:  index,
	}, nil
}

// NewConstNull returns n null rows of typ.
func NewConstNull(typ types.Type, n int) *Vector {
	return &Vector{
		class:  CONSTANT,
		typ:    typ,
		length: n,
	}
}

// NewDictionary reads row i from base[indices[i]]. nsp adds nulls on top of
// the nulls of base.
func NewDictionary(base *Vector, indices []int32, nsp *nulls.Nulls, m *mpool.MPool) (*Vector, error) {
	n := len(indices)
	if n > 0 && base.Length() == 0 {
		return nil, moerr.NewEmptyVectorNoCtx()
	}
	for i, idx := range indices {
		if idx < 0 || int(idx) >= base.Length() {
			return nil, moerr.NewOutOfRangeNoCtx("dictionary index", "row %d index %d, base length %d", i, idx, base.Length())
		}
	}
	if err := checkNulls(nsp, n); err != nil {
		return nil, err
	}
	vec := &Vector{
		class:  DICTIONARY,
		typ:    base.typ,
		nsp:    nsp,
		length: n,
		base:   base,
	}
	var err error
	if vec.indices, err = vec.allocInt32s(m, indices); err != nil {
		return nil, err
	}
	return vec, nil
}

// NewSequence repeats base[i] runLengths[i] times. The run lengths must sum
// to n.
func NewSequence(base *Vector, runLengths []int32, n int, m *mpool.MPool) (*Vector, error) {
	if len(runLengths) != base.Length() {
		return nil, moerr.NewSizeNotMatchNoCtx("sequence runs")
	}
	ends := make([]int32, len(runLengths))
	total := 0
	for i, l := range runLengths {
		if l < 0 {
			return nil, moerr.NewInvalidArgNoCtx("run length", l)
		}
		total += int(l)
		ends[i] = int32(total)
	}
	if total != n {
		return nil, moerr.NewInvalidArgNoCtx("run lengths sum", total)
	}
	vec := &Vector{
		class:  SEQUENCE,
		typ:    base.typ,
		length: n,
		base:   base,
	}
	var err error
	if vec.runEnds, err = vec.allocInt32s(m, ends); err != nil {
		return nil, err
	}
	return vec, nil
}

// NewBiased stores row i as physical[i] + bias, except rows listed in
// excRows which hold excValues verbatim. excRows must be strictly
// increasing. P must be narrower than the integer type typ.
func NewBiased[P int8 | int16 | int32](typ types.Type, physical []P, bias int64,
	excRows []uint32, excValues []int64, nsp *nulls.Nulls, m *mpool.MPool) (*Vector, error) {
	var p P
	width := int(unsafe.Sizeof(p))
	switch typ.Oid {
	case types.T_int16, types.T_int32, types.T_int64:
	default:
		return nil, moerr.NewInvalidArgNoCtx("biased vector type", typ.String())
	}
	if width >= typ.TypeSize() {
		return nil, moerr.NewInvalidArgNoCtx("biased physical width", width)
	}
	n := len(physical)
	if len(excRows) != len(excValues) {
		return nil, moerr.NewInvalidArgNoCtx("exception values", len(excValues))
	}
	for i, r := range excRows {
		if int(r) >= n || (i > 0 && r <= excRows[i-1]) {
			return nil, moerr.NewInvalidArgNoCtx("exception row", r)
		}
	}
	if err := checkNulls(nsp, n); err != nil {
		return nil, err
	}
	vec := &Vector{
		class:      BIASED,
		typ:        typ,
		nsp:        nsp,
		length:     n,
		biasWidth:  width,
		bias:       bias,
		exceptions: roaring.BitmapOf(excRows...),
		excValues:  append([]int64(nil), excValues...),
	}
	data, err := vec.alloc(m, n*width)
	if err != nil {
		return nil, err
	}
	copy(types.DecodeSlice[P](data), physical)
	vec.data = data
	return vec, nil
}

func (v *Vector) biasedAt(row int) int64 {
	if v.exceptions.Contains(uint32(row)) {
		return v.excValues[v.exceptions.Rank(uint32(row))-1]
	}
	switch v.biasWidth {
	case 1:
		return int64(int8(v.data[row])) + v.bias
	case 2:
		return int64(types.DecodeSlice[int16](v.data)[row]) + v.bias
	default:
		return int64(types.DecodeSlice[int32](v.data)[row]) + v.bias
	}
}

// Bias returns the bias and exception count of a BIASED vector.
func (v *Vector) Bias() (int64, int) {
	v.mustBe(BIASED, "Bias")
	return v.bias, int(v.exceptions.GetCardinality())
}

// BiasFits reports whether x - bias fits a signed integer of P.
func BiasFits[P int8 | int16 | int32, V constraints.Signed](x V, bias int64) bool {
	d := int64(x) - bias
	var p P
	bits := unsafe.Sizeof(p) * 8
	lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
	// overflow of the subtraction itself
	if (bias < 0 && d < int64(x)) || (bias > 0 && d > int64(x)) {
		return false
	}
	return d >= lo && d <= hi
}
