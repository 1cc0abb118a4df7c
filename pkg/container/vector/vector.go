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
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
)

// Encoding is the physical layout of a vector.
type Encoding uint8

const (
	FLAT       Encoding = iota // one slot per row
	CONSTANT                   // one value broadcast to every row
	DICTIONARY                 // indices into a base vector
	SEQUENCE                   // run-length encoded over a base vector of run values
	BIASED                     // narrow integers stored as value - bias, with exceptions
	ARRAY                      // offset and size into an elements vector
	MAP                        // offset and size into aligned keys and values vectors
	ROW                        // one child vector per field
	LAZY                       // loaded on first access
)

func (e Encoding) String() string {
	switch e {
	case FLAT:
		return "FLAT"
	case CONSTANT:
		return "CONSTANT"
	case DICTIONARY:
		return "DICTIONARY"
	case SEQUENCE:
		return "SEQUENCE"
	case BIASED:
		return "BIASED"
	case ARRAY:
		return "ARRAY"
	case MAP:
		return "MAP"
	case ROW:
		return "ROW"
	case LAZY:
		return "LAZY"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// Vector represent a column of one logical type under one encoding.
// Vectors are filled by a single writer while being built and are read
// only afterwards; concurrent readers need no locking.
type Vector struct {
	// vector's class
	class  Encoding
	typ    types.Type
	nsp    *nulls.Nulls // nulls list
	length int

	// FLAT: fixed width values, or Varlena for VARCHAR and VARBINARY
	data []byte
	// area for holding variable length values.
	area []byte

	// CONSTANT, DICTIONARY and SEQUENCE read through base.
	// A CONSTANT without base is null.
	base  *Vector
	index int
	// DICTIONARY
	indices []int32
	// SEQUENCE, exclusive end row of every run
	runEnds []int32

	// BIASED, data holds biasWidth byte integers
	biasWidth  int
	bias       int64
	exceptions *roaring.Bitmap
	excValues  []int64

	// ARRAY and MAP
	offsets []int32
	sizes   []int32
	// ARRAY elements, MAP keys and values, ROW fields
	children []*Vector

	lazy *lazyState

	// buffers taken from the pool, returned by Free
	bufs [][]byte
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetEncoding() Encoding {
	return v.class
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) IsConst() bool {
	return v.class == CONSTANT
}

// IsConstNull return true if the vector is a constant null.
func (v *Vector) IsConstNull() bool {
	return v.class == CONSTANT && (v.base == nil || v.base.IsNull(v.index))
}

func (v *Vector) checkRow(row int) {
	if row < 0 || row >= v.length {
		panic(moerr.NewOutOfRangeNoCtx("row", "index %d, vector length %d", row, v.length))
	}
}

func (v *Vector) mustBe(class Encoding, op string) {
	if v.class != class {
		panic(moerr.NewTypeMismatchNoCtx("%s on %s vector of %s", op, v.class, v.typ.String()))
	}
}

// IsNull reports whether row is null. It panics when row is out of range.
func (v *Vector) IsNull(row int) bool {
	v.checkRow(row)
	switch v.class {
	case CONSTANT:
		return v.base == nil || v.base.IsNull(v.index)
	case DICTIONARY:
		return nulls.Contains(v.nsp, uint64(row)) || v.base.IsNull(int(v.indices[row]))
	case SEQUENCE:
		return v.base.IsNull(v.runIndex(row))
	case LAZY:
		p, r := v.lazyResolve(row)
		return p.IsNull(r)
	}
	return nulls.Contains(v.nsp, uint64(row))
}

// NullsByRow reports whether GetNulls alone decides IsNull, row for row.
// Wrapping encodings also read the nulls of their base.
func (v *Vector) NullsByRow() bool {
	switch v.class {
	case CONSTANT, DICTIONARY, SEQUENCE, LAZY:
		return false
	}
	return true
}

// MayHaveNulls is false only when no row can be null.
func (v *Vector) MayHaveNulls() bool {
	switch v.class {
	case CONSTANT:
		return v.IsConstNull()
	case DICTIONARY:
		return nulls.Any(v.nsp) || v.base.MayHaveNulls()
	case SEQUENCE:
		return v.base.MayHaveNulls()
	case LAZY:
		return true
	}
	return nulls.Any(v.nsp)
}

func (v *Vector) runIndex(row int) int {
	return sort.Search(len(v.runEnds), func(i int) bool {
		return int(v.runEnds[i]) > row
	})
}

// Resolve peels CONSTANT, DICTIONARY, SEQUENCE and LAZY layers and returns
// the vector physically holding row together with the row inside it.
// The result of a null constant is the constant itself, callers test IsNull
// first.
func (v *Vector) Resolve(row int) (*Vector, int) {
	v.checkRow(row)
	for {
		switch v.class {
		case CONSTANT:
			if v.base == nil {
				return v, 0
			}
			v, row = v.base, v.index
		case DICTIONARY:
			v, row = v.base, int(v.indices[row])
		case SEQUENCE:
			v, row = v.base, v.runIndex(row)
		case LAZY:
			v, row = v.lazyResolve(row)
		default:
			return v, row
		}
	}
}

// MustFixedCol returns the values of a FLAT fixed width vector.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	v.mustBe(FLAT, "MustFixedCol")
	if v.typ.Oid != types.OidOf[T]() {
		panic(moerr.NewTypeMismatchNoCtx("MustFixedCol[%s] on %s", types.OidOf[T](), v.typ.String()))
	}
	return types.DecodeSlice[T](v.data)[:v.length]
}

// GetFixedAt reads row of a fixed width vector under any encoding. The value
// of a null row is unspecified.
func GetFixedAt[T types.FixedSizeT](v *Vector, row int) T {
	p, r := v.Resolve(row)
	if p.typ.Oid != types.OidOf[T]() {
		panic(moerr.NewTypeMismatchNoCtx("GetFixedAt[%s] on %s", types.OidOf[T](), p.typ.String()))
	}
	switch p.class {
	case FLAT:
		return types.DecodeSlice[T](p.data)[r]
	case BIASED:
		return fromInt64[T](p.biasedAt(r))
	case CONSTANT:
		var zero T
		return zero
	}
	panic(moerr.NewTypeMismatchNoCtx("GetFixedAt on %s vector", p.class))
}

func fromInt64[T types.FixedSizeT](x int64) T {
	var z T
	switch any(z).(type) {
	case int16:
		return any(int16(x)).(T)
	case int32:
		return any(int32(x)).(T)
	case int64:
		return any(x).(T)
	}
	panic(moerr.NewTypeMismatchNoCtx("biased value as %s", types.OidOf[T]()))
}

// GetBytesAt reads row of a VARCHAR or VARBINARY vector under any encoding.
func (v *Vector) GetBytesAt(row int) []byte {
	p, r := v.Resolve(row)
	if !p.typ.IsVarlen() {
		panic(moerr.NewTypeMismatchNoCtx("GetBytesAt on %s", p.typ.String()))
	}
	if p.class == CONSTANT {
		return nil
	}
	p.mustBe(FLAT, "GetBytesAt")
	return types.DecodeSlice[types.Varlena](p.data)[r].GetByteSlice(p.area)
}

func (v *Vector) GetStringAt(row int) string {
	return string(v.GetBytesAt(row))
}

// OffsetAt is the first element of row in the elements (or keys and
// values) of an ARRAY or MAP vector.
func (v *Vector) OffsetAt(row int) int {
	v.checkRow(row)
	v.mustBeNested("OffsetAt")
	return int(v.offsets[row])
}

// SizeAt is the number of elements of row in an ARRAY or MAP vector.
func (v *Vector) SizeAt(row int) int {
	v.checkRow(row)
	v.mustBeNested("SizeAt")
	return int(v.sizes[row])
}

func (v *Vector) mustBeNested(op string) {
	if v.class != ARRAY && v.class != MAP {
		panic(moerr.NewTypeMismatchNoCtx("%s on %s vector of %s", op, v.class, v.typ.String()))
	}
}

func (v *Vector) GetElements() *Vector {
	v.mustBe(ARRAY, "GetElements")
	return v.children[0]
}

func (v *Vector) GetMapKeys() *Vector {
	v.mustBe(MAP, "GetMapKeys")
	return v.children[0]
}

func (v *Vector) GetMapValues() *Vector {
	v.mustBe(MAP, "GetMapValues")
	return v.children[1]
}

// ChildAt returns field i of a ROW vector.
func (v *Vector) ChildAt(i int) *Vector {
	v.mustBe(ROW, "ChildAt")
	if i < 0 || i >= len(v.children) {
		panic(moerr.NewOutOfRangeNoCtx("field", "index %d, field count %d", i, len(v.children)))
	}
	return v.children[i]
}

func (v *Vector) ChildCount() int {
	v.mustBe(ROW, "ChildCount")
	return len(v.children)
}

// GetAny returns row as a dynamically typed value, nil for null.
func (v *Vector) GetAny(row int) any {
	if v.IsNull(row) {
		return nil
	}
	p, r := v.Resolve(row)
	switch p.typ.Oid {
	case types.T_bool:
		return GetFixedAt[bool](p, r)
	case types.T_int8:
		return GetFixedAt[int8](p, r)
	case types.T_int16:
		return GetFixedAt[int16](p, r)
	case types.T_int32:
		return GetFixedAt[int32](p, r)
	case types.T_int64:
		return GetFixedAt[int64](p, r)
	case types.T_float32:
		return GetFixedAt[float32](p, r)
	case types.T_float64:
		return GetFixedAt[float64](p, r)
	case types.T_timestamp:
		return GetFixedAt[types.Timestamp](p, r)
	case types.T_varchar:
		return p.GetStringAt(r)
	case types.T_varbinary:
		return append([]byte{}, p.GetBytesAt(r)...)
	case types.T_array:
		elems := p.GetElements()
		ret := make([]any, p.SizeAt(r))
		for i, off := 0, p.OffsetAt(r); i < len(ret); i++ {
			ret[i] = elems.GetAny(off + i)
		}
		return ret
	case types.T_map:
		keys, values := p.GetMapKeys(), p.GetMapValues()
		ret := make([]types.MapEntry, p.SizeAt(r))
		for i, off := 0, p.OffsetAt(r); i < len(ret); i++ {
			ret[i] = types.MapEntry{Key: keys.GetAny(off + i), Value: values.GetAny(off + i)}
		}
		return ret
	case types.T_row:
		ret := make([]any, p.ChildCount())
		for i := range ret {
			ret[i] = p.ChildAt(i).GetAny(r)
		}
		return ret
	}
	panic(moerr.NewErrUnsupportedDataTypeNoCtx(p.typ))
}

// SetNull marks row as null. DICTIONARY vectors keep index level nulls.
func (v *Vector) SetNull(row int) {
	v.checkRow(row)
	switch v.class {
	case CONSTANT, SEQUENCE, LAZY:
		panic(moerr.NewTypeMismatchNoCtx("SetNull on %s vector", v.class))
	}
	if v.nsp == nil {
		v.nsp = &nulls.Nulls{}
	}
	nulls.Add(v.nsp, uint64(row))
}

// SetFixedAt stores val at row of a FLAT vector.
func SetFixedAt[T types.FixedSizeT](v *Vector, row int, val T) error {
	if row < 0 || row >= v.length {
		return moerr.NewOutOfRangeNoCtx("row", "index %d, vector length %d", row, v.length)
	}
	MustFixedCol[T](v)[row] = val
	return nil
}

// SetBytesAt stores bs at row of a FLAT VARCHAR or VARBINARY vector,
// growing the area from m.
func SetBytesAt(v *Vector, row int, bs []byte, m *mpool.MPool) error {
	v.mustBe(FLAT, "SetBytesAt")
	if !v.typ.IsVarlen() {
		return moerr.NewTypeMismatchNoCtx("SetBytesAt on %s", v.typ.String())
	}
	if row < 0 || row >= v.length {
		return moerr.NewOutOfRangeNoCtx("row", "index %d, vector length %d", row, v.length)
	}
	used := len(v.area)
	if need := used + len(bs); need > cap(v.area) {
		newCap := 2 * cap(v.area)
		if newCap < need {
			newCap = need
		}
		area, err := m.Alloc(newCap)
		if err != nil {
			return err
		}
		copy(area, v.area)
		m.Free(v.area)
		v.area = area[:used]
	}
	v.area = append(v.area, bs...)
	types.DecodeSlice[types.Varlena](v.data)[row] = types.Varlena{
		Offset: uint32(used),
		Length: uint32(len(bs)),
	}
	return nil
}

func SetStringAt(v *Vector, row int, s string, m *mpool.MPool) error {
	return SetBytesAt(v, row, []byte(s), m)
}

// Free returns the buffers of v to m. Children of ARRAY, MAP and ROW
// vectors are owned and freed with them, bases of wrapping encodings are
// not.
func (v *Vector) Free(m *mpool.MPool) {
	for _, buf := range v.bufs {
		m.Free(buf)
	}
	m.Free(v.area)
	v.bufs = nil
	v.data = nil
	v.area = nil
	for _, c := range v.children {
		c.Free(m)
	}
	if v.lazy != nil {
		if loaded := v.lazy.loaded.Load(); loaded != nil {
			loaded.Free(m)
		}
	}
}

func (v *Vector) alloc(m *mpool.MPool, sz int) ([]byte, error) {
	buf, err := m.Alloc(sz)
	if err != nil {
		return nil, err
	}
	v.bufs = append(v.bufs, buf)
	return buf, nil
}

func (v *Vector) allocInt32s(m *mpool.MPool, src []int32) ([]int32, error) {
	buf, err := v.alloc(m, len(src)*4)
	if err != nil {
		return nil, err
	}
	dst := types.DecodeSlice[int32](buf)
	copy(dst, src)
	return dst, nil
}

func (v *Vector) String() string {
	if v.class == LAZY {
		return fmt.Sprintf("LAZY %s loaded=%v", v.typ.String(), v.IsLoaded())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s[", v.class, v.typ.String())
	for i := 0; i < v.length; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		if val := v.GetAny(i); val == nil {
			sb.WriteString("null")
		} else {
			fmt.Fprintf(&sb, "%v", val)
		}
	}
	sb.WriteString("]")
	return sb.String()
}
