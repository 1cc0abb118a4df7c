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

package testutil

import (
	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// VectorMaker builds encoded vectors from plain Go values. Values use the
// dynamic shapes of package types, nil is null.
//
// Vectors returned by the maker are freed with Vector.Free. Bases created
// for CONSTANT, DICTIONARY and SEQUENCE vectors belong to the maker and
// are freed by Release.
type VectorMaker struct {
	mp    *mpool.MPool
	bases []*vector.Vector
}

func NewVectorMaker(mp *mpool.MPool) *VectorMaker {
	return &VectorMaker{mp: mp}
}

func (mk *VectorMaker) MPool() *mpool.MPool {
	return mk.mp
}

// Release frees the bases of the wrapping vectors built so far.
func (mk *VectorMaker) Release() {
	for _, b := range mk.bases {
		b.Free(mk.mp)
	}
	mk.bases = nil
}

// NullEvery returns a predicate that is true for every n-th row starting
// at row startingFrom.
func NullEvery(n int, startingFrom int) func(row int) bool {
	return func(row int) bool {
		return row >= startingFrom && (row-startingFrom)%n == 0
	}
}

func buildNulls(n int, isNull func(row int) bool) *nulls.Nulls {
	nsp := nulls.NewWithSize(n)
	if isNull == nil {
		return nsp
	}
	for i := 0; i < n; i++ {
		if isNull(i) {
			nsp.Set(uint64(i))
		}
	}
	return nsp
}

// FlatVector builds a FLAT vector of n rows from valueAt. isNull may be nil.
func FlatVector[T types.FixedSizeT](mk *VectorMaker, n int, valueAt func(row int) T, isNull func(row int) bool) (*vector.Vector, error) {
	vals := make([]T, n)
	for i := range vals {
		if isNull == nil || !isNull(i) {
			vals[i] = valueAt(i)
		}
	}
	return vector.NewFlatFixed(types.OidOf[T]().ToType(), vals, buildNulls(n, isNull), mk.mp)
}

// FlatVectorOf builds a FLAT vector without nulls holding vals.
func FlatVectorOf[T types.FixedSizeT](mk *VectorMaker, vals []T) (*vector.Vector, error) {
	return vector.NewFlatFixed(types.OidOf[T]().ToType(), vals, nil, mk.mp)
}

// StringVector builds a FLAT VARCHAR vector holding vals.
func (mk *VectorMaker) StringVector(vals []string, isNull func(row int) bool) (*vector.Vector, error) {
	bs := make([][]byte, len(vals))
	for i, s := range vals {
		bs[i] = []byte(s)
	}
	return vector.NewFlatBytes(types.T_varchar.ToType(), bs, buildNulls(len(vals), isNull), mk.mp)
}

// FlatVectorNullable builds a FLAT vector of a scalar type from data.
func (mk *VectorMaker) FlatVectorNullable(typ types.Type, data []any) (*vector.Vector, error) {
	if typ.IsNested() {
		return nil, moerr.NewInvalidArgNoCtx("flat vector type", typ.String())
	}
	return mk.FromAny(typ, data)
}

// AllNullFlatVector builds n null rows of a scalar type.
func (mk *VectorMaker) AllNullFlatVector(typ types.Type, n int) (*vector.Vector, error) {
	return mk.FlatVectorNullable(typ, make([]any, n))
}

// FromAny builds data as a vector of typ. Scalars become FLAT vectors and
// nested values become ARRAY, MAP and ROW vectors over FLAT children.
func (mk *VectorMaker) FromAny(typ types.Type, data []any) (*vector.Vector, error) {
	switch typ.Oid {
	case types.T_bool:
		return flatFromAny[bool](mk, typ, data)
	case types.T_int8:
		return flatFromAny[int8](mk, typ, data)
	case types.T_int16:
		return flatFromAny[int16](mk, typ, data)
	case types.T_int32:
		return flatFromAny[int32](mk, typ, data)
	case types.T_int64:
		return flatFromAny[int64](mk, typ, data)
	case types.T_float32:
		return flatFromAny[float32](mk, typ, data)
	case types.T_float64:
		return flatFromAny[float64](mk, typ, data)
	case types.T_timestamp:
		return flatFromAny[types.Timestamp](mk, typ, data)
	case types.T_varchar, types.T_varbinary:
		return mk.bytesFromAny(typ, data)
	case types.T_array:
		return mk.arrayFromAny(typ, data)
	case types.T_map:
		return mk.mapFromAny(typ, data)
	case types.T_row:
		return mk.rowFromAny(typ, data)
	}
	return nil, moerr.NewErrUnsupportedDataTypeNoCtx(typ)
}

func flatFromAny[T types.FixedSizeT](mk *VectorMaker, typ types.Type, data []any) (*vector.Vector, error) {
	vals := make([]T, len(data))
	nsp := nulls.NewWithSize(len(data))
	for i, d := range data {
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		x, ok := d.(T)
		if !ok {
			return nil, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
		}
		vals[i] = x
	}
	return vector.NewFlatFixed(typ, vals, nsp, mk.mp)
}

func (mk *VectorMaker) bytesFromAny(typ types.Type, data []any) (*vector.Vector, error) {
	vals := make([][]byte, len(data))
	nsp := nulls.NewWithSize(len(data))
	for i, d := range data {
		switch x := d.(type) {
		case nil:
			nsp.Set(uint64(i))
		case string:
			vals[i] = []byte(x)
		case []byte:
			vals[i] = x
		default:
			return nil, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
		}
	}
	return vector.NewFlatBytes(typ, vals, nsp, mk.mp)
}

func (mk *VectorMaker) arrayFromAny(typ types.Type, data []any) (*vector.Vector, error) {
	n := len(data)
	offsets, sizes := make([]int32, n), make([]int32, n)
	nsp := nulls.NewWithSize(n)
	var elems []any
	for i, d := range data {
		offsets[i] = int32(len(elems))
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		xs, ok := d.([]any)
		if !ok {
			return nil, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
		}
		sizes[i] = int32(len(xs))
		elems = append(elems, xs...)
	}
	ev, err := mk.FromAny(typ.ElemType(), elems)
	if err != nil {
		return nil, err
	}
	vec, err := vector.NewArray(typ, n, offsets, sizes, nsp, ev, mk.mp)
	if err != nil {
		ev.Free(mk.mp)
		return nil, err
	}
	return vec, nil
}

func (mk *VectorMaker) mapFromAny(typ types.Type, data []any) (*vector.Vector, error) {
	n := len(data)
	offsets, sizes := make([]int32, n), make([]int32, n)
	nsp := nulls.NewWithSize(n)
	var keys, values []any
	for i, d := range data {
		offsets[i] = int32(len(keys))
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		entries, ok := d.([]types.MapEntry)
		if !ok {
			return nil, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
		}
		sizes[i] = int32(len(entries))
		for _, e := range entries {
			if e.Key == nil {
				return nil, moerr.NewInvalidArgNoCtx("map key", "null")
			}
			keys = append(keys, e.Key)
			values = append(values, e.Value)
		}
	}
	kv, err := mk.FromAny(typ.KeyType(), keys)
	if err != nil {
		return nil, err
	}
	vv, err := mk.FromAny(typ.ValueType(), values)
	if err != nil {
		kv.Free(mk.mp)
		return nil, err
	}
	vec, err := vector.NewMap(typ, n, offsets, sizes, nsp, kv, vv, mk.mp)
	if err != nil {
		kv.Free(mk.mp)
		vv.Free(mk.mp)
		return nil, err
	}
	return vec, nil
}

func (mk *VectorMaker) rowFromAny(typ types.Type, data []any) (*vector.Vector, error) {
	n := len(data)
	nsp := nulls.NewWithSize(n)
	columns := make([][]any, len(typ.Children))
	for f := range columns {
		columns[f] = make([]any, n)
	}
	for i, d := range data {
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		fields, ok := d.([]any)
		if !ok || len(fields) != len(typ.Children) {
			return nil, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
		}
		for f, x := range fields {
			columns[f][i] = x
		}
	}
	children := make([]*vector.Vector, 0, len(columns))
	for f, col := range columns {
		c, err := mk.FromAny(typ.Children[f], col)
		if err != nil {
			freeAll(mk.mp, children)
			return nil, err
		}
		children = append(children, c)
	}
	vec, err := vector.NewRow(typ, n, nsp, children)
	if err != nil {
		freeAll(mk.mp, children)
		return nil, err
	}
	return vec, nil
}

func freeAll(mp *mpool.MPool, vecs []*vector.Vector) {
	for _, v := range vecs {
		v.Free(mp)
	}
}

// ArrayVector builds non null arrays of elemType.
func (mk *VectorMaker) ArrayVector(elemType types.Type, data [][]any) (*vector.Vector, error) {
	rows := make([]any, len(data))
	for i, xs := range data {
		if xs == nil {
			xs = []any{}
		}
		rows[i] = xs
	}
	return mk.FromAny(types.NewArrayType(elemType), rows)
}

// ArrayVectorNullable builds arrays of elemType, a nil entry is a null
// array.
func (mk *VectorMaker) ArrayVectorNullable(elemType types.Type, data []any) (*vector.Vector, error) {
	return mk.FromAny(types.NewArrayType(elemType), data)
}

// ArrayVectorFunc builds n arrays, row i holding sizeAt(i) elements taken
// in order from valueAt. Null rows hold no elements.
func (mk *VectorMaker) ArrayVectorFunc(elemType types.Type, n int, sizeAt func(row int) int,
	valueAt func(idx int) any, isNull func(row int) bool) (*vector.Vector, error) {
	offsets, sizes, nsp, total := offsetsAndSizes(n, sizeAt, isNull)
	elems := make([]any, total)
	for i := range elems {
		elems[i] = valueAt(i)
	}
	ev, err := mk.FromAny(elemType, elems)
	if err != nil {
		return nil, err
	}
	vec, err := vector.NewArray(types.NewArrayType(elemType), n, offsets, sizes, nsp, ev, mk.mp)
	if err != nil {
		ev.Free(mk.mp)
		return nil, err
	}
	return vec, nil
}

func offsetsAndSizes(n int, sizeAt func(row int) int, isNull func(row int) bool) ([]int32, []int32, *nulls.Nulls, int) {
	offsets, sizes := make([]int32, n), make([]int32, n)
	nsp := nulls.NewWithSize(n)
	total := 0
	for i := 0; i < n; i++ {
		offsets[i] = int32(total)
		if isNull != nil && isNull(i) {
			nsp.Set(uint64(i))
			continue
		}
		sizes[i] = int32(sizeAt(i))
		total += int(sizes[i])
	}
	return offsets, sizes, nsp, total
}

// MapVector builds maps from data, every entry nil or a []types.MapEntry.
func (mk *VectorMaker) MapVector(keyType, valueType types.Type, data []any) (*vector.Vector, error) {
	return mk.FromAny(types.NewMapType(keyType, valueType), data)
}

// MapVectorFunc builds n maps the way ArrayVectorFunc builds arrays.
// valueIsNull may be nil.
func (mk *VectorMaker) MapVectorFunc(keyType, valueType types.Type, n int, sizeAt func(row int) int,
	keyAt func(idx int) any, valueAt func(idx int) any,
	isNull func(row int) bool, valueIsNull func(idx int) bool) (*vector.Vector, error) {
	offsets, sizes, nsp, total := offsetsAndSizes(n, sizeAt, isNull)
	keys, values := make([]any, total), make([]any, total)
	for i := 0; i < total; i++ {
		keys[i] = keyAt(i)
		if valueIsNull == nil || !valueIsNull(i) {
			values[i] = valueAt(i)
		}
	}
	kv, err := mk.FromAny(keyType, keys)
	if err != nil {
		return nil, err
	}
	vv, err := mk.FromAny(valueType, values)
	if err != nil {
		kv.Free(mk.mp)
		return nil, err
	}
	vec, err := vector.NewMap(types.NewMapType(keyType, valueType), n, offsets, sizes, nsp, kv, vv, mk.mp)
	if err != nil {
		kv.Free(mk.mp)
		vv.Free(mk.mp)
		return nil, err
	}
	return vec, nil
}

func (mk *VectorMaker) AllNullArrayVector(elemType types.Type, n int) (*vector.Vector, error) {
	return mk.FromAny(types.NewArrayType(elemType), make([]any, n))
}

func (mk *VectorMaker) AllNullMapVector(keyType, valueType types.Type, n int) (*vector.Vector, error) {
	return mk.FromAny(types.NewMapType(keyType, valueType), make([]any, n))
}

// RowVector builds a ROW vector over children, which must all have the
// same length. names and isNull may be nil.
func (mk *VectorMaker) RowVector(names []string, children []*vector.Vector, isNull func(row int) bool) (*vector.Vector, error) {
	if len(children) == 0 {
		return nil, moerr.NewInvalidArgNoCtx("row vector children", 0)
	}
	fields := make([]types.Type, len(children))
	for i, c := range children {
		fields[i] = *c.GetType()
	}
	n := children[0].Length()
	return vector.NewRow(types.NewRowType(names, fields...), n, buildNulls(n, isNull), children)
}
