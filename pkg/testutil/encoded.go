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
	"fmt"
	"reflect"
	"sort"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// EncodedVector builds data under one of the flat encodings.
func (mk *VectorMaker) EncodedVector(enc vector.Encoding, typ types.Type, data []any) (*vector.Vector, error) {
	switch enc {
	case vector.FLAT:
		return mk.FromAny(typ, data)
	case vector.CONSTANT:
		return mk.ConstantVector(typ, data)
	case vector.DICTIONARY:
		return mk.DictionaryVector(typ, data)
	case vector.SEQUENCE:
		return mk.SequenceVector(typ, data)
	case vector.BIASED:
		return mk.BiasVector(typ, data)
	}
	return nil, moerr.NewNotSupportedNoCtx("encoding %s for VectorMaker", enc)
}

func (mk *VectorMaker) keepBase(typ types.Type, data []any) (*vector.Vector, error) {
	base, err := mk.FromAny(typ, data)
	if err != nil {
		return nil, err
	}
	mk.bases = append(mk.bases, base)
	return base, nil
}

// ConstantVector builds a CONSTANT vector. Every entry of data must hold
// the same value.
func (mk *VectorMaker) ConstantVector(typ types.Type, data []any) (*vector.Vector, error) {
	for _, d := range data {
		if !reflect.DeepEqual(d, data[0]) {
			return nil, moerr.NewInvalidArgNoCtx("constant vector value", d)
		}
	}
	if len(data) == 0 || data[0] == nil {
		return vector.NewConstNull(typ, len(data)), nil
	}
	base, err := mk.keepBase(typ, data[:1])
	if err != nil {
		return nil, err
	}
	return vector.NewConst(base, 0, len(data))
}

// ConstantRow broadcasts one row value, nil for null, to n rows.
func (mk *VectorMaker) ConstantRow(typ types.Type, value []any, n int) (*vector.Vector, error) {
	if value == nil {
		return vector.NewConstNull(typ, n), nil
	}
	base, err := mk.keepBase(typ, []any{value})
	if err != nil {
		return nil, err
	}
	return vector.NewConst(base, 0, n)
}

func valueKey(d any) string {
	return fmt.Sprintf("%#v", d)
}

// DictionaryVector builds a DICTIONARY vector over the distinct non null
// values of data, in order of first appearance. Nulls are kept on the
// indices.
func (mk *VectorMaker) DictionaryVector(typ types.Type, data []any) (*vector.Vector, error) {
	var distinct []any
	seen := make(map[string]int32)
	indices := make([]int32, len(data))
	nsp := nulls.NewWithSize(len(data))
	for i, d := range data {
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		k := valueKey(d)
		idx, ok := seen[k]
		if !ok {
			idx = int32(len(distinct))
			seen[k] = idx
			distinct = append(distinct, d)
		}
		indices[i] = idx
	}
	if len(distinct) == 0 {
		distinct = []any{nil}
	}
	base, err := mk.keepBase(typ, distinct)
	if err != nil {
		return nil, err
	}
	return vector.NewDictionary(base, indices, nsp, mk.mp)
}

// SequenceVector builds a SEQUENCE vector with one run per maximal stretch
// of equal values. Consecutive nulls form one run.
func (mk *VectorMaker) SequenceVector(typ types.Type, data []any) (*vector.Vector, error) {
	var runValues []any
	var runLengths []int32
	for i, d := range data {
		if i > 0 && reflect.DeepEqual(d, data[i-1]) {
			runLengths[len(runLengths)-1]++
			continue
		}
		runValues = append(runValues, d)
		runLengths = append(runLengths, 1)
	}
	base, err := mk.keepBase(typ, runValues)
	if err != nil {
		return nil, err
	}
	return vector.NewSequence(base, runLengths, len(data), mk.mp)
}

func toInt64(typ types.Type, d any) (int64, error) {
	switch x := d.(type) {
	case int16:
		if typ.Oid == types.T_int16 {
			return int64(x), nil
		}
	case int32:
		if typ.Oid == types.T_int32 {
			return int64(x), nil
		}
	case int64:
		if typ.Oid == types.T_int64 {
			return x, nil
		}
	}
	return 0, moerr.NewInvalidArgNoCtx(typ.String()+" value", d)
}

// BiasVector builds a BIASED vector of SMALLINT, INTEGER or BIGINT. It
// uses the narrowest width holding every value around the midpoint of the
// value range. When no width does, it uses the widest one around the
// median and stores the values that do not fit as exceptions.
func (mk *VectorMaker) BiasVector(typ types.Type, data []any) (*vector.Vector, error) {
	var widths []int
	switch typ.Oid {
	case types.T_int16:
		widths = []int{1}
	case types.T_int32:
		widths = []int{1, 2}
	case types.T_int64:
		widths = []int{1, 2, 4}
	default:
		return nil, moerr.NewInvalidArgNoCtx("biased vector type", typ.String())
	}
	vals := make([]int64, len(data))
	nsp := nulls.NewWithSize(len(data))
	var present []int64
	for i, d := range data {
		if d == nil {
			nsp.Set(uint64(i))
			continue
		}
		x, err := toInt64(typ, d)
		if err != nil {
			return nil, err
		}
		vals[i] = x
		present = append(present, x)
	}
	var bias int64
	if len(present) > 0 {
		sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })
		lo, hi := present[0], present[len(present)-1]
		bias = lo + int64((uint64(hi)-uint64(lo))/2)
		for _, w := range widths {
			if fitsAll(w, present, bias) {
				return newBiased(mk, typ, w, vals, nsp, bias)
			}
		}
		bias = present[len(present)/2]
	}
	return newBiased(mk, typ, widths[len(widths)-1], vals, nsp, bias)
}

func fitsAll(width int, vals []int64, bias int64) bool {
	for _, x := range vals {
		var ok bool
		switch width {
		case 1:
			ok = vector.BiasFits[int8](x, bias)
		case 2:
			ok = vector.BiasFits[int16](x, bias)
		default:
			ok = vector.BiasFits[int32](x, bias)
		}
		if !ok {
			return false
		}
	}
	return true
}

func newBiased(mk *VectorMaker, typ types.Type, width int, vals []int64, nsp *nulls.Nulls, bias int64) (*vector.Vector, error) {
	switch width {
	case 1:
		return biasedOf[int8](mk, typ, vals, nsp, bias)
	case 2:
		return biasedOf[int16](mk, typ, vals, nsp, bias)
	}
	return biasedOf[int32](mk, typ, vals, nsp, bias)
}

func biasedOf[P int8 | int16 | int32](mk *VectorMaker, typ types.Type, vals []int64, nsp *nulls.Nulls, bias int64) (*vector.Vector, error) {
	physical := make([]P, len(vals))
	var excRows []uint32
	var excValues []int64
	for i, x := range vals {
		if nsp.Contains(uint64(i)) {
			continue
		}
		if vector.BiasFits[P](x, bias) {
			physical[i] = P(x - bias)
		} else {
			excRows = append(excRows, uint32(i))
			excValues = append(excValues, x)
		}
	}
	return vector.NewBiased(typ, physical, bias, excRows, excValues, nsp, mk.mp)
}

// LazyFlatVector builds a LAZY vector whose loader materializes only the
// requested rows from valueAt. Rows that were not requested load as null.
func (mk *VectorMaker) LazyFlatVector(typ types.Type, n int, valueAt func(row int) any, isNull func(row int) bool) *vector.Vector {
	loader := &vector.SimpleVectorLoader{
		Loader: func(rows []uint64) (*vector.Vector, error) {
			data := make([]any, n)
			for _, r := range rows {
				if isNull == nil || !isNull(int(r)) {
					data[r] = valueAt(int(r))
				}
			}
			return mk.FromAny(typ, data)
		},
	}
	return vector.NewLazy(typ, n, loader)
}

// Flatten copies v, under any encoding, into FLAT vectors.
func (mk *VectorMaker) Flatten(v *vector.Vector) (*vector.Vector, error) {
	data := make([]any, v.Length())
	for i := range data {
		data[i] = v.GetAny(i)
	}
	return mk.FromAny(*v.GetType(), data)
}
