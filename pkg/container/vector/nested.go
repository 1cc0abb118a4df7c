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

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
)

func checkRanges(n int, offsets, sizes []int32, nsp *nulls.Nulls, childLen int) error {
	if len(offsets) != n {
		return moerr.NewInvalidArgNoCtx("offsets length", len(offsets))
	}
	if len(sizes) != n {
		return moerr.NewInvalidArgNoCtx("sizes length", len(sizes))
	}
	if err := checkNulls(nsp, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if nulls.Contains(nsp, uint64(i)) {
			continue
		}
		off, sz := int(offsets[i]), int(sizes[i])
		if off < 0 || sz < 0 || off+sz > childLen {
			return moerr.NewOutOfRangeNoCtx("nested range", "row %d offset %d size %d, child length %d", i, off, sz, childLen)
		}
	}
	return nil
}

func checkChildType(what string, want types.Type, child *Vector) error {
	if !want.Eq(child.typ) {
		return moerr.NewTypeMismatchNoCtx("%s of type %s, want %s", what, child.typ.String(), want.String())
	}
	return nil
}

// NewArray builds an ARRAY vector of n rows. Row i is elements
// [offsets[i], offsets[i]+sizes[i]). Ranges of null rows are not checked.
// The array owns elements.
func NewArray(typ types.Type, n int, offsets, sizes []int32, nsp *nulls.Nulls,
	elements *Vector, m *mpool.MPool) (*Vector, error) {
	if typ.Oid != types.T_array || len(typ.Children) != 1 {
		return nil, moerr.NewInvalidArgNoCtx("array vector type", typ.String())
	}
	if err := checkChildType("elements", typ.ElemType(), elements); err != nil {
		return nil, err
	}
	if err := checkRanges(n, offsets, sizes, nsp, elements.Length()); err != nil {
		return nil, err
	}
	vec := &Vector{
		class:    ARRAY,
		typ:      typ,
		nsp:      nsp,
		length:   n,
		children: []*Vector{elements},
	}
	if err := vec.allocRanges(m, offsets, sizes); err != nil {
		return nil, err
	}
	return vec, nil
}

// NewMap builds a MAP vector of n rows over index aligned keys and values.
// The map owns keys and values.
func NewMap(typ types.Type, n int, offsets, sizes []int32, nsp *nulls.Nulls,
	keys, values *Vector, m *mpool.MPool) (*Vector, error) {
	if typ.Oid != types.T_map || len(typ.Children) != 2 {
		return nil, moerr.NewInvalidArgNoCtx("map vector type", typ.String())
	}
	if keys.Length() != values.Length() {
		return nil, moerr.NewSizeNotMatchNoCtx("map keys and values")
	}
	if err := checkChildType("keys", typ.KeyType(), keys); err != nil {
		return nil, err
	}
	if err := checkChildType("values", typ.ValueType(), values); err != nil {
		return nil, err
	}
	if err := checkRanges(n, offsets, sizes, nsp, keys.Length()); err != nil {
		return nil, err
	}
	vec := &Vector{
		class:    MAP,
		typ:      typ,
		nsp:      nsp,
		length:   n,
		children: []*Vector{keys, values},
	}
	if err := vec.allocRanges(m, offsets, sizes); err != nil {
		return nil, err
	}
	return vec, nil
}

func (v *Vector) allocRanges(m *mpool.MPool, offsets, sizes []int32) error {
	var err error
	if v.offsets, err = v.allocInt32s(m, offsets); err != nil {
		return err
	}
	if v.sizes, err = v.allocInt32s(m, sizes); err != nil {
		for _, buf := range v.bufs {
			m.Free(buf)
		}
		v.bufs = nil
		return err
	}
	return nil
}

// NewRow builds a ROW vector of n rows from one child per field. Null rows
// are independent of the children. The row owns its children.
func NewRow(typ types.Type, n int, nsp *nulls.Nulls, children []*Vector) (*Vector, error) {
	if typ.Oid != types.T_row || len(typ.Children) != len(children) {
		return nil, moerr.NewInvalidArgNoCtx("row vector type", typ.String())
	}
	for i, c := range children {
		if c.Length() != n {
			return nil, moerr.NewSizeNotMatchNoCtx(fmt.Sprintf("row field %d", i))
		}
		if err := checkChildType("row field", typ.Children[i], c); err != nil {
			return nil, err
		}
	}
	if err := checkNulls(nsp, n); err != nil {
		return nil, err
	}
	return &Vector{
		class:    ROW,
		typ:      typ,
		nsp:      nsp,
		length:   n,
		children: children,
	}, nil
}
