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
	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// typedValues lays out items through a statically typed codec.
type typedValues[S, E any] struct {
	c     Codec[E]
	items []S
	at    func(S) Opt[E]
}

func (s typedValues[S, E]) count() int { return len(s.items) }
func (s typedValues[S, E]) isNull(i int) bool { return !s.at(s.items[i]).Valid }
func (s typedValues[S, E]) width(int) int { return s.c.width() }
func (s typedValues[S, E]) putFixed(i int, dst []byte) { s.c.putFixed(s.at(s.items[i]).Value, dst) }
func (s typedValues[S, E]) putVar(i int, dst []byte) int {
	return s.c.putVar(s.at(s.items[i]).Value, dst)
}
func (s typedValues[S, E]) varSize(i int) int { return s.c.varSize(s.at(s.items[i]).Value) }

func identity[E any](v Opt[E]) Opt[E] { return v }

// anyValues lays out items through the dynamically typed side of a codec.
type anyValues[S any] struct {
	c     AnyCodec
	items []S
	at    func(S) any
}

func (s anyValues[S]) count() int { return len(s.items) }
func (s anyValues[S]) isNull(i int) bool { return s.at(s.items[i]) == nil }
func (s anyValues[S]) width(int) int { return s.c.width() }
func (s anyValues[S]) putFixed(i int, dst []byte) { s.c.putFixedAny(s.at(s.items[i]), dst) }
func (s anyValues[S]) putVar(i int, dst []byte) int { return s.c.putVarAny(s.at(s.items[i]), dst) }
func (s anyValues[S]) varSize(i int) int { return s.c.varSizeAny(s.at(s.items[i])) }

func anyItem(v any) any { return v }
func entryKey(e types.MapEntry) any { return e.Key }
func entryValue(e types.MapEntry) any { return e.Value }

// vectorValues lays out the n rows of vec starting at offset, the elements
// of one array or one side of one map.
type vectorValues struct {
	c      AnyCodec
	vec    *vector.Vector
	offset int
	n      int
}

func (s vectorValues) count() int { return s.n }
func (s vectorValues) isNull(i int) bool { return s.vec.IsNull(s.offset + i) }
func (s vectorValues) width(int) int { return s.c.width() }
func (s vectorValues) putFixed(i int, dst []byte) { s.c.putFixedAt(s.vec, s.offset+i, dst) }
func (s vectorValues) putVar(i int, dst []byte) int { return s.c.putVarAt(s.vec, s.offset+i, dst) }
func (s vectorValues) varSize(i int) int { return s.c.varSizeAt(s.vec, s.offset+i) }

func (s vectorValues) writeNulls(dst []byte) bool {
	if !s.vec.NullsByRow() {
		return false
	}
	nulls.WriteBits(s.vec.GetNulls(), dst, s.offset, s.n)
	return true
}

// arrayOf is the dynamically typed ARRAY codec.
type arrayOf struct {
	variable
	elem AnyCodec
}

func (c *arrayOf) values(v any) source {
	if x, ok := v.([]any); ok {
		return anyValues[any]{c: c.elem, items: x, at: anyItem}
	}
	panic(moerr.NewInvalidArgNoCtx(c.typ.String()+" value", v))
}

func (c *arrayOf) putVarAny(v any, dst []byte) int {
	return writeArray(c.values(v), c.elem.width(), dst)
}

func (c *arrayOf) varSizeAny(v any) int {
	return arraySize(c.values(v), c.elem.width())
}

func (c *arrayOf) elements(vec *vector.Vector, row int) source {
	p, r := vec.Resolve(row)
	return vectorValues{c: c.elem, vec: p.GetElements(), offset: p.OffsetAt(r), n: p.SizeAt(r)}
}

func (c *arrayOf) putVarAt(vec *vector.Vector, row int, dst []byte) int {
	return writeArray(c.elements(vec, row), c.elem.width(), dst)
}

func (c *arrayOf) varSizeAt(vec *vector.Vector, row int) int {
	return arraySize(c.elements(vec, row), c.elem.width())
}

// arrayCodec adds the statically typed []Opt[E] shape to arrayOf. Inside a
// statically typed row both shapes are accepted.
type arrayCodec[E any] struct {
	arrayOf
	typed Codec[E]
}

func Array[E any](elem Codec[E]) Codec[[]Opt[E]] {
	return &arrayCodec[E]{
		arrayOf: arrayOf{variable: variable{typ: types.NewArrayType(elem.Type())}, elem: elem},
		typed:   elem,
	}
}

func (c *arrayCodec[E]) optValues(v []Opt[E]) source {
	return typedValues[Opt[E], E]{c: c.typed, items: v, at: identity[E]}
}

func (c *arrayCodec[E]) putFixed([]Opt[E], []byte) { panic(notFixed(c.typ)) }

func (c *arrayCodec[E]) putVar(v []Opt[E], dst []byte) int {
	return writeArray(c.optValues(v), c.elem.width(), dst)
}

func (c *arrayCodec[E]) varSize(v []Opt[E]) int {
	return arraySize(c.optValues(v), c.elem.width())
}

func (c *arrayCodec[E]) putVarAny(v any, dst []byte) int {
	if x, ok := v.([]Opt[E]); ok {
		return c.putVar(x, dst)
	}
	return c.arrayOf.putVarAny(v, dst)
}

func (c *arrayCodec[E]) varSizeAny(v any) int {
	if x, ok := v.([]Opt[E]); ok {
		return c.varSize(x)
	}
	return c.arrayOf.varSizeAny(v)
}

// mapOf is the dynamically typed MAP codec.
type mapOf struct {
	variable
	key, value AnyCodec
}

func (c *mapOf) entries(v any) (keys, values source) {
	if x, ok := v.([]types.MapEntry); ok {
		return anyValues[types.MapEntry]{c: c.key, items: x, at: entryKey},
			anyValues[types.MapEntry]{c: c.value, items: x, at: entryValue}
	}
	panic(moerr.NewInvalidArgNoCtx(c.typ.String()+" value", v))
}

func (c *mapOf) putVarAny(v any, dst []byte) int {
	keys, values := c.entries(v)
	return writeMap(keys, c.key.width(), values, c.value.width(), dst)
}

func (c *mapOf) varSizeAny(v any) int {
	keys, values := c.entries(v)
	return mapSize(keys, c.key.width(), values, c.value.width())
}

func (c *mapOf) entriesAt(vec *vector.Vector, row int) (keys, values source) {
	p, r := vec.Resolve(row)
	offset, n := p.OffsetAt(r), p.SizeAt(r)
	return vectorValues{c: c.key, vec: p.GetMapKeys(), offset: offset, n: n},
		vectorValues{c: c.value, vec: p.GetMapValues(), offset: offset, n: n}
}

func (c *mapOf) putVarAt(vec *vector.Vector, row int, dst []byte) int {
	keys, values := c.entriesAt(vec, row)
	return writeMap(keys, c.key.width(), values, c.value.width(), dst)
}

func (c *mapOf) varSizeAt(vec *vector.Vector, row int) int {
	keys, values := c.entriesAt(vec, row)
	return mapSize(keys, c.key.width(), values, c.value.width())
}

// mapCodec adds the statically typed []Entry[K, V] shape to mapOf.
type mapCodec[K, V any] struct {
	mapOf
	typedKey   Codec[K]
	typedValue Codec[V]
}

func Map[K, V any](key Codec[K], value Codec[V]) Codec[[]Entry[K, V]] {
	return &mapCodec[K, V]{
		mapOf: mapOf{
			variable: variable{typ: types.NewMapType(key.Type(), value.Type())},
			key:      key,
			value:    value,
		},
		typedKey:   key,
		typedValue: value,
	}
}

func (c *mapCodec[K, V]) typedEntries(v []Entry[K, V]) (keys, values source) {
	return typedValues[Entry[K, V], K]{c: c.typedKey, items: v, at: func(e Entry[K, V]) Opt[K] { return e.Key }},
		typedValues[Entry[K, V], V]{c: c.typedValue, items: v, at: func(e Entry[K, V]) Opt[V] { return e.Value }}
}

func (c *mapCodec[K, V]) putFixed([]Entry[K, V], []byte) { panic(notFixed(c.typ)) }

func (c *mapCodec[K, V]) putVar(v []Entry[K, V], dst []byte) int {
	keys, values := c.typedEntries(v)
	return writeMap(keys, c.key.width(), values, c.value.width(), dst)
}

func (c *mapCodec[K, V]) varSize(v []Entry[K, V]) int {
	keys, values := c.typedEntries(v)
	return mapSize(keys, c.key.width(), values, c.value.width())
}

func (c *mapCodec[K, V]) putVarAny(v any, dst []byte) int {
	if x, ok := v.([]Entry[K, V]); ok {
		return c.putVar(x, dst)
	}
	return c.mapOf.putVarAny(v, dst)
}

func (c *mapCodec[K, V]) varSizeAny(v any) int {
	if x, ok := v.([]Entry[K, V]); ok {
		return c.varSize(x)
	}
	return c.mapOf.varSizeAny(v)
}

// rowCodec writes ROW values given as one dynamically typed value per
// field. It serves both surfaces.
type rowCodec struct {
	variable
	fields []AnyCodec
}

// Row builds the codec of an unnamed row.
func Row(fields ...AnyCodec) Codec[[]any] {
	return NamedRow(nil, fields...)
}

// NamedRow builds the codec of a row with field names. Names do not change
// the layout.
func NamedRow(names []string, fields ...AnyCodec) Codec[[]any] {
	typs := make([]types.Type, len(fields))
	for i, f := range fields {
		typs[i] = f.Type()
	}
	return &rowCodec{variable: variable{typ: types.NewRowType(names, typs...)}, fields: fields}
}

type anyFields struct {
	fields []AnyCodec
	vals   []any
}

func (s anyFields) count() int { return len(s.fields) }
func (s anyFields) isNull(i int) bool { return s.vals[i] == nil }
func (s anyFields) width(i int) int { return s.fields[i].width() }
func (s anyFields) putFixed(i int, dst []byte) { s.fields[i].putFixedAny(s.vals[i], dst) }
func (s anyFields) putVar(i int, dst []byte) int { return s.fields[i].putVarAny(s.vals[i], dst) }
func (s anyFields) varSize(i int) int { return s.fields[i].varSizeAny(s.vals[i]) }

// vectorFields are the fields of row r of the ROW vector p.
type vectorFields struct {
	fields []AnyCodec
	p      *vector.Vector
	r      int
}

func (s vectorFields) count() int { return len(s.fields) }
func (s vectorFields) isNull(i int) bool { return s.p.ChildAt(i).IsNull(s.r) }
func (s vectorFields) width(i int) int { return s.fields[i].width() }
func (s vectorFields) putFixed(i int, dst []byte) {
	s.fields[i].putFixedAt(s.p.ChildAt(i), s.r, dst)
}
func (s vectorFields) putVar(i int, dst []byte) int {
	return s.fields[i].putVarAt(s.p.ChildAt(i), s.r, dst)
}
func (s vectorFields) varSize(i int) int { return s.fields[i].varSizeAt(s.p.ChildAt(i), s.r) }

func (c *rowCodec) values(v any) source {
	if x, ok := v.([]any); ok && len(x) == len(c.fields) {
		return anyFields{fields: c.fields, vals: x}
	}
	panic(moerr.NewInvalidArgNoCtx(c.typ.String()+" value", v))
}

func (c *rowCodec) fieldsAt(vec *vector.Vector, row int) source {
	p, r := vec.Resolve(row)
	if p.ChildCount() != len(c.fields) {
		panic(moerr.NewTypeMismatchNoCtx("%d fields for %s", p.ChildCount(), c.typ.String()))
	}
	return vectorFields{fields: c.fields, p: p, r: r}
}

func (c *rowCodec) putFixed([]any, []byte) { panic(notFixed(c.typ)) }

func (c *rowCodec) putVar(v []any, dst []byte) int { return writeRow(c.values(v), dst, false) }
func (c *rowCodec) varSize(v []any) int { return rowSize(c.values(v), false) }

func (c *rowCodec) putVarAny(v any, dst []byte) int { return writeRow(c.values(v), dst, false) }
func (c *rowCodec) varSizeAny(v any) int { return rowSize(c.values(v), false) }

func (c *rowCodec) putVarAt(vec *vector.Vector, row int, dst []byte) int {
	return writeRow(c.fieldsAt(vec, row), dst, false)
}

func (c *rowCodec) varSizeAt(vec *vector.Vector, row int) int {
	return rowSize(c.fieldsAt(vec, row), false)
}
