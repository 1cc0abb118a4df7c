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

package types

import (
	"strings"
	"unsafe"
)

type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int8  T = 20
	T_int16 T = 21
	T_int32 T = 22
	T_int64 T = 23

	// numeric/float family
	T_float32 T = 30
	T_float64 T = 31

	// time family
	T_timestamp T = 52

	// string family
	T_varchar   T = 61
	T_varbinary T = 62

	// nested family
	T_array T = 70
	T_map   T = 71
	T_row   T = 72

	// opaque host object, never serializable
	T_opaque T = 90
)

// Type is a type descriptor tree. Children holds the element type of an
// array, the key and value types of a map, and the field types of a row.
// Names optionally names the fields of a row.
type Type struct {
	Oid      T
	Children []Type
	Names    []string
}

// FixedSizeT are the host types backing fixed width columns.
type FixedSizeT interface {
	bool | int8 | int16 | int32 | int64 | float32 | float64 | Timestamp
}

// Varlena locates a variable length value inside the area of a vector.
type Varlena struct {
	Offset uint32
	Length uint32
}

const (
	VarlenaSize   int = int(unsafe.Sizeof(Varlena{}))
	TimestampSize int = int(unsafe.Sizeof(Timestamp{}))
)

func (v Varlena) GetByteSlice(area []byte) []byte {
	return area[v.Offset : v.Offset+v.Length]
}

func (v Varlena) GetString(area []byte) string {
	return string(v.GetByteSlice(area))
}

// OidOf maps a fixed width host type to its type kind.
func OidOf[V FixedSizeT]() T {
	var z V
	switch any(z).(type) {
	case bool:
		return T_bool
	case int8:
		return T_int8
	case int16:
		return T_int16
	case int32:
		return T_int32
	case int64:
		return T_int64
	case float32:
		return T_float32
	case float64:
		return T_float64
	case Timestamp:
		return T_timestamp
	}
	return T_any
}

func (t T) ToType() Type {
	return Type{Oid: t}
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOLEAN"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INTEGER"
	case T_int64:
		return "BIGINT"
	case T_float32:
		return "REAL"
	case T_float64:
		return "DOUBLE"
	case T_timestamp:
		return "TIMESTAMP"
	case T_varchar:
		return "VARCHAR"
	case T_varbinary:
		return "VARBINARY"
	case T_array:
		return "ARRAY"
	case T_map:
		return "MAP"
	case T_row:
		return "ROW"
	case T_opaque:
		return "OPAQUE"
	}
	return "UNKNOWN_TYPE"
}

// FixedLength is the in memory width of one value, or -1 for variable
// length and nested types.
func (t T) FixedLength() int {
	switch t {
	case T_bool, T_int8:
		return 1
	case T_int16:
		return 2
	case T_int32, T_float32:
		return 4
	case T_int64, T_float64:
		return 8
	case T_timestamp:
		return TimestampSize
	}
	return -1
}

func NewArrayType(elem Type) Type {
	return Type{Oid: T_array, Children: []Type{elem}}
}

func NewMapType(key, value Type) Type {
	return Type{Oid: T_map, Children: []Type{key, value}}
}

// NewRowType builds a row type. names may be nil.
func NewRowType(names []string, fields ...Type) Type {
	return Type{Oid: T_row, Children: fields, Names: names}
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() > 0
}

func (t Type) IsVarlen() bool {
	return t.Oid == T_varchar || t.Oid == T_varbinary
}

func (t Type) IsNested() bool {
	return t.Oid == T_array || t.Oid == T_map || t.Oid == T_row
}

// TypeSize is the width of one slot in a flat vector of t.
func (t Type) TypeSize() int {
	if t.IsFixedLen() {
		return t.Oid.FixedLength()
	}
	if t.IsVarlen() {
		return VarlenaSize
	}
	return 0
}

func (t Type) ElemType() Type {
	return t.Children[0]
}

func (t Type) KeyType() Type {
	return t.Children[0]
}

func (t Type) ValueType() Type {
	return t.Children[1]
}

// FieldName returns the name of field i, or "" when the row is unnamed.
func (t Type) FieldName(i int) string {
	if i < len(t.Names) {
		return t.Names[i]
	}
	return ""
}

func (t Type) Eq(o Type) bool {
	if t.Oid != o.Oid || len(t.Children) != len(o.Children) {
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Eq(o.Children[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	var sb strings.Builder
	t.format(&sb, true)
	return sb.String()
}

// Shape renders t without field names. Types equal under Eq have the same
// shape.
func (t Type) Shape() string {
	var sb strings.Builder
	t.format(&sb, false)
	return sb.String()
}

func (t Type) format(sb *strings.Builder, names bool) {
	sb.WriteString(t.Oid.String())
	if !t.IsNested() {
		return
	}
	sb.WriteByte('(')
	for i, c := range t.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		if name := t.FieldName(i); names && t.Oid == T_row && name != "" {
			sb.WriteString(name)
			sb.WriteByte(' ')
		}
		c.format(sb, names)
	}
	sb.WriteByte(')')
}
