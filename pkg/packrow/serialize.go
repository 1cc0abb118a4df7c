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
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// SerializeValue writes v at the start of buf and reports the number of
// payload bytes and whether v is non null.
//
// A fixed width scalar is written to buf[:w] and reports 0 bytes. VARCHAR
// and VARBINARY are copied as they are. An ARRAY or MAP reports its padded
// blob size, a ROW the end of its last payload. buf must hold SizeOf(c, v)
// bytes.
func SerializeValue[T any](c Codec[T], v Opt[T], buf []byte) (int, bool) {
	if !v.Valid {
		return 0, false
	}
	if rc, ok := any(c).(*rowCodec); ok {
		return writeRow(rc.values(any(v.Value)), buf, true), true
	}
	if c.width() > 0 {
		c.putFixed(v.Value, buf)
		return 0, true
	}
	return c.putVar(v.Value, buf), true
}

// SizeOf is the number of bytes SerializeValue needs for v.
func SizeOf[T any](c Codec[T], v Opt[T]) int {
	if !v.Valid {
		return 0
	}
	if rc, ok := any(c).(*rowCodec); ok {
		return rowSize(rc.values(any(v.Value)), true)
	}
	if w := c.width(); w > 0 {
		return w
	}
	return c.varSize(v.Value)
}

// SerializeVector writes row of vec like SerializeValue. It panics when vec
// is not of the type of c.
func SerializeVector[T any](c Codec[T], vec *vector.Vector, row int, buf []byte) (int, bool) {
	checkVectorType(c, vec)
	return serializeAt(c, vec, row, buf)
}

// SizeOfVector is the number of bytes SerializeVector needs for row.
func SizeOfVector[T any](c Codec[T], vec *vector.Vector, row int) int {
	checkVectorType(c, vec)
	return sizeAt(c, vec, row)
}

func checkVectorType(c AnyCodec, vec *vector.Vector) {
	if !c.Type().Eq(*vec.GetType()) {
		panic(moerr.NewTypeMismatchNoCtx("%s vector for %s codec", vec.GetType().String(), c.Type().String()))
	}
}

func serializeAny(c AnyCodec, v any, buf []byte) (int, bool) {
	if v == nil {
		return 0, false
	}
	if rc, ok := c.(*rowCodec); ok {
		return writeRow(rc.values(v), buf, true), true
	}
	if c.width() > 0 {
		c.putFixedAny(v, buf)
		return 0, true
	}
	return c.putVarAny(v, buf), true
}

func sizeAny(c AnyCodec, v any) int {
	if v == nil {
		return 0
	}
	if rc, ok := c.(*rowCodec); ok {
		return rowSize(rc.values(v), true)
	}
	if w := c.width(); w > 0 {
		return w
	}
	return c.varSizeAny(v)
}

func serializeAt(c AnyCodec, vec *vector.Vector, row int, buf []byte) (int, bool) {
	if vec.IsNull(row) {
		return 0, false
	}
	if rc, ok := c.(*rowCodec); ok {
		return writeRow(rc.fieldsAt(vec, row), buf, true), true
	}
	if c.width() > 0 {
		c.putFixedAt(vec, row, buf)
		return 0, true
	}
	return c.putVarAt(vec, row, buf), true
}

func sizeAt(c AnyCodec, vec *vector.Vector, row int) int {
	if vec.IsNull(row) {
		return 0
	}
	if rc, ok := c.(*rowCodec); ok {
		return rowSize(rc.fieldsAt(vec, row), true)
	}
	if w := c.width(); w > 0 {
		return w
	}
	return c.varSizeAt(vec, row)
}
