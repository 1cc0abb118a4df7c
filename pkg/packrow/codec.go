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
	"encoding/binary"
	"math"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// Opt is an optional value. The zero Opt is null.
type Opt[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Valid: true}
}

func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Entry is one key/value pair of a statically typed map value.
type Entry[K, V any] struct {
	Key   Opt[K]
	Value Opt[V]
}

// AnyCodec writes values of one type either from a dynamically typed
// value, using the Go shapes documented in package types, or from a row of
// a vector of that type.
type AnyCodec interface {
	Type() types.Type

	// width is the natural width of a fixed width value, 0 when the value
	// is referenced through an offset and length word.
	width() int

	putFixedAny(v any, dst []byte)
	putVarAny(v any, dst []byte) int
	varSizeAny(v any) int

	putFixedAt(vec *vector.Vector, row int, dst []byte)
	putVarAt(vec *vector.Vector, row int, dst []byte) int
	varSizeAt(vec *vector.Vector, row int) int
}

// Codec writes values of Go type T. Codecs are built from the type
// constructors of this package and compose the way types do, e.g.
// Map(Varchar(), Array(Smallint())) is a Codec[[]Entry[string, []Opt[int16]]].
type Codec[T any] interface {
	AnyCodec

	putFixed(v T, dst []byte)
	putVar(v T, dst []byte) int
	varSize(v T) int
}

// fixedCodec writes a fixed width value in its natural width w, which for
// a timestamp is narrower than its in-memory size.
type fixedCodec[T types.FixedSizeT] struct {
	typ types.Type
	w   int
	put func(v T, dst []byte)
}

func newFixedCodec[T types.FixedSizeT](w int, put func(v T, dst []byte)) *fixedCodec[T] {
	return &fixedCodec[T]{typ: types.OidOf[T]().ToType(), w: w, put: put}
}

func (c *fixedCodec[T]) Type() types.Type { return c.typ }
func (c *fixedCodec[T]) width() int { return c.w }

func (c *fixedCodec[T]) putFixed(v T, dst []byte) { c.put(v, dst) }
func (c *fixedCodec[T]) putVar(T, []byte) int { panic(notVariable(c.typ)) }
func (c *fixedCodec[T]) varSize(T) int { panic(notVariable(c.typ)) }

func (c *fixedCodec[T]) putFixedAny(v any, dst []byte) { c.put(v.(T), dst) }
func (c *fixedCodec[T]) putVarAny(any, []byte) int { panic(notVariable(c.typ)) }
func (c *fixedCodec[T]) varSizeAny(any) int { panic(notVariable(c.typ)) }

func (c *fixedCodec[T]) putFixedAt(vec *vector.Vector, row int, dst []byte) {
	c.put(vector.GetFixedAt[T](vec, row), dst)
}
func (c *fixedCodec[T]) putVarAt(*vector.Vector, int, []byte) int { panic(notVariable(c.typ)) }
func (c *fixedCodec[T]) varSizeAt(*vector.Vector, int) int { panic(notVariable(c.typ)) }

func notVariable(typ types.Type) error {
	return moerr.NewInternalErrorNoCtx("%s is not variable length", typ.String())
}

func notFixed(typ types.Type) error {
	return moerr.NewInternalErrorNoCtx("%s is not fixed width", typ.String())
}

var (
	booleanCodec = newFixedCodec(1, func(v bool, dst []byte) {
		if v {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	})
	tinyintCodec = newFixedCodec(1, func(v int8, dst []byte) {
		dst[0] = byte(v)
	})
	smallintCodec = newFixedCodec(2, func(v int16, dst []byte) {
		binary.LittleEndian.PutUint16(dst, uint16(v))
	})
	integerCodec = newFixedCodec(4, func(v int32, dst []byte) {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	})
	bigintCodec = newFixedCodec(8, func(v int64, dst []byte) {
		binary.LittleEndian.PutUint64(dst, uint64(v))
	})
	realCodec = newFixedCodec(4, func(v float32, dst []byte) {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	})
	doubleCodec = newFixedCodec(8, func(v float64, dst []byte) {
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	})
	// timestamps are written as microseconds since the epoch
	timestampCodec = newFixedCodec(8, func(v types.Timestamp, dst []byte) {
		binary.LittleEndian.PutUint64(dst, uint64(v.ToMicros()))
	})

	varcharCodec   = &bytesCodec[string]{typ: types.T_varchar.ToType()}
	varbinaryCodec = &bytesCodec[[]byte]{typ: types.T_varbinary.ToType()}
)

func Boolean() Codec[bool] { return booleanCodec }
func Tinyint() Codec[int8] { return tinyintCodec }
func Smallint() Codec[int16] { return smallintCodec }
func Integer() Codec[int32] { return integerCodec }
func Bigint() Codec[int64] { return bigintCodec }
func Real() Codec[float32] { return realCodec }
func Double() Codec[float64] { return doubleCodec }
func Timestamp() Codec[types.Timestamp] { return timestampCodec }
func Varchar() Codec[string] { return varcharCodec }
func Varbinary() Codec[[]byte] { return varbinaryCodec }

// variable is embedded by codecs of variable length values.
type variable struct {
	typ types.Type
}

func (c *variable) Type() types.Type { return c.typ }
func (c *variable) width() int { return 0 }

func (c *variable) putFixedAny(any, []byte) { panic(notFixed(c.typ)) }
func (c *variable) putFixedAt(*vector.Vector, int, []byte) { panic(notFixed(c.typ)) }

// bytesCodec copies VARCHAR and VARBINARY payloads as they are.
type bytesCodec[T string | []byte] struct {
	typ types.Type
}

func (c *bytesCodec[T]) Type() types.Type { return c.typ }
func (c *bytesCodec[T]) width() int { return 0 }

func (c *bytesCodec[T]) putFixed(T, []byte) { panic(notFixed(c.typ)) }
func (c *bytesCodec[T]) putFixedAny(any, []byte) { panic(notFixed(c.typ)) }
func (c *bytesCodec[T]) putFixedAt(*vector.Vector, int, []byte) { panic(notFixed(c.typ)) }

func (c *bytesCodec[T]) putVar(v T, dst []byte) int { return copy(dst, v) }
func (c *bytesCodec[T]) varSize(v T) int { return len(v) }

func (c *bytesCodec[T]) putVarAny(v any, dst []byte) int {
	switch x := v.(type) {
	case string:
		return copy(dst, x)
	case []byte:
		return copy(dst, x)
	}
	panic(moerr.NewInvalidArgNoCtx(c.typ.String()+" value", v))
}

func (c *bytesCodec[T]) varSizeAny(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case []byte:
		return len(x)
	}
	panic(moerr.NewInvalidArgNoCtx(c.typ.String()+" value", v))
}

func (c *bytesCodec[T]) putVarAt(vec *vector.Vector, row int, dst []byte) int {
	return copy(dst, vec.GetBytesAt(row))
}

func (c *bytesCodec[T]) varSizeAt(vec *vector.Vector, row int) int {
	return len(vec.GetBytesAt(row))
}
