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
	"sync"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

// DynamicSerializer serializes values whose type is only known at run time
// as a types.Type. It writes the same bytes as the statically typed codec
// of that type.
type DynamicSerializer struct{}

var Dynamic DynamicSerializer

// codecs caches dynamic codecs by type shape. Field names do not change
// the layout, so rows that differ only in names share a codec.
var codecs sync.Map

func codecFor(typ types.Type) (AnyCodec, error) {
	key := typ.Shape()
	if c, ok := codecs.Load(key); ok {
		return c.(AnyCodec), nil
	}
	c, err := newCodec(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := codecs.LoadOrStore(key, c)
	return actual.(AnyCodec), nil
}

// childCounts is the number of children an array or a map descriptor
// must carry.
var childCounts = map[types.T]int{
	types.T_array: 1,
	types.T_map:   2,
}

func newCodec(typ types.Type) (AnyCodec, error) {
	if n, ok := childCounts[typ.Oid]; ok && len(typ.Children) != n {
		return nil, moerr.NewErrUnsupportedDataTypeNoCtx(typ)
	}
	switch typ.Oid {
	case types.T_bool:
		return booleanCodec, nil
	case types.T_int8:
		return tinyintCodec, nil
	case types.T_int16:
		return smallintCodec, nil
	case types.T_int32:
		return integerCodec, nil
	case types.T_int64:
		return bigintCodec, nil
	case types.T_float32:
		return realCodec, nil
	case types.T_float64:
		return doubleCodec, nil
	case types.T_timestamp:
		return timestampCodec, nil
	case types.T_varchar:
		return varcharCodec, nil
	case types.T_varbinary:
		return varbinaryCodec, nil
	case types.T_array:
		elem, err := newCodec(typ.ElemType())
		if err != nil {
			return nil, err
		}
		return &arrayOf{variable: variable{typ: typ}, elem: elem}, nil
	case types.T_map:
		key, err := newCodec(typ.KeyType())
		if err != nil {
			return nil, err
		}
		value, err := newCodec(typ.ValueType())
		if err != nil {
			return nil, err
		}
		return &mapOf{variable: variable{typ: typ}, key: key, value: value}, nil
	case types.T_row:
		fields := make([]AnyCodec, len(typ.Children))
		for i, child := range typ.Children {
			f, err := newCodec(child)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return &rowCodec{variable: variable{typ: typ}, fields: fields}, nil
	}
	return nil, moerr.NewErrUnsupportedDataTypeNoCtx(typ)
}

// checkValue verifies that v has the Go shape of typ. nil is a null of any
// type.
func checkValue(typ types.Type, v any) error {
	if v == nil {
		return nil
	}
	var ok bool
	switch typ.Oid {
	case types.T_bool:
		_, ok = v.(bool)
	case types.T_int8:
		_, ok = v.(int8)
	case types.T_int16:
		_, ok = v.(int16)
	case types.T_int32:
		_, ok = v.(int32)
	case types.T_int64:
		_, ok = v.(int64)
	case types.T_float32:
		_, ok = v.(float32)
	case types.T_float64:
		_, ok = v.(float64)
	case types.T_timestamp:
		_, ok = v.(types.Timestamp)
	case types.T_varchar:
		_, ok = v.(string)
	case types.T_varbinary:
		_, ok = v.([]byte)
	case types.T_array:
		var elems []any
		if elems, ok = v.([]any); ok {
			for _, e := range elems {
				if err := checkValue(typ.ElemType(), e); err != nil {
					return err
				}
			}
		}
	case types.T_map:
		var entries []types.MapEntry
		if entries, ok = v.([]types.MapEntry); ok {
			for _, e := range entries {
				if err := checkValue(typ.KeyType(), e.Key); err != nil {
					return err
				}
				if err := checkValue(typ.ValueType(), e.Value); err != nil {
					return err
				}
			}
		}
	case types.T_row:
		var fields []any
		if fields, ok = v.([]any); ok && len(fields) == len(typ.Children) {
			for i, f := range fields {
				if err := checkValue(typ.Children[i], f); err != nil {
					return err
				}
			}
		} else {
			ok = false
		}
	}
	if !ok {
		return moerr.NewInvalidArgNoCtx(typ.String()+" value", v)
	}
	return nil
}

// SerializeValue writes the dynamically typed value v of typ at the start
// of buf. Results are those of the package level SerializeValue. An
// unsupported type is reported as ErrUnsupportedDataType and a value not
// shaped like typ as ErrInvalidArg, both before anything is written.
func (DynamicSerializer) SerializeValue(typ types.Type, v any, buf []byte) (int, bool, error) {
	c, err := codecFor(typ)
	if err != nil {
		return 0, false, err
	}
	if err = checkValue(typ, v); err != nil {
		return 0, false, err
	}
	if sz := sizeAny(c, v); len(buf) < sz {
		return 0, false, moerr.NewShortBufferNoCtx("%d bytes for %s, have %d", sz, typ.String(), len(buf))
	}
	n, ok := serializeAny(c, v, buf)
	return n, ok, nil
}

// SizeValue is the number of bytes SerializeValue needs for v.
func (DynamicSerializer) SizeValue(typ types.Type, v any) (int, error) {
	c, err := codecFor(typ)
	if err != nil {
		return 0, err
	}
	if err = checkValue(typ, v); err != nil {
		return 0, err
	}
	return sizeAny(c, v), nil
}

// Serialize writes row of vec as a value of typ. The vector is read
// through the accessors of typ, so a VARCHAR vector serializes as
// VARBINARY. Reading a vector of another shape panics.
func (DynamicSerializer) Serialize(typ types.Type, vec *vector.Vector, row int, buf []byte) (int, bool, error) {
	c, err := codecFor(typ)
	if err != nil {
		return 0, false, err
	}
	if sz := sizeAt(c, vec, row); len(buf) < sz {
		return 0, false, moerr.NewShortBufferNoCtx("%d bytes for %s, have %d", sz, typ.String(), len(buf))
	}
	n, ok := serializeAt(c, vec, row, buf)
	return n, ok, nil
}

// Size is the number of bytes Serialize needs for row of vec.
func (DynamicSerializer) Size(typ types.Type, vec *vector.Vector, row int) (int, error) {
	c, err := codecFor(typ)
	if err != nil {
		return 0, err
	}
	return sizeAt(c, vec, row), nil
}
