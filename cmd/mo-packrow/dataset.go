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

package main

import (
	"math"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/types"
)

// dataset is a list of typed columns:
//
//	[[column]]
//	name = "c1"
//	type = "MAP(VARCHAR, ARRAY(SMALLINT))"
//	values = [ [["a", [1, 2]], ["b", {}]], {} ]
//
// An empty inline table {} is null at any depth. An ARRAY or ROW value is a
// list, a MAP value is a list of [key, value] pairs. TIMESTAMP takes a toml
// datetime or seconds since the epoch.
type dataset struct {
	Columns []column `toml:"column"`
}

type column struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Values []any  `toml:"values"`
}

func decodeDataset(path string) (*dataset, error) {
	ds := &dataset{}
	if _, err := toml.DecodeFile(path, ds); err != nil {
		return nil, moerr.NewInvalidInputNoCtx("dataset %s: %v", path, err)
	}
	return ds, nil
}

func decodeDatasetString(data string) (*dataset, error) {
	ds := &dataset{}
	if _, err := toml.Decode(data, ds); err != nil {
		return nil, moerr.NewInvalidInputNoCtx("dataset: %v", err)
	}
	return ds, nil
}

func isNullValue(raw any) bool {
	m, ok := raw.(map[string]any)
	return raw == nil || ok && len(m) == 0
}

func convertColumn(typ types.Type, raws []any) ([]any, error) {
	data := make([]any, len(raws))
	for i, raw := range raws {
		v, err := convertValue(typ, raw)
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	return data, nil
}

// convertValue turns a decoded toml value into the Go shape of typ.
func convertValue(typ types.Type, raw any) (any, error) {
	if isNullValue(raw) {
		return nil, nil
	}
	switch typ.Oid {
	case types.T_bool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case types.T_int8:
		return convertInt[int8](typ, raw, math.MinInt8, math.MaxInt8)
	case types.T_int16:
		return convertInt[int16](typ, raw, math.MinInt16, math.MaxInt16)
	case types.T_int32:
		return convertInt[int32](typ, raw, math.MinInt32, math.MaxInt32)
	case types.T_int64:
		return convertInt[int64](typ, raw, math.MinInt64, math.MaxInt64)
	case types.T_float32:
		if f, ok := toFloat(raw); ok {
			return float32(f), nil
		}
	case types.T_float64:
		if f, ok := toFloat(raw); ok {
			return f, nil
		}
	case types.T_timestamp:
		switch x := raw.(type) {
		case time.Time:
			return types.NewTimestamp(x.Unix(), uint64(x.Nanosecond())), nil
		case int64:
			return types.NewTimestamp(x, 0), nil
		}
	case types.T_varchar:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case types.T_varbinary:
		if s, ok := raw.(string); ok {
			return []byte(s), nil
		}
	case types.T_array:
		if xs, ok := raw.([]any); ok {
			return convertColumn(typ.ElemType(), xs)
		}
	case types.T_map:
		if xs, ok := raw.([]any); ok {
			return convertEntries(typ, xs)
		}
	case types.T_row:
		if xs, ok := raw.([]any); ok && len(xs) == len(typ.Children) {
			fields := make([]any, len(xs))
			for i, x := range xs {
				f, err := convertValue(typ.Children[i], x)
				if err != nil {
					return nil, err
				}
				fields[i] = f
			}
			return fields, nil
		}
	default:
		return nil, moerr.NewErrUnsupportedDataTypeNoCtx(typ)
	}
	return nil, moerr.NewInvalidInputNoCtx("%v is not a %s", raw, typ.String())
}

func convertEntries(typ types.Type, xs []any) ([]types.MapEntry, error) {
	entries := make([]types.MapEntry, len(xs))
	for i, x := range xs {
		pair, ok := x.([]any)
		if !ok || len(pair) != 2 {
			return nil, moerr.NewInvalidInputNoCtx("map entry %v is not a [key, value] pair", x)
		}
		if isNullValue(pair[0]) {
			return nil, moerr.NewInvalidInputNoCtx("null map key in %s", typ.String())
		}
		k, err := convertValue(typ.KeyType(), pair[0])
		if err != nil {
			return nil, err
		}
		v, err := convertValue(typ.ValueType(), pair[1])
		if err != nil {
			return nil, err
		}
		entries[i] = types.MapEntry{Key: k, Value: v}
	}
	return entries, nil
}

func convertInt[T int8 | int16 | int32 | int64](typ types.Type, raw any, lo, hi int64) (any, error) {
	x, ok := raw.(int64)
	if !ok {
		return nil, moerr.NewInvalidInputNoCtx("%v is not a %s", raw, typ.String())
	}
	if x < lo || x > hi {
		return nil, moerr.NewOutOfRangeNoCtx(typ.String(), "value %d", x)
	}
	return T(x), nil
}

func toFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}
