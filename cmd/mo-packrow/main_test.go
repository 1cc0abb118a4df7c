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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/types"
)

const testDataset = `
[[column]]
name = "id"
type = "BIGINT"
values = [1, {}, -1]

[[column]]
name = "tags"
type = "ARRAY(SMALLINT)"
values = [[1, 2, {}, 4], {}]

[[column]]
name = "attrs"
type = "MAP(VARCHAR, ARRAY(SMALLINT))"
values = [[["hello", [1, 2]], ["world", {}]]]
`

func TestConvertValue(t *testing.T) {
	ds, err := decodeDatasetString(testDataset)
	require.NoError(t, err)
	require.Len(t, ds.Columns, 3)

	data, err := convertColumn(types.T_int64.ToType(), ds.Columns[0].Values)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), nil, int64(-1)}, data)

	data, err = convertColumn(types.MustParseType(ds.Columns[1].Type), ds.Columns[1].Values)
	require.NoError(t, err)
	require.Equal(t, []any{[]any{int16(1), int16(2), nil, int16(4)}, nil}, data)

	data, err = convertColumn(types.MustParseType(ds.Columns[2].Type), ds.Columns[2].Values)
	require.NoError(t, err)
	require.Equal(t, []any{[]types.MapEntry{
		{Key: "hello", Value: []any{int16(1), int16(2)}},
		{Key: "world"},
	}}, data)

	row, err := convertValue(types.MustParseType("ROW(VARBINARY, REAL, TIMESTAMP)"), []any{"ab", int64(2), int64(5)})
	require.NoError(t, err)
	require.Equal(t, []any{[]byte("ab"), float32(2), types.NewTimestamp(5, 0)}, row)
}

func TestConvertValueErrors(t *testing.T) {
	_, err := convertValue(types.T_int8.ToType(), int64(128))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))

	_, err = convertValue(types.T_varchar.ToType(), int64(1))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	_, err = convertValue(types.MustParseType("MAP(VARCHAR, BIGINT)"), []any{[]any{map[string]any{}, int64(1)}})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	_, err = convertValue(types.MustParseType("ROW(BIGINT, BIGINT)"), []any{int64(1)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	_, err = convertValue(types.T_opaque.ToType(), int64(1))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnsupportedDataType))
}

func TestRun(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	ds, err := decodeDatasetString(testDataset)
	require.NoError(t, err)

	var rows, batch bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, ds, false, &rows))
	require.NoError(t, run(context.Background(), cfg, ds, true, &batch))
	require.Equal(t, rows.String(), batch.String())

	expected := "" +
		"id BIGINT\n" +
		"  [0] 8 bytes 0000000000000001\n" +
		"  [1] null\n" +
		"  [2] 8 bytes ffffffffffffffff\n" +
		"tags ARRAY(SMALLINT)\n" +
		"  [0] 24 bytes 0000000000000004 0000000000000004 0004000000020001\n" +
		"  [1] null\n"
	require.Equal(t, expected, rows.String()[:len(expected)])
	require.Contains(t, rows.String(), "attrs MAP(VARCHAR, ARRAY(SMALLINT))\n  [0] 112 bytes ")
}
