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
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
)

func values(v *vector.Vector) []any {
	ret := make([]any, v.Length())
	for i := range ret {
		ret[i] = v.GetAny(i)
	}
	return ret
}

func transitions(data []any) int {
	n := 0
	for i := 1; i < len(data); i++ {
		if !equalAny(data[i], data[i-1]) {
			n++
		}
	}
	return n
}

func equalAny(a, b any) bool {
	return valueKey(a) == valueKey(b)
}

func TestEncodedVectorRoundTrip(t *testing.T) {
	int64Type := types.T_int64.ToType()
	cases := []struct {
		typ  types.Type
		data []any
	}{
		{types.T_int16.ToType(), []any{int16(10), int16(10), nil, int16(-3), int16(10), nil, nil}},
		{types.T_int32.ToType(), []any{int32(1), int32(1_000_000), int32(-1_000_000), nil}},
		{int64Type, []any{int64(100), int64(101), int64(99), nil, int64(100)}},
		{int64Type, []any{int64(math.MaxInt64), int64(0), int64(1), int64(2), int64(math.MinInt64)}},
		{int64Type, []any{nil, nil, nil}},
	}
	for _, enc := range []vector.Encoding{vector.FLAT, vector.DICTIONARY, vector.SEQUENCE, vector.BIASED} {
		for _, c := range cases {
			mk := NewVectorMaker(mpool.MustNewZero())
			v, err := mk.EncodedVector(enc, c.typ, c.data)
			require.NoError(t, err, "%s %v", enc, c.data)
			require.Equal(t, enc, v.GetEncoding())
			require.Equal(t, c.data, values(v), "%s", enc)
			for i := range c.data {
				require.Equal(t, c.data[i] == nil, v.IsNull(i))
			}

			switch enc {
			case vector.DICTIONARY:
				for i := range c.data {
					if c.data[i] == nil {
						continue
					}
					base, idx := v.Resolve(i)
					require.Less(t, idx, base.Length())
				}
			case vector.SEQUENCE:
				if len(c.data) > 0 {
					base, _ := v.Resolve(0)
					require.LessOrEqual(t, base.Length(), transitions(c.data)+1)
				}
			}

			v.Free(mk.MPool())
			mk.Release()
			require.Equal(t, int64(0), mk.MPool().CurrNB())
		}
	}
}

func TestEncodedVectorStrings(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	typ := types.T_varchar.ToType()
	data := []any{"a", "a", nil, "bb", "a", ""}
	for _, enc := range []vector.Encoding{vector.FLAT, vector.DICTIONARY, vector.SEQUENCE} {
		v, err := mk.EncodedVector(enc, typ, data)
		require.NoError(t, err)
		require.Equal(t, data, values(v))
	}
	_, err := mk.EncodedVector(vector.BIASED, typ, data)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = mk.EncodedVector(vector.ARRAY, typ, data)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
	_, err = mk.EncodedVector(vector.LAZY, typ, data)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestConstantVector(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	v, err := mk.ConstantVector(types.T_int64.ToType(), []any{int64(11), int64(11), int64(11)})
	require.NoError(t, err)
	require.True(t, v.IsConst())
	require.Equal(t, []any{int64(11), int64(11), int64(11)}, values(v))

	v, err = mk.ConstantVector(types.T_int64.ToType(), []any{nil, nil})
	require.NoError(t, err)
	require.True(t, v.IsConstNull())
	require.Equal(t, 2, v.Length())

	_, err = mk.ConstantVector(types.T_int64.ToType(), []any{int64(1), int64(2)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	rowType := types.NewRowType([]string{"a", "b"}, types.T_int32.ToType(), types.T_varchar.ToType())
	cr, err := mk.ConstantRow(rowType, []any{int32(7), "x"}, 4)
	require.NoError(t, err)
	require.Equal(t, []any{int32(7), "x"}, cr.GetAny(3))
	nr, err := mk.ConstantRow(rowType, nil, 4)
	require.NoError(t, err)
	require.True(t, nr.IsNull(0))
}

func TestBiasVector(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	typ := types.T_int64.ToType()

	v, err := mk.BiasVector(typ, []any{int64(10), int64(15), int64(13), int64(11), int64(12), int64(14)})
	require.NoError(t, err)
	bias, exc := v.Bias()
	require.Equal(t, int64(12), bias)
	require.Equal(t, 0, exc)

	data := []any{int64(1), int64(2), int64(math.MaxInt64), int64(3), nil}
	v, err = mk.BiasVector(typ, data)
	require.NoError(t, err)
	_, exc = v.Bias()
	require.Equal(t, 1, exc)
	require.Equal(t, data, values(v))

	_, err = mk.BiasVector(typ, []any{int32(1)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = mk.BiasVector(types.T_int8.ToType(), []any{int8(1)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}

func TestNestedMakers(t *testing.T) {
	Convey("nested vectors from values and callbacks", t, func() {
		mp := mpool.MustNewZero()
		mk := NewVectorMaker(mp)
		smallint := types.T_int16.ToType()

		Convey("arrays", func() {
			v, err := mk.ArrayVectorNullable(smallint, []any{
				[]any{int16(1), nil},
				nil,
				[]any{},
			})
			So(err, ShouldBeNil)
			So(v.GetAny(0), ShouldResemble, []any{int16(1), nil})
			So(v.IsNull(1), ShouldBeTrue)
			So(v.GetAny(2), ShouldResemble, []any{})

			f, err := mk.ArrayVectorFunc(smallint, 5,
				func(row int) int { return row },
				func(idx int) any { return int16(idx) },
				NullEvery(2, 1))
			So(err, ShouldBeNil)
			So(f.GetAny(0), ShouldResemble, []any{})
			So(f.IsNull(1), ShouldBeTrue)
			So(f.GetAny(2), ShouldResemble, []any{int16(0), int16(1)})
			So(f.IsNull(3), ShouldBeTrue)
			So(f.GetAny(4), ShouldResemble, []any{int16(2), int16(3), int16(4), int16(5)})

			v.Free(mp)
			f.Free(mp)
			So(mp.CurrNB(), ShouldEqual, int64(0))
		})

		Convey("maps", func() {
			v, err := mk.MapVector(smallint, smallint, []any{
				[]types.MapEntry{{Key: int16(2), Value: int16(3)}, {Key: int16(4), Value: nil}},
				nil,
			})
			So(err, ShouldBeNil)
			So(v.GetAny(0), ShouldResemble, []types.MapEntry{{Key: int16(2), Value: int16(3)}, {Key: int16(4)}})
			So(v.IsNull(1), ShouldBeTrue)

			f, err := mk.MapVectorFunc(smallint, types.T_varchar.ToType(), 3,
				func(row int) int { return 2 },
				func(idx int) any { return int16(idx) },
				func(idx int) any { return "v" },
				nil, NullEvery(3, 0))
			So(err, ShouldBeNil)
			So(f.GetAny(1), ShouldResemble, []types.MapEntry{{Key: int16(2), Value: "v"}, {Key: int16(3)}})

			_, err = mk.MapVector(smallint, smallint, []any{[]types.MapEntry{{Key: nil, Value: int16(1)}}})
			So(moerr.IsMoErrCode(err, moerr.ErrInvalidArg), ShouldBeTrue)
		})

		Convey("all null", func() {
			a, err := mk.AllNullArrayVector(smallint, 3)
			So(err, ShouldBeNil)
			m, err := mk.AllNullMapVector(smallint, smallint, 3)
			So(err, ShouldBeNil)
			f, err := mk.AllNullFlatVector(smallint, 3)
			So(err, ShouldBeNil)
			for i := 0; i < 3; i++ {
				So(a.IsNull(i) && m.IsNull(i) && f.IsNull(i), ShouldBeTrue)
			}
			_, err = mk.AllNullFlatVector(types.NewArrayType(smallint), 1)
			So(moerr.IsMoErrCode(err, moerr.ErrInvalidArg), ShouldBeTrue)
		})

		Convey("rows", func() {
			a, err := FlatVector(mk, 3, func(row int) int32 { return int32(row * 10) }, nil)
			So(err, ShouldBeNil)
			b, err := mk.StringVector([]string{"x", "y", "z"}, NullEvery(2, 0))
			So(err, ShouldBeNil)
			r, err := mk.RowVector([]string{"a", "b"}, []*vector.Vector{a, b}, NullEvery(3, 1))
			So(err, ShouldBeNil)
			So(r.GetType().String(), ShouldEqual, "ROW(a INTEGER, b VARCHAR)")
			So(values(r), ShouldResemble, []any{[]any{int32(0), nil}, nil, []any{int32(20), nil}})

			_, err = mk.RowVector(nil, nil, nil)
			So(moerr.IsMoErrCode(err, moerr.ErrInvalidArg), ShouldBeTrue)
		})
	})
}

func TestFromAnyErrors(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	_, err := mk.FromAny(types.T_int16.ToType(), []any{int32(1)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = mk.FromAny(types.NewArrayType(types.T_int16.ToType()), []any{int16(1)})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = mk.FromAny(types.NewRowType(nil, types.T_int16.ToType()), []any{[]any{int16(1), int16(2)}})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = mk.FromAny(types.T_opaque.ToType(), []any{1})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnsupportedDataType))
}

func TestLazyFlatVector(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	calls := 0
	v := mk.LazyFlatVector(types.T_int32.ToType(), 10, func(row int) any {
		calls++
		return int32(row * row)
	}, NullEvery(5, 0))
	require.NoError(t, v.Request(3, 5, 7))
	loaded, err := v.Load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, int32(9), v.GetAny(3))
	require.True(t, v.IsNull(5))
	require.Equal(t, int32(49), v.GetAny(7))
	require.True(t, loaded.IsNull(0))
}

func TestFlatten(t *testing.T) {
	mk := NewVectorMaker(mpool.MustNewZero())
	data := []any{int64(4), int64(4), nil, int64(9)}
	seq, err := mk.SequenceVector(types.T_int64.ToType(), data)
	require.NoError(t, err)
	flat, err := mk.Flatten(seq)
	require.NoError(t, err)
	require.Equal(t, vector.FLAT, flat.GetEncoding())
	require.Equal(t, data, values(flat))

	arrs, err := mk.ArrayVector(types.T_varchar.ToType(), [][]any{{"a"}, nil, {"b", nil}})
	require.NoError(t, err)
	c, err := vector.NewConst(arrs, 2, 3)
	require.NoError(t, err)
	flat, err = mk.Flatten(c)
	require.NoError(t, err)
	require.Equal(t, vector.ARRAY, flat.GetEncoding())
	require.Equal(t, []any{"b", nil}, flat.GetAny(1))
}

func TestNullEvery(t *testing.T) {
	f := NullEvery(3, 2)
	var got []int
	for i := 0; i < 10; i++ {
		if f(i) {
			got = append(got, i)
		}
	}
	require.Equal(t, []int{2, 5, 8}, got)
}
