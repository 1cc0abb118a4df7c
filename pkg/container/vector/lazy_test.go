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
	"io"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/nulls"
)

type recordingHook struct {
	values map[int]any
}

func (h *recordingHook) AddValue(row int, value any) {
	h.values[row] = value
}

func TestLazyLoadOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := mpool.MustNewZero()
	flat, err := NewFlatFixed(int64Type, []int64{10, 11, 12, 13, 14}, nulls.Build(5, 3), mp)
	require.NoError(t, err)

	loader := NewMockVectorLoader(ctrl)
	loader.EXPECT().Load([]uint64{1, 3, 4}, nil, 5).Return(flat, nil).Times(1)

	lazy := NewLazy(int64Type, 5, loader)
	require.Equal(t, LAZY, lazy.GetEncoding())
	require.False(t, lazy.IsLoaded())
	require.Equal(t, "LAZY BIGINT loaded=false", lazy.String())
	require.NoError(t, lazy.Request(4, 1))
	require.True(t, moerr.IsMoErrCode(lazy.Request(5), moerr.ErrOutOfRange))

	loaded, err := lazy.Load([]uint64{3}, nil)
	require.NoError(t, err)
	require.Same(t, flat, loaded)
	require.True(t, lazy.IsLoaded())

	// later loads return the first result without calling the loader
	again, err := lazy.Load([]uint64{0}, nil)
	require.NoError(t, err)
	require.Same(t, flat, again)

	require.Equal(t, int64(11), GetFixedAt[int64](lazy, 1))
	require.True(t, lazy.IsNull(3))
	require.Equal(t, int64(14), lazy.GetAny(4))
	requirePanicCode(t, moerr.ErrInvalidState, func() { lazy.GetAny(0) })
	require.True(t, moerr.IsMoErrCode(lazy.Request(0), moerr.ErrInvalidState))

	lazy.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestLazyFirstAccessLoadsAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := mpool.MustNewZero()
	flat, err := NewFlatBytes(varcharType, [][]byte{[]byte("a"), []byte("b")}, nil, mp)
	require.NoError(t, err)
	loader := NewMockVectorLoader(ctrl)
	loader.EXPECT().Load([]uint64{0, 1}, nil, 2).Return(flat, nil)

	lazy := NewLazy(varcharType, 2, loader)
	require.Equal(t, "b", lazy.GetStringAt(1))
	require.Equal(t, "a", lazy.GetStringAt(0))
	p, r := lazy.Resolve(1)
	require.Same(t, flat, p)
	require.Equal(t, 1, r)
}

func TestLazyConcurrentLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := mpool.MustNewZero()
	flat, err := NewFlatFixed(int16Type, []int16{1, 2, 3}, nil, mp)
	require.NoError(t, err)
	loader := NewMockVectorLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), nil, 3).Return(flat, nil).Times(1)

	lazy := NewLazy(int16Type, 3, loader)
	var wg sync.WaitGroup
	got := make([]int16, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = GetFixedAt[int16](lazy, 2)
		}(i)
	}
	wg.Wait()
	for _, v := range got {
		require.Equal(t, int16(3), v)
	}
}

func TestLazyLoadErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := mpool.MustNewZero()
	short, err := NewFlatFixed(int16Type, []int16{1}, nil, mp)
	require.NoError(t, err)
	wrong, err := NewFlatFixed(int64Type, []int64{1, 2}, nil, mp)
	require.NoError(t, err)

	loader := NewMockVectorLoader(ctrl)
	gomock.InOrder(
		loader.EXPECT().Load([]uint64{0}, nil, 2).Return(nil, moerr.NewInternalErrorNoCtx("io")),
		loader.EXPECT().Load([]uint64{0}, nil, 2).Return(nil, io.ErrUnexpectedEOF),
		loader.EXPECT().Load([]uint64{0}, nil, 2).Return(short, nil),
		loader.EXPECT().Load([]uint64{0}, nil, 2).Return(wrong, nil),
	)

	lazy := NewLazy(int16Type, 2, loader)
	_, err = lazy.Load([]uint64{0}, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))
	// a short read from the loader's source
	_, err = lazy.Load(nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF))
	_, err = lazy.Load(nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))
	_, err = lazy.Load(nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrTypeMismatch))
	require.False(t, lazy.IsLoaded())

	_, err = lazy.Load([]uint64{2}, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))
}

func TestLazyValueHook(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mp := mpool.MustNewZero()
	flat, err := NewFlatFixed(int16Type, []int16{5, 6}, nil, mp)
	require.NoError(t, err)
	hook := &recordingHook{values: map[int]any{}}

	loader := NewMockVectorLoader(ctrl)
	loader.EXPECT().Load([]uint64{1}, hook, 2).DoAndReturn(
		func(rows []uint64, h ValueHook, _ int) (*Vector, error) {
			for _, r := range rows {
				h.AddValue(int(r), flat.GetAny(int(r)))
			}
			return flat, nil
		})

	lazy := NewLazy(int16Type, 2, loader)
	_, err = lazy.Load([]uint64{1}, hook)
	require.NoError(t, err)
	require.Equal(t, map[int]any{1: int16(6)}, hook.values)
}

func TestSimpleVectorLoader(t *testing.T) {
	mp := mpool.MustNewZero()
	var got []uint64
	loader := &SimpleVectorLoader{
		Loader: func(rows []uint64) (*Vector, error) {
			got = rows
			return NewFlatFixed(int16Type, []int16{7, 8, 9}, nil, mp)
		},
	}

	_, err := loader.Load([]uint64{0}, &recordingHook{}, 3)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))

	lazy := NewLazy(int16Type, 3, loader)
	require.NoError(t, lazy.Request(2))
	_, err = lazy.Load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, int16(9), GetFixedAt[int16](lazy, 2))
	require.Equal(t, []uint64{2}, got)
	lazy.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestLazyWrongAccessor(t *testing.T) {
	flat := NewConstNull(int16Type, 1)
	requirePanicCode(t, moerr.ErrTypeMismatch, func() { flat.IsLoaded() })
	requirePanicCode(t, moerr.ErrTypeMismatch, func() { _ = flat.Request(0) })
}
