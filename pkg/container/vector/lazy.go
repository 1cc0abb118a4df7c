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
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"
	"go.uber.org/zap"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/logutil"
)

// ValueHook receives loaded values directly instead of a vector.
type ValueHook interface {
	AddValue(row int, value any)
}

// VectorLoader produces the content of a LAZY vector. rows lists, in
// ascending order, every row requested before the load. The result must
// have length resultSize, rows outside rows may hold anything.
type VectorLoader interface {
	Load(rows []uint64, hook ValueHook, resultSize int) (*Vector, error)
}

// SimpleVectorLoader adapts a function to VectorLoader. It does not
// support value hooks.
type SimpleVectorLoader struct {
	Loader func(rows []uint64) (*Vector, error)
}

func (l *SimpleVectorLoader) Load(rows []uint64, hook ValueHook, _ int) (*Vector, error) {
	if hook != nil {
		return nil, moerr.NewNotSupportedNoCtx("value hook in SimpleVectorLoader")
	}
	return l.Loader(rows)
}

type lazyState struct {
	mu        sync.Mutex
	loader    VectorLoader
	requested *roaring64.Bitmap
	loaded    atomic.Pointer[Vector]
}

// NewLazy returns an unloaded LAZY vector of n rows.
func NewLazy(typ types.Type, n int, loader VectorLoader) *Vector {
	return &Vector{
		class:  LAZY,
		typ:    typ,
		length: n,
		lazy: &lazyState{
			loader:    loader,
			requested: roaring64.New(),
		},
	}
}

func (v *Vector) IsLoaded() bool {
	v.mustBe(LAZY, "IsLoaded")
	return v.lazy.loaded.Load() != nil
}

// Request adds rows to the set handed to the loader. Requests after the
// load are errors.
func (v *Vector) Request(rows ...uint64) error {
	v.mustBe(LAZY, "Request")
	v.lazy.mu.Lock()
	defer v.lazy.mu.Unlock()
	if v.lazy.loaded.Load() != nil {
		return moerr.NewInvalidStateNoCtx("lazy vector already loaded")
	}
	for _, r := range rows {
		if r >= uint64(v.length) {
			return moerr.NewOutOfRangeNoCtx("row", "index %d, vector length %d", r, v.length)
		}
	}
	v.lazy.requested.AddMany(rows)
	return nil
}

// Load materializes v for the union of rows and every earlier request. The
// loader runs at most once, later calls return the loaded vector.
func (v *Vector) Load(rows []uint64, hook ValueHook) (*Vector, error) {
	v.mustBe(LAZY, "Load")
	if loaded := v.lazy.loaded.Load(); loaded != nil {
		return loaded, nil
	}
	v.lazy.mu.Lock()
	defer v.lazy.mu.Unlock()
	if loaded := v.lazy.loaded.Load(); loaded != nil {
		return loaded, nil
	}
	for _, r := range rows {
		if r >= uint64(v.length) {
			return nil, moerr.NewOutOfRangeNoCtx("row", "index %d, vector length %d", r, v.length)
		}
	}
	v.lazy.requested.AddMany(rows)

	start := time.Now()
	loaded, err := v.lazy.loader.Load(v.lazy.requested.ToArray(), hook, v.length)
	if err != nil {
		return nil, moerr.ConvertGoError(moerr.Context(), err)
	}
	if loaded.Length() != v.length {
		return nil, moerr.NewInvalidStateNoCtx("lazy load returned %d rows, want %d", loaded.Length(), v.length)
	}
	if !loaded.typ.Eq(v.typ) {
		return nil, moerr.NewTypeMismatchNoCtx("lazy load returned %s, want %s", loaded.typ.String(), v.typ.String())
	}
	v.lazy.loaded.Store(loaded)
	logutil.Elapsed("lazy vector loaded", start,
		zap.String("type", v.typ.String()),
		zap.Uint64("rows", v.lazy.requested.GetCardinality()),
		zap.String("encoding", loaded.class.String()))
	return loaded, nil
}

// LoadedVector loads every row if needed. It panics when the loader fails.
func (v *Vector) LoadedVector() *Vector {
	v.mustBe(LAZY, "LoadedVector")
	if loaded := v.lazy.loaded.Load(); loaded != nil {
		return loaded
	}
	loaded, err := v.Load(allRows(v.length), nil)
	if err != nil {
		panic(err)
	}
	return loaded
}

func allRows(n int) []uint64 {
	rows := make([]uint64, n)
	for i := range rows {
		rows[i] = uint64(i)
	}
	return rows
}

// lazyResolve maps row to the loaded vector. Reading a row that was never
// requested before the load panics.
func (v *Vector) lazyResolve(row int) (*Vector, int) {
	loaded := v.LoadedVector()
	if !v.lazy.requested.Contains(uint64(row)) {
		panic(moerr.NewInvalidStateNoCtx("lazy vector row %d was not requested before load", row))
	}
	return loaded, row
}
