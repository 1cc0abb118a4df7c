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
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/matrixorigin/packrow/pkg/common/bitmap"
	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
	"github.com/matrixorigin/packrow/pkg/logutil"
)

const defaultRowsPerTask = 1024

type BatchOptions struct {
	// Workers bounds the goroutines serializing rows, runtime.NumCPU()
	// when 0.
	Workers int
	// RowsPerTask is the number of consecutive rows one task serializes.
	RowsPerTask int
	// Pool backs the output buffer. Required.
	Pool *mpool.MPool
}

// BatchResult holds the packed rows of a vector. Rows[i] is nil for a null
// row. All rows share one buffer from the pool, each starting on a word
// boundary, until Free.
type BatchResult struct {
	Rows [][]byte

	buf []byte
	mp  *mpool.MPool
}

// Free returns the buffer of the rows to the pool.
func (r *BatchResult) Free() {
	if r.mp != nil {
		r.mp.Free(r.buf)
		r.buf, r.mp, r.Rows = nil, nil, nil
	}
}

var newWorkerPool = func(size int) (*ants.Pool, error) {
	return ants.NewPool(size)
}

// SerializeBatch serializes every row of vec as a value of typ. Rows are
// sized first, then written concurrently into disjoint regions of one
// buffer. A fixed width row spans its natural width. Contract violations
// while reading vec are returned as errors, as is the cancellation of ctx.
func SerializeBatch(ctx context.Context, typ types.Type, vec *vector.Vector, opts BatchOptions) (res *BatchResult, err error) {
	start := time.Now()
	if opts.Pool == nil {
		return nil, moerr.NewInvalidArgNoCtx("batch pool", nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	perTask := opts.RowsPerTask
	if perTask <= 0 {
		perTask = defaultRowsPerTask
	}
	c, err := codecFor(typ)
	if err != nil {
		return nil, err
	}

	n := vec.Length()
	offsets := make([]int, n+1)
	sizes := make([]int, n)
	if err = sizeRows(ctx, c, vec, offsets, sizes); err != nil {
		return nil, err
	}
	buf, err := opts.Pool.Alloc(offsets[n])
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			opts.Pool.Free(buf)
		}
	}()

	pool, err := newWorkerPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	appendErr := func(e error) {
		mu.Lock()
		errs = multierr.Append(errs, e)
		mu.Unlock()
	}
	for lo := 0; lo < n; lo += perTask {
		lo, hi := lo, min(lo+perTask, n)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					appendErr(moerr.ConvertPanicError(ctx, r))
				}
			}()
			if e := ctx.Err(); e != nil {
				appendErr(e)
				return
			}
			for row := lo; row < hi; row++ {
				if sizes[row] < 0 {
					continue
				}
				serializeAt(c, vec, row, buf[offsets[row]:offsets[row]+sizes[row]])
			}
		}
		if e := pool.Submit(task); e != nil {
			wg.Done()
			appendErr(e)
		}
	}
	wg.Wait()
	if errs != nil {
		return nil, errs
	}

	res = &BatchResult{Rows: make([][]byte, n), buf: buf, mp: opts.Pool}
	for row := 0; row < n; row++ {
		if sizes[row] >= 0 {
			res.Rows[row] = buf[offsets[row] : offsets[row]+sizes[row] : offsets[row]+sizes[row]]
		}
	}
	logutil.Elapsed("packrow serialize batch", start,
		zap.String("type", typ.String()),
		zap.Int("rows", n),
		zap.Int("bytes", offsets[n]),
		zap.Int("workers", workers))
	return res, nil
}

// sizeRows fills the word aligned offset and the size of every row. A null
// row has size -1 and takes no space.
func sizeRows(ctx context.Context, c AnyCodec, vec *vector.Vector, offsets, sizes []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = moerr.ConvertPanicError(ctx, r)
		}
	}()
	for row := range sizes {
		offsets[row+1] = offsets[row]
		if vec.IsNull(row) {
			sizes[row] = -1
			continue
		}
		sizes[row] = sizeAt(c, vec, row)
		offsets[row+1] += bitmap.AlignWord(sizes[row])
	}
	return nil
}
