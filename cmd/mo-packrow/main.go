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
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matrixorigin/packrow/pkg/common/malloc"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/config"
	"github.com/matrixorigin/packrow/pkg/container/types"
	"github.com/matrixorigin/packrow/pkg/container/vector"
	"github.com/matrixorigin/packrow/pkg/logutil"
	"github.com/matrixorigin/packrow/pkg/packrow"
	"github.com/matrixorigin/packrow/pkg/testutil"
)

var (
	configFile  = flag.String("cfg", "", "toml configuration, defaults when empty")
	dataFile    = flag.String("data", "", "toml dataset of typed columns")
	useBatch    = flag.Bool("batch", false, "serialize every column with the concurrent batch serializer")
	dumpMetrics = flag.Bool("metrics", false, "log allocator metrics on exit")
)

func main() {
	flag.Parse()
	if *dataFile == "" {
		fmt.Fprintln(os.Stderr, "usage: mo-packrow [-cfg packrow.toml] [-batch] [-metrics] -data dataset.toml")
		os.Exit(2)
	}
	cfg, err := loadConfig(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config from %s, error: %s", *configFile, err.Error()))
	}
	logutil.SetupMOLogger(&cfg.Log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(malloc.Collectors()...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ds, err := decodeDataset(*dataFile)
	if err == nil {
		err = run(ctx, cfg, ds, *useBatch, os.Stdout)
	}
	if *dumpMetrics {
		logMetrics(registry)
	}
	if err != nil {
		logutil.Error("mo-packrow failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Decode("")
	}
	return config.Load(path)
}

// run serializes every row of every column of ds and prints the packed
// words to w.
func run(ctx context.Context, cfg *config.Config, ds *dataset, batch bool, w io.Writer) error {
	mp, err := cfg.NewMPool()
	if err != nil {
		return err
	}
	mk := testutil.NewVectorMaker(mp)
	defer mk.Release()

	for _, col := range ds.Columns {
		typ, err := types.ParseType(col.Type)
		if err != nil {
			return err
		}
		data, err := convertColumn(typ, col.Values)
		if err != nil {
			return err
		}
		vec, err := mk.FromAny(typ, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", col.Name, typ.String())
		if batch {
			err = printBatch(ctx, cfg, mp, typ, vec, w)
		} else {
			err = printRows(mp, typ, vec, w)
		}
		vec.Free(mp)
		if err != nil {
			return err
		}
	}
	logutil.Debug("mo-packrow done", zap.String("mpool", mp.Report()))
	return nil
}

func printRows(mp *mpool.MPool, typ types.Type, vec *vector.Vector, w io.Writer) error {
	var buf []byte
	defer func() {
		mp.Free(buf)
	}()
	for row := 0; row < vec.Length(); row++ {
		sz, err := packrow.Dynamic.Size(typ, vec, row)
		if err != nil {
			return err
		}
		if buf, err = mp.Grow(buf, sz); err != nil {
			return err
		}
		n, ok, err := packrow.Dynamic.Serialize(typ, vec, row, buf)
		if err != nil {
			return err
		}
		if !ok {
			printNull(w, row)
			continue
		}
		if n == 0 {
			n = sz
		}
		printWords(w, row, buf[:n])
	}
	return nil
}

func printBatch(ctx context.Context, cfg *config.Config, mp *mpool.MPool, typ types.Type, vec *vector.Vector, w io.Writer) error {
	res, err := packrow.SerializeBatch(ctx, typ, vec, cfg.BatchOptions(mp))
	if err != nil {
		return err
	}
	defer res.Free()
	for row, b := range res.Rows {
		if b == nil {
			printNull(w, row)
			continue
		}
		printWords(w, row, b)
	}
	return nil
}

func printNull(w io.Writer, row int) {
	fmt.Fprintf(w, "  [%d] null\n", row)
}

// printWords prints b as little endian words, the last one zero extended.
func printWords(w io.Writer, row int, b []byte) {
	fmt.Fprintf(w, "  [%d] %d bytes", row, len(b))
	for i := 0; i < len(b); i += 8 {
		var word [8]byte
		copy(word[:], b[i:])
		fmt.Fprintf(w, " %016x", binary.LittleEndian.Uint64(word[:]))
	}
	fmt.Fprintln(w)
}

func logMetrics(registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logutil.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			logutil.Info("metric", zap.String("name", mf.GetName()), zap.Float64("value", value))
		}
	}
}
