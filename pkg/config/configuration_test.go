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

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packrow.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[mpool]
name = "serializer"
capacity = 1048576

[batch]
workers = 3
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, defaultLogMaxSize, cfg.Log.MaxSize)
	require.Equal(t, "serializer", cfg.MPool.Name)
	require.Equal(t, int64(1<<20), cfg.MPool.Capacity)
	require.Equal(t, 3, cfg.Batch.Workers)
	require.Equal(t, defaultRowsPerTask, cfg.Batch.RowsPerTask)

	mp, err := cfg.NewMPool()
	require.NoError(t, err)
	require.Equal(t, "serializer", mp.Name())
	opts := cfg.BatchOptions(mp)
	require.Equal(t, 3, opts.Workers)
	require.Same(t, mp, opts.Pool)
}

func TestDefaults(t *testing.T) {
	cfg, err := Decode("")
	require.NoError(t, err)
	require.Equal(t, defaultLogLevel, cfg.Log.Level)
	require.Equal(t, defaultLogFormat, cfg.Log.Format)
	require.Equal(t, defaultPoolName, cfg.MPool.Name)
	require.Zero(t, cfg.MPool.Capacity)
	require.Equal(t, runtime.NumCPU(), cfg.Batch.Workers)
}

func TestBadConfig(t *testing.T) {
	for _, data := range []string{
		"[log]\nlevel = \"loud\"",
		"[log]\nformat = \"xml\"",
		"[mpool]\ncapacity = -1",
		"[batch]\nworkers = -2",
		"[batch]\nrows-per-task = -1",
		"[batch\nworkers = 1",
	} {
		_, err := Decode(data)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig), "%q: %v", data, err)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}
