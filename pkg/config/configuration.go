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
	"runtime"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/packrow/pkg/common/moerr"
	"github.com/matrixorigin/packrow/pkg/common/mpool"
	"github.com/matrixorigin/packrow/pkg/logutil"
	"github.com/matrixorigin/packrow/pkg/packrow"
)

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultLogMaxSize  = 512
	defaultPoolName    = "packrow"
	defaultRowsPerTask = 1024
)

// MPoolParameters configures the pool backing vectors and packed rows.
type MPoolParameters struct {
	Name string `toml:"name"`

	// Capacity in bytes. 0 means no limit.
	Capacity int64 `toml:"capacity"`
}

// BatchParameters configures packrow.SerializeBatch.
type BatchParameters struct {
	//default is runtime.NumCPU()
	Workers int `toml:"workers"`

	//default is 1024. Consecutive rows serialized by one task.
	RowsPerTask int `toml:"rows-per-task"`
}

// Config of the packrow tool.
type Config struct {
	Log   logutil.LogConfig `toml:"log"`
	MPool MPoolParameters   `toml:"mpool"`
	Batch BatchParameters   `toml:"batch"`
}

// Load decodes the toml file at path and fills in default values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfigNoCtx("decode %s: %v", path, err)
	}
	cfg.SetDefaultValues()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode is Load for a config held in memory.
func Decode(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, moerr.NewBadConfigNoCtx("decode: %v", err)
	}
	cfg.SetDefaultValues()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) SetDefaultValues() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultLogFormat
	}
	if cfg.Log.MaxSize == 0 {
		cfg.Log.MaxSize = defaultLogMaxSize
	}
	if cfg.MPool.Name == "" {
		cfg.MPool.Name = defaultPoolName
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = runtime.NumCPU()
	}
	if cfg.Batch.RowsPerTask == 0 {
		cfg.Batch.RowsPerTask = defaultRowsPerTask
	}
}

func (cfg *Config) Validate() error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return moerr.NewBadConfigNoCtx("log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return moerr.NewBadConfigNoCtx("log format %q", cfg.Log.Format)
	}
	if cfg.MPool.Capacity < 0 {
		return moerr.NewBadConfigNoCtx("mpool capacity %d", cfg.MPool.Capacity)
	}
	if cfg.Batch.Workers < 0 {
		return moerr.NewBadConfigNoCtx("batch workers %d", cfg.Batch.Workers)
	}
	if cfg.Batch.RowsPerTask < 0 {
		return moerr.NewBadConfigNoCtx("batch rows-per-task %d", cfg.Batch.RowsPerTask)
	}
	return nil
}

// NewMPool creates the pool described by the config.
func (cfg *Config) NewMPool() (*mpool.MPool, error) {
	return mpool.NewMPool(cfg.MPool.Name, cfg.MPool.Capacity)
}

// BatchOptions are the packrow.SerializeBatch options over mp.
func (cfg *Config) BatchOptions(mp *mpool.MPool) packrow.BatchOptions {
	return packrow.BatchOptions{
		Workers:     cfg.Batch.Workers,
		RowsPerTask: cfg.Batch.RowsPerTask,
		Pool:        mp,
	}
}
