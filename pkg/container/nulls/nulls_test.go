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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNulls(t *testing.T) {
	var empty *Nulls
	require.False(t, Any(empty))
	require.False(t, Contains(empty, 0))
	require.Nil(t, ToArray(empty))

	nsp := Build(10, 3, 1)
	require.True(t, nsp.Any())
	require.True(t, nsp.Contains(1))
	require.False(t, nsp.Contains(2))
	require.Equal(t, []uint64{1, 3}, ToArray(nsp))

	nsp.Set(70)
	require.True(t, Contains(nsp, 70))
	require.Equal(t, []uint64{1, 3, 70}, ToArray(nsp))

	var grown Nulls
	Add(&grown, 5)
	require.Equal(t, []uint64{5}, ToArray(&grown))
}

func TestWriteBits(t *testing.T) {
	nsp := Build(7, 1, 4, 6)
	buf := make([]byte, 8)
	WriteBits(nsp, buf, 0, 7)
	require.Equal(t, byte(0x52), buf[0])

	// rows past n are not written
	buf = make([]byte, 8)
	WriteBits(nsp, buf, 0, 5)
	require.Equal(t, byte(0x12), buf[0])

	// rows are shifted down by start
	buf = make([]byte, 8)
	WriteBits(nsp, buf, 1, 5)
	require.Equal(t, byte(0x09), buf[0])

	buf = make([]byte, 8)
	WriteBits(nil, buf, 0, 5)
	require.Equal(t, make([]byte, 8), buf)
}
