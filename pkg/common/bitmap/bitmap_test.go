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

package bitmap

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"
)

const Rows = 10

func TestNulls(t *testing.T) {
	np := New()
	np.InitWithSize(Rows)
	ok := np.IsEmpty()
	require.Equal(t, true, ok)
	np.Add(0)
	ok = np.Contains(0)
	require.Equal(t, true, ok)
	require.False(t, np.IsEmpty())
	np = New()
	np.InitWithSize(Rows)
	np.AddMany([]uint64{1, 3, 9})
	require.Equal(t, []uint64{1, 3, 9}, np.ToArray())
	require.Equal(t, "[1 3 9]", np.String())
	require.False(t, np.Contains(100))
}

func TestIteratorAcrossWords(t *testing.T) {
	convey.Convey("iterator walks every set bit in order", t, func() {
		np := New()
		np.InitWithSize(200)
		rows := []uint64{0, 63, 64, 65, 127, 128, 199}
		np.AddMany(rows)
		itr := np.Iterator()
		var got []uint64
		for itr.HasNext() {
			got = append(got, itr.Next())
		}
		convey.So(got, convey.ShouldResemble, rows)
	})
	convey.Convey("empty bitmap has no elements", t, func() {
		np := New()
		np.InitWithSize(70)
		convey.So(np.Iterator().HasNext(), convey.ShouldBeFalse)
		convey.So(np.ToArray(), convey.ShouldBeEmpty)
	})
}

func TestExpand(t *testing.T) {
	np := New()
	np.InitWithSize(10)
	np.Add(9)
	np.TryExpandWithSize(130)
	np.AddMany([]uint64{64, 129})
	require.Equal(t, []uint64{9, 64, 129}, np.ToArray())
	require.False(t, np.Contains(130))
	np.TryExpandWithSize(20)
	require.True(t, np.Contains(129))
}

func TestWriteTo(t *testing.T) {
	np := New()
	np.InitWithSize(7)
	np.AddMany([]uint64{1, 4, 6})
	buf := make([]byte, NullWidth(7))
	np.WriteTo(buf, 0, 7)
	require.Equal(t, []byte{0x52, 0, 0, 0, 0, 0, 0, 0}, buf)

	// a window that starts inside one word and ends in the next
	np = New()
	np.InitWithSize(200)
	np.AddMany([]uint64{3, 60, 61, 64, 127, 130, 190})
	buf = make([]byte, NullWidth(70))
	np.WriteTo(buf, 60, 70)
	expected := make([]byte, NullWidth(70))
	for _, r := range []int{0, 1, 4, 67} {
		SetBit(expected, r)
	}
	require.Equal(t, expected, buf)
	require.Equal(t, 4, CountBits(buf, 0, 70))
}

func TestBufferBits(t *testing.T) {
	require.Equal(t, 0, Nwords(0))
	require.Equal(t, 1, Nwords(64))
	require.Equal(t, 2, Nwords(65))
	require.Equal(t, 16, NullWidth(100))
	require.Equal(t, 0, AlignWord(0))
	require.Equal(t, 8, AlignWord(1))
	require.Equal(t, 56, AlignWord(49))

	buf := make([]byte, 16)
	for _, i := range []int{0, 7, 8, 63, 64, 100} {
		SetBit(buf, i)
		require.True(t, IsBitSet(buf, i))
	}
	require.Equal(t, byte(0x81), buf[0])
	require.Equal(t, 6, CountBits(buf, 0, 128))
	require.Equal(t, 3, CountBits(buf, 7, 64))
	require.Equal(t, 6, CountBits(buf, 0, 101))
	require.Equal(t, 5, CountBits(buf, 0, 100))
	require.False(t, IsBitSet(buf, 6))
}
