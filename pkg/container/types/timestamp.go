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

package types

import (
	"fmt"
	gotime "time"
)

const (
	microsPerSecond = 1_000_000
	nanosPerMicro   = 1_000
)

// Timestamp is seconds since the unix epoch plus a nanosecond part.
// Seconds may be negative, Nanos is always added on top.
type Timestamp struct {
	Seconds int64
	Nanos   uint64
}

func NewTimestamp(seconds int64, nanos uint64) Timestamp {
	return Timestamp{Seconds: seconds, Nanos: nanos}
}

// FromGoTime converts t, truncating below microseconds is left to ToMicros.
func FromGoTime(t gotime.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: uint64(t.Nanosecond())}
}

// ToMicros computes seconds*1e6 + nanos/1e3 component-wise, so that
// (-1s, 2000ns) is -999998.
func (ts Timestamp) ToMicros() int64 {
	return ts.Seconds*microsPerSecond + int64(ts.Nanos/nanosPerMicro)
}

func (ts Timestamp) ToGoTime() gotime.Time {
	return gotime.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", ts.Seconds, ts.Nanos)
}
