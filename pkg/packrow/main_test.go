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
	"strings"
	"testing"
	"time"

	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
)

func TestMain(m *testing.M) {
	// ants starts a default pool when it is loaded. Close it and wait for its
	// purge goroutine so leaktest only sees the pools the tests create.
	ants.Release()
	waitGoroutineExit("ants/v2.(*Pool).purgePeriodically", 5*time.Second)
	m.Run()
}

func waitGoroutineExit(frame string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running := false
		for _, stack := range leaktest.GetInterestedGoroutines() {
			if strings.Contains(stack, frame) {
				running = true
				break
			}
		}
		if !running {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
