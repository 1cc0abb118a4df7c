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

package malloc

// Allocator hands out zeroed byte slices of exactly the requested length.
type Allocator interface {
	Allocate(size uint64) ([]byte, Deallocator, error)
}

// Deallocator returns one allocation. It must be called at most once.
type Deallocator interface {
	Deallocate()
}

type DeallocatorFunc func()

func (f DeallocatorFunc) Deallocate() {
	f()
}

type chainDeallocator []Deallocator

func (c chainDeallocator) Deallocate() {
	for _, d := range c {
		d.Deallocate()
	}
}

// ChainDeallocator runs every deallocator in order.
func ChainDeallocator(dallocators ...Deallocator) Deallocator {
	return chainDeallocator(dallocators)
}

type noopDeallocator struct{}

func (noopDeallocator) Deallocate() {}

var dumbDeallocator Deallocator = noopDeallocator{}
