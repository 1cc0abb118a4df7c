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

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AllocateBytesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "packrow",
		Subsystem: "malloc",
		Name:      "allocate_bytes_total",
		Help:      "Total bytes handed out by the allocator.",
	})
	InuseBytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "packrow",
		Subsystem: "malloc",
		Name:      "inuse_bytes",
		Help:      "Bytes allocated and not yet returned.",
	})
	AllocateObjectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "packrow",
		Subsystem: "malloc",
		Name:      "allocate_objects_total",
		Help:      "Total allocations.",
	})
	InuseObjectsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "packrow",
		Subsystem: "malloc",
		Name:      "inuse_objects",
		Help:      "Allocations not yet returned.",
	})
)

// Collectors lists the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		AllocateBytesCounter,
		InuseBytesGauge,
		AllocateObjectsCounter,
		InuseObjectsGauge,
	}
}

// MetricsAllocator reports every allocation of its upstream. Nil metrics
// are skipped.
type MetricsAllocator[U Allocator] struct {
	upstream U

	allocateBytesCounter   prometheus.Counter
	inuseBytesGauge        prometheus.Gauge
	allocateObjectsCounter prometheus.Counter
	inuseObjectsGauge      prometheus.Gauge
}

func NewMetricsAllocator[U Allocator](
	upstream U,
	allocateBytesCounter prometheus.Counter,
	inuseBytesGauge prometheus.Gauge,
	allocateObjectsCounter prometheus.Counter,
	inuseObjectsGauge prometheus.Gauge,
) *MetricsAllocator[U] {
	return &MetricsAllocator[U]{
		upstream:               upstream,
		allocateBytesCounter:   allocateBytesCounter,
		inuseBytesGauge:        inuseBytesGauge,
		allocateObjectsCounter: allocateObjectsCounter,
		inuseObjectsGauge:      inuseObjectsGauge,
	}
}

var _ Allocator = new(MetricsAllocator[Allocator])

func (m *MetricsAllocator[U]) Allocate(size uint64) ([]byte, Deallocator, error) {
	buf, dec, err := m.upstream.Allocate(size)
	if err != nil {
		return nil, nil, err
	}
	if m.allocateBytesCounter != nil {
		m.allocateBytesCounter.Add(float64(size))
	}
	if m.allocateObjectsCounter != nil {
		m.allocateObjectsCounter.Inc()
	}
	m.addInuse(float64(size), 1)

	return buf, ChainDeallocator(
		dec,
		DeallocatorFunc(func() {
			m.addInuse(-float64(size), -1)
		}),
	), nil
}

func (m *MetricsAllocator[U]) addInuse(bytes, objects float64) {
	if m.inuseBytesGauge != nil {
		m.inuseBytesGauge.Add(bytes)
	}
	if m.inuseObjectsGauge != nil {
		m.inuseObjectsGauge.Add(objects)
	}
}
