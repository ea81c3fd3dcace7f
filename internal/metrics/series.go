/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package metrics aggregates per-operation durations for one benchmark role.
package metrics

import (
	"math"
	"slices"
	"time"

	"github.com/eapache/queue"
)

// DefaultWindow is the number of trailing samples kept for percentiles.
const DefaultWindow = 4096

// Series is a streaming aggregate of one named duration series.
type Series struct {
	name   string
	count  uint64
	sum    time.Duration
	min    time.Duration
	max    time.Duration
	window *queue.Queue // trailing samples, oldest first
	limit  int
}

// NewSeries returns an empty series keeping the last window samples for
// percentiles. A window of 0 disables percentiles.
func NewSeries(name string, window int) *Series {
	return &Series{name: name, window: queue.New(), limit: window}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Observe adds one sample.
func (s *Series) Observe(d time.Duration) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if s.count == 0 || d > s.max {
		s.max = d
	}
	s.count++
	s.sum += d
	if s.limit == 0 {
		return
	}
	if s.window.Length() == s.limit {
		s.window.Remove()
	}
	s.window.Add(d)
}

// Stats is a finalized series.
type Stats struct {
	Name  string        `json:"name"`
	Count uint64        `json:"count"`
	Total time.Duration `json:"total_ns"`
	Avg   time.Duration `json:"avg_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	P50   time.Duration `json:"p50_ns"` // over the trailing window
	P99   time.Duration `json:"p99_ns"`
}

// Stats finalizes the series. An empty series reports zeros.
func (s *Series) Stats() Stats {
	st := Stats{Name: s.name, Count: s.count, Total: s.sum, Min: s.min, Max: s.max}
	if s.count > 0 {
		st.Avg = s.sum / time.Duration(s.count)
	}
	if n := s.window.Length(); n > 0 {
		samples := make([]time.Duration, n)
		for i := range samples {
			samples[i] = s.window.Get(i).(time.Duration)
		}
		slices.Sort(samples)
		st.P50 = percentile(samples, 0.50)
		st.P99 = percentile(samples, 0.99)
	}
	return st
}

// percentile uses the nearest-rank method over sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
