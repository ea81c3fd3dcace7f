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

package metrics

import (
	"time"
)

// Collector holds the named series of one role plus the run's wall time.
// It is owned by a single goroutine.
type Collector struct {
	window int
	order  []string
	series map[string]*Series
	ops    uint64
	start  time.Time
	end    time.Time
}

// NewCollector returns a collector whose series keep window trailing
// samples.
func NewCollector(window int) *Collector {
	return &Collector{window: window, series: make(map[string]*Series)}
}

// Series returns the named series, creating it on first use. Series are
// reported in creation order.
func (c *Collector) Series(name string) *Series {
	s, ok := c.series[name]
	if !ok {
		s = NewSeries(name, c.window)
		c.series[name] = s
		c.order = append(c.order, name)
	}
	return s
}

// Observe adds a sample to the named series.
func (c *Collector) Observe(name string, d time.Duration) {
	c.Series(name).Observe(d)
}

// Start marks the beginning of the measured run.
func (c *Collector) Start() { c.start = time.Now() }

// Stop marks the end of the measured run.
func (c *Collector) Stop() { c.end = time.Now() }

// AddOps counts completed operations towards throughput.
func (c *Collector) AddOps(n uint64) { c.ops += n }

// Ops returns the completed operation count.
func (c *Collector) Ops() uint64 { return c.ops }

// Summary is a finalized collector.
type Summary struct {
	Ops        uint64        `json:"ops"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Throughput float64       `json:"throughput_ops_per_sec"`
	Series     []Stats       `json:"series"`
}

// Finalize computes throughput as ops / elapsed seconds (0 when nothing was
// timed) and finalizes every series. Stop is implied if it was not called.
func (c *Collector) Finalize() Summary {
	if c.end.IsZero() {
		c.Stop()
	}
	sum := Summary{Ops: c.ops}
	if !c.start.IsZero() {
		sum.Elapsed = c.end.Sub(c.start)
	}
	if secs := sum.Elapsed.Seconds(); secs > 0 {
		sum.Throughput = float64(c.ops) / secs
	}
	for _, name := range c.order {
		sum.Series = append(sum.Series, c.series[name].Stats())
	}
	return sum
}

// Lookup returns the stats of the named series.
func (s Summary) Lookup(name string) (Stats, bool) {
	for _, st := range s.Series {
		if st.Name == name {
			return st, true
		}
	}
	return Stats{}, false
}
