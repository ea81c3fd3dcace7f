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

package bench

import (
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/kali-guru/hlbank-ipc/internal/audit"
	"github.com/kali-guru/hlbank-ipc/internal/clock"
	"github.com/kali-guru/hlbank-ipc/internal/metrics"
	"github.com/kali-guru/hlbank-ipc/internal/platform"
	"github.com/kali-guru/hlbank-ipc/internal/record"
	"github.com/kali-guru/hlbank-ipc/internal/report"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
)

// ids yields 1..n. The counter is wider than the ids so that n ==
// math.MaxUint32 terminates.
func ids(n uint32) iter.Seq[uint32] {
	return idRange(1, n)
}

func idRange(lo, hi uint32) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i := uint64(lo); i <= uint64(hi); i++ {
			if !yield(uint32(i)) {
				return
			}
		}
	}
}

// Enqueuer is the producer side of a channel.
type Enqueuer interface {
	Enqueue(r *record.Record) (shm.OpTiming, error)
}

// Dequeuer is the consumer side of a channel.
type Dequeuer interface {
	Dequeue(r *record.Record) (shm.OpTiming, error)
}

// RoleOptions tune a role loop.
type RoleOptions struct {
	Name          string
	Mode          shm.Mode
	Capacity      uint32
	Window        int
	ProgressEvery uint32        // 0 disables progress samples
	Feed          *ProgressFeed // required when ProgressEvery > 0
}

func (c *Config) roleOptions(feed *ProgressFeed) RoleOptions {
	return RoleOptions{
		Name:          c.Name,
		Mode:          c.Mode,
		Capacity:      c.Capacity,
		Window:        c.Window,
		ProgressEvery: c.ProgressEvery,
		Feed:          feed,
	}
}

func (o RoleOptions) newReport(role string, n uint32) *report.Report {
	return &report.Report{
		Role:     role,
		Name:     o.Name,
		Mode:     o.Mode,
		Capacity: o.Capacity,
		Records:  n,
		PID:      os.Getpid(),
		Started:  time.Now(),
		Env:      platform.Probe(),
	}
}

func (o RoleOptions) progress(role string, done, total uint32) {
	if o.ProgressEvery == 0 || o.Feed == nil {
		return
	}
	if done%o.ProgressEvery == 0 || done == total {
		o.Feed.Publish(Progress{Role: role, Done: done, Total: total, At: time.Now()})
	}
}

func observeTiming(c *metrics.Collector, t shm.OpTiming, mode shm.Mode) {
	c.Observe(metrics.SeriesSlotWait, t.SlotWait)
	if mode == shm.ModeSafe {
		c.Observe(metrics.SeriesLockWait, t.LockWait)
	}
	c.Observe(metrics.SeriesCritical, t.Critical)
}

// Produce emits records 1..n through q, one Enqueue each, and returns the
// producer's report. Any channel error aborts the loop.
func Produce(q Enqueuer, n uint32, o RoleOptions) (*report.Report, error) {
	rep := o.newReport(report.RoleProducer, n)
	col := metrics.NewCollector(o.Window)
	for _, s := range []string{metrics.SeriesEnqueue, metrics.SeriesLocalLatency} {
		col.Series(s)
	}
	usage := platform.ReadUsage()

	var r record.Record
	col.Start()
	for id := range ids(n) {
		r.Fill(id)
		r.SendTime = clock.Micros()
		start := time.Now()
		t, err := q.Enqueue(&r)
		if err != nil {
			return nil, fmt.Errorf("enqueue record %d: %w", id, err)
		}
		col.Observe(metrics.SeriesEnqueue, time.Since(start))
		col.Observe(metrics.SeriesLocalLatency, clock.Since(r.SendTime))
		observeTiming(col, t, o.Mode)
		col.AddOps(1)
		o.progress(report.RoleProducer, id, n)
	}
	col.Stop()

	rep.Metrics = col.Finalize()
	rep.Usage = platform.ReadUsage().Sub(usage)
	return rep, nil
}

// Consume performs exactly n Dequeue operations on q, auditing every record,
// and returns the consumer's report. Ids outside [1, n] are counted towards
// throughput but carry no latency sample.
func Consume(q Dequeuer, n uint32, o RoleOptions) (*report.Report, error) {
	rep := o.newReport(report.RoleConsumer, n)
	col := metrics.NewCollector(o.Window)
	for _, s := range []string{metrics.SeriesDequeue, metrics.SeriesOneWayLatency} {
		col.Series(s)
	}
	auditor := audit.New(n)
	usage := platform.ReadUsage()

	var r record.Record
	col.Start()
	for i := range ids(n) {
		start := time.Now()
		t, err := q.Dequeue(&r)
		if err != nil {
			return nil, fmt.Errorf("dequeue %d: %w", i, err)
		}
		received := clock.Micros()
		col.Observe(metrics.SeriesDequeue, time.Since(start))
		if r.ID >= 1 && r.ID <= n {
			col.Observe(metrics.SeriesOneWayLatency, clock.Elapsed(r.SendTime, received))
		}
		observeTiming(col, t, o.Mode)
		col.AddOps(1)
		auditor.ObserveRecord(&r)
		o.progress(report.RoleConsumer, i, n)
	}
	col.Stop()

	finding := auditor.Finding()
	rep.Metrics = col.Finalize()
	rep.Usage = platform.ReadUsage().Sub(usage)
	rep.Integrity = &finding
	return rep, nil
}
