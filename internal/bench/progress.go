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
	"context"
	"sync"
	"time"

	rb "github.com/JoshuaSkootsky/wait-free-write-buffer"
)

// progressBufferSize must be a power of two.
const progressBufferSize = 1024

// Progress is one sample published by a role loop.
type Progress struct {
	Role  string
	Done  uint32
	Total uint32
	At    time.Time
}

// ProgressFeed carries samples from a measured loop to a monitor goroutine.
// Publish never blocks; a slow monitor loses samples rather than stalling the
// loop.
type ProgressFeed struct {
	publish     func(Progress)
	readWithGap func(cursor, gapStart, gapEnd *uint64) (Progress, bool)
}

// NewProgressFeed returns an empty feed.
func NewProgressFeed() *ProgressFeed {
	buf := rb.New[Progress](progressBufferSize)
	return &ProgressFeed{publish: buf.Write, readWithGap: buf.ReadWithGap}
}

// Publish adds a sample.
func (f *ProgressFeed) Publish(p Progress) {
	f.publish(p)
}

// MonitorStats summarises what a monitor saw.
type MonitorStats struct {
	Samples uint64   // samples read
	Lost    uint64   // samples overwritten before they were read
	Last    Progress // most recent sample
}

// Monitor drains a feed on a ticker and logs progress.
type Monitor struct {
	feed     *ProgressFeed
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	stats MonitorStats
}

// StartMonitor starts a goroutine that drains feed every interval until Stop.
func StartMonitor(ctx context.Context, feed *ProgressFeed, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(ctx)
	m := &Monitor{feed: feed, interval: interval, cancel: cancel, done: make(chan struct{})}
	go m.run(ctx)
	return m
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var cursor uint64
	for {
		select {
		case <-ctx.Done():
			m.drain(&cursor)
			return
		case <-ticker.C:
			if p, ok := m.drain(&cursor); ok && logger.V(1) {
				logger.Infof("%s progress: %d/%d", p.Role, p.Done, p.Total)
			}
		}
	}
}

// drain reads every available sample and returns the newest one read.
func (m *Monitor) drain(cursor *uint64) (Progress, bool) {
	var last Progress
	var read, lost uint64
	for {
		var gapStart, gapEnd uint64
		p, ok := m.feed.readWithGap(cursor, &gapStart, &gapEnd)
		if ok {
			last = p
			read++
			continue
		}
		if gapEnd > *cursor {
			lost += gapEnd - *cursor
			*cursor = gapEnd
			continue
		}
		break
	}
	m.mu.Lock()
	m.stats.Samples += read
	m.stats.Lost += lost
	if read > 0 {
		m.stats.Last = last
	}
	m.mu.Unlock()
	if lost > 0 {
		logger.Warningf("progress monitor fell behind, %d samples lost", lost)
	}
	return last, read > 0
}

// Stop drains what is left, stops the goroutine and returns its totals.
func (m *Monitor) Stop() MonitorStats {
	m.cancel()
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
