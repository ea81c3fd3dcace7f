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
	"testing"
	"time"
)

func TestMonitorDrainsFeed(t *testing.T) {
	feed := NewProgressFeed()
	mon := StartMonitor(context.Background(), feed, 5*time.Millisecond)
	for i := uint32(1); i <= 10; i++ {
		feed.Publish(Progress{Role: "producer", Done: i, Total: 10, At: time.Now()})
	}
	time.Sleep(20 * time.Millisecond)
	stats := mon.Stop()
	if stats.Samples != 10 || stats.Lost != 0 {
		t.Errorf("stats = %+v, want 10 samples and none lost", stats)
	}
	if stats.Last.Done != 10 || stats.Last.Role != "producer" {
		t.Errorf("last sample = %+v", stats.Last)
	}
}

func TestMonitorStopDrainsRemainder(t *testing.T) {
	feed := NewProgressFeed()
	mon := StartMonitor(context.Background(), feed, time.Hour)
	feed.Publish(Progress{Role: "consumer", Done: 1, Total: 1})
	stats := mon.Stop()
	if stats.Samples != 1 || stats.Last.Done != 1 {
		t.Errorf("stats = %+v, want the sample published before Stop", stats)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	feed := NewProgressFeed()
	done := make(chan struct{})
	go func() {
		for i := uint32(0); i < 10*progressBufferSize; i++ {
			feed.Publish(Progress{Done: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked with no reader")
	}
}
