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

// Series names recorded by the benchmark roles.
const (
	SeriesEnqueue       = "enqueue"          // whole Enqueue call
	SeriesDequeue       = "dequeue"          // whole Dequeue call
	SeriesSlotWait      = "slot_wait"        // blocked on slots-free or slots-filled
	SeriesLockWait      = "lock_wait"        // blocked on the mutex
	SeriesCritical      = "critical_section" // slot copy and cursor advance
	SeriesLocalLatency  = "local_latency"    // producer: send time to Enqueue return
	SeriesOneWayLatency = "one_way_latency"  // consumer: send time to receive
)
