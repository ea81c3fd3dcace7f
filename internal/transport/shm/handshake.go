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

package shm

import (
	"context"
	"os"
	"time"
)

// MarkConsumerReady records the calling process as the consumer and raises
// the ready flag. The consumer calls this once it has attached to the segment
// and every semaphore.
func (s *Segment) MarkConsumerReady() {
	s.H.markConsumer(uint32(os.Getpid()))
}

// WaitForConsumer waits for the consumer to mark itself as ready.
// The creator calls this after spawning the consumer process.
func (s *Segment) WaitForConsumer(ctx context.Context) error {
	ticker := time.NewTicker(1 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.H.ConsumerReady() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
