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

// Package shm provides a bounded record channel between two processes on the
// same machine, built on a named shared memory segment and named semaphores.
//
// The segment holds a 64-byte header followed by a fixed array of record
// slots. The creating process initialises it and the semaphores guarding it;
// a second process attaches by the same base name. Each Enqueue and Dequeue
// is the classic bounded-buffer step: wait on one counting semaphore, update
// the slot and its cursor (under a mutex in safe mode), signal the other.
//
// On Linux the segment and semaphores are files under /dev/shm and blocking
// uses process-shared futexes. On Windows they are named kernel objects.
// Other platforms report ErrUnsupported.
package shm
