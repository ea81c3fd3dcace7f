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

import "fmt"

// Semaphore is a counting semaphore that an unrelated process can open by
// name. Wait blocks without a deadline; the only way out of a blocked Wait is
// a Signal from a peer or termination of the process.
type Semaphore interface {
	// Name returns the name the semaphore was created or opened with.
	Name() string

	// Wait blocks until the count is positive, then decrements it.
	Wait() error

	// Signal increments the count, waking one waiter. It fails with
	// ErrSemaphoreOverflow if the count is already at its maximum.
	Signal() error

	// Value returns the current count.
	Value() (uint32, error)

	// Close releases this process's handle. The named object itself is
	// removed with RemoveSemaphore.
	Close() error
}

// CreateSemaphore creates a named semaphore with the given initial count and
// maximum. It fails with ErrExists if the name is taken.
func CreateSemaphore(name string, initial, max uint32) (Semaphore, error) {
	if err := validateName(name); err != nil {
		return nil, resourceErr("create", name, err)
	}
	if max == 0 || initial > max {
		return nil, resourceErr("create", name, fmt.Errorf("invalid semaphore bounds: initial %d, max %d", initial, max))
	}
	s, err := createSemaphore(name, initial, max)
	if err != nil {
		return nil, resourceErr("create", name, err)
	}
	return s, nil
}

// OpenSemaphore opens an existing named semaphore.
func OpenSemaphore(name string) (Semaphore, error) {
	if err := validateName(name); err != nil {
		return nil, resourceErr("attach", name, err)
	}
	s, err := openSemaphore(name)
	if err != nil {
		return nil, resourceErr("attach", name, err)
	}
	return s, nil
}

// RemoveSemaphore removes a named semaphore. A missing object is reported as
// ErrNotFound.
func RemoveSemaphore(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return removeSemaphore(name)
}
