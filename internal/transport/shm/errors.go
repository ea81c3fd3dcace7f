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
	"errors"
	"fmt"
)

// Sentinel causes carried inside a ResourceError.
var (
	// ErrUnsupported is returned on platforms without a shared segment or
	// named semaphore implementation.
	ErrUnsupported = errors.New("shm: not supported on this platform")

	// ErrBadMagic means the named object exists but was not created by this tool.
	ErrBadMagic = errors.New("shm: invalid magic bytes")

	// ErrVersion means the segment was created by an incompatible layout version.
	ErrVersion = errors.New("shm: unsupported layout version")

	// ErrLayout means the header disagrees with the size of the mapping.
	ErrLayout = errors.New("shm: inconsistent segment layout")

	// ErrModeMismatch means the attaching side asked for a different mode
	// than the creator configured.
	ErrModeMismatch = errors.New("shm: protocol mode mismatch")

	// ErrSemaphoreOverflow is returned by Signal when the count is already at
	// its maximum.
	ErrSemaphoreOverflow = errors.New("shm: semaphore count at maximum")

	// ErrExists is returned when creating an object whose name is taken.
	ErrExists = errors.New("shm: object already exists")

	// ErrNotFound is returned when attaching to an object that does not exist.
	ErrNotFound = errors.New("shm: object not found")

	// ErrInvalidCapacity is returned for a capacity outside [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("shm: invalid capacity")

	// ErrInvalidName is returned for an empty name or one containing a path
	// separator.
	ErrInvalidName = errors.New("shm: invalid object name")
)

// ResourceError reports a failure to create, attach, size, map or operate one
// of the named objects backing a channel. It is always fatal for a run.
type ResourceError struct {
	Op   string // create, attach, map, wait, signal, ...
	Name string // name of the segment or semaphore involved
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("shm: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("shm: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

func resourceErr(op, name string, err error) error {
	var re *ResourceError
	if errors.As(err, &re) {
		return err
	}
	return &ResourceError{Op: op, Name: name, Err: err}
}

// IsResourceError reports whether err, or any error it wraps, is a
// ResourceError.
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
