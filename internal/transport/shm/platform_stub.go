//go:build !linux && !windows

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

// Named segments and semaphores are only implemented for Linux and Windows.

func objectPath(name string) string { return "hlbank_" + name }

func createMapping(name string, size int) (mapping, error) {
	return mapping{}, ErrUnsupported
}

func openMapping(name string) (mapping, error) {
	return mapping{}, ErrUnsupported
}

func removeMapping(name string) error {
	return ErrUnsupported
}

func createSemaphore(name string, initial, max uint32) (Semaphore, error) {
	return nil, ErrUnsupported
}

func openSemaphore(name string) (Semaphore, error) {
	return nil, ErrUnsupported
}

func removeSemaphore(name string) error {
	return ErrUnsupported
}
