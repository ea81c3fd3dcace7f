//go:build linux

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
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Named semaphore file layout (16 bytes, host byte order):
//
//	0x00 value    uint32  the count; also the futex word
//	0x04 waiters  uint32  processes blocked in Wait
//	0x08 max      uint32
//	0x0C magic    uint32  written last by the creator
const (
	semSize       = 16
	semOffValue   = 0x00
	semOffWaiters = 0x04
	semOffMax     = 0x08
	semOffMagic   = 0x0C

	semMagic = uint32(0x4d455348) // "HSEM"
)

// futexSemaphore is a counting semaphore in a small shared file, in the
// manner of glibc's named semaphores under /dev/shm.
type futexSemaphore struct {
	name string
	mem  []byte
}

func semaphoreFile(name string) string { return name + ".sem" }

func createSemaphore(name string, initial, max uint32) (Semaphore, error) {
	mem, err := mapFile(objectPath(semaphoreFile(name)), semSize, true)
	if err != nil {
		return nil, err
	}
	s := &futexSemaphore{name: name, mem: mem}
	atomic.StoreUint32(s.word(semOffMax), max)
	atomic.StoreUint32(s.word(semOffWaiters), 0)
	atomic.StoreUint32(s.word(semOffValue), initial)
	atomic.StoreUint32(s.word(semOffMagic), semMagic)
	return s, nil
}

func openSemaphore(name string) (Semaphore, error) {
	mem, err := mapFile(objectPath(semaphoreFile(name)), 0, false)
	if err != nil {
		return nil, err
	}
	s := &futexSemaphore{name: name, mem: mem}
	if len(mem) < semSize || atomic.LoadUint32(s.word(semOffMagic)) != semMagic {
		munmapImpl(mem)
		return nil, ErrBadMagic
	}
	return s, nil
}

func removeSemaphore(name string) error {
	return removeFile(semaphoreFile(name))
}

func (s *futexSemaphore) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&s.mem[off]))
}

func (s *futexSemaphore) Name() string { return s.name }

func (s *futexSemaphore) Wait() error {
	value := s.word(semOffValue)
	waiters := s.word(semOffWaiters)
	for {
		cur := atomic.LoadUint32(value)
		if cur > 0 {
			if atomic.CompareAndSwapUint32(value, cur, cur-1) {
				return nil
			}
			continue
		}
		// Announce before sleeping; Signal publishes the count before it
		// reads waiters, so one of the two always sees the other.
		atomic.AddUint32(waiters, 1)
		err := futexWait(value, 0)
		atomic.AddUint32(waiters, ^uint32(0))
		if err != nil {
			return resourceErr("wait", s.name, err)
		}
	}
}

func (s *futexSemaphore) Signal() error {
	value := s.word(semOffValue)
	max := atomic.LoadUint32(s.word(semOffMax))
	for {
		cur := atomic.LoadUint32(value)
		if cur >= max {
			return resourceErr("signal", s.name, fmt.Errorf("%w (%d)", ErrSemaphoreOverflow, max))
		}
		if atomic.CompareAndSwapUint32(value, cur, cur+1) {
			break
		}
	}
	if atomic.LoadUint32(s.word(semOffWaiters)) == 0 {
		return nil
	}
	if _, err := futexWake(value, 1); err != nil {
		return resourceErr("signal", s.name, err)
	}
	return nil
}

func (s *futexSemaphore) Value() (uint32, error) {
	if s.mem == nil {
		return 0, resourceErr("value", s.name, ErrNotFound)
	}
	return atomic.LoadUint32(s.word(semOffValue)), nil
}

func (s *futexSemaphore) Close() error {
	if s.mem == nil {
		return nil
	}
	err := munmapImpl(s.mem)
	s.mem = nil
	if err != nil {
		return resourceErr("close", s.name, err)
	}
	return nil
}
