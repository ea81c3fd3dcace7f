//go:build windows

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
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	semaphoreAllAccess = 0x1F0003 // SEMAPHORE_ALL_ACCESS

	errTooManyPosts = windows.Errno(298) // ERROR_TOO_MANY_POSTS
)

var (
	modntdll             = windows.NewLazySystemDLL("ntdll.dll")
	procCreateSemaphoreW = modkernel32.NewProc("CreateSemaphoreW")
	procOpenSemaphoreW   = modkernel32.NewProc("OpenSemaphoreW")
	procReleaseSemaphore = modkernel32.NewProc("ReleaseSemaphore")
	procNtQuerySemaphore = modntdll.NewProc("NtQuerySemaphore")
)

// semaphoreBasicInformation mirrors SEMAPHORE_BASIC_INFORMATION.
type semaphoreBasicInformation struct {
	CurrentCount int32
	MaximumCount int32
}

// kernelSemaphore is a Win32 named semaphore.
type kernelSemaphore struct {
	name string
	h    windows.Handle
}

func createSemaphore(name string, initial, max uint32) (Semaphore, error) {
	p, err := windows.UTF16PtrFromString(objectPath(name))
	if err != nil {
		return nil, err
	}
	r0, _, e1 := procCreateSemaphoreW.Call(0, uintptr(initial), uintptr(max), uintptr(unsafe.Pointer(p)))
	h := windows.Handle(r0)
	if h == 0 {
		return nil, fmt.Errorf("CreateSemaphore failed: %w", e1)
	}
	if errors.Is(e1, windows.ERROR_ALREADY_EXISTS) {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: %s", ErrExists, objectPath(name))
	}
	return &kernelSemaphore{name: name, h: h}, nil
}

func openSemaphore(name string) (Semaphore, error) {
	p, err := windows.UTF16PtrFromString(objectPath(name))
	if err != nil {
		return nil, err
	}
	r0, _, e1 := procOpenSemaphoreW.Call(semaphoreAllAccess, 0, uintptr(unsafe.Pointer(p)))
	if r0 == 0 {
		if errors.Is(e1, windows.ERROR_FILE_NOT_FOUND) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, objectPath(name))
		}
		return nil, fmt.Errorf("OpenSemaphore failed: %w", e1)
	}
	return &kernelSemaphore{name: name, h: windows.Handle(r0)}, nil
}

// removeSemaphore is a no-op: the object goes away with its last handle.
func removeSemaphore(string) error {
	return nil
}

func (s *kernelSemaphore) Name() string { return s.name }

func (s *kernelSemaphore) Wait() error {
	ev, err := windows.WaitForSingleObject(s.h, windows.INFINITE)
	if err != nil {
		return resourceErr("wait", s.name, err)
	}
	if ev != windows.WAIT_OBJECT_0 {
		return resourceErr("wait", s.name, fmt.Errorf("unexpected wait result %#x", ev))
	}
	return nil
}

func (s *kernelSemaphore) Signal() error {
	r0, _, e1 := procReleaseSemaphore.Call(uintptr(s.h), 1, 0)
	if r0 == 0 {
		if errors.Is(e1, errTooManyPosts) {
			return resourceErr("signal", s.name, ErrSemaphoreOverflow)
		}
		return resourceErr("signal", s.name, e1)
	}
	return nil
}

func (s *kernelSemaphore) Value() (uint32, error) {
	var info semaphoreBasicInformation
	var n uint32
	status, _, _ := procNtQuerySemaphore.Call(uintptr(s.h), 0, uintptr(unsafe.Pointer(&info)), unsafe.Sizeof(info), uintptr(unsafe.Pointer(&n)))
	if status != 0 {
		return 0, resourceErr("value", s.name, fmt.Errorf("NtQuerySemaphore status %#x", status))
	}
	return uint32(info.CurrentCount), nil
}

func (s *kernelSemaphore) Close() error {
	if s.h == 0 {
		return nil
	}
	err := windows.CloseHandle(s.h)
	s.h = 0
	if err != nil {
		return resourceErr("close", s.name, err)
	}
	return nil
}
