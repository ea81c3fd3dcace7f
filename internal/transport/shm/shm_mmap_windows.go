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

const objectPrefix = `Local\hlbank_`

var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMappingW = modkernel32.NewProc("OpenFileMappingW")
)

// objectPath returns the kernel object name for a named object.
func objectPath(name string) string {
	return objectPrefix + name
}

func openFileMapping(access uint32, name *uint16) (windows.Handle, error) {
	r0, _, e1 := procOpenFileMappingW.Call(uintptr(access), 0, uintptr(unsafe.Pointer(name)))
	if r0 == 0 {
		return 0, e1
	}
	return windows.Handle(r0), nil
}

// mapView maps the whole section and returns it with a function that unmaps
// the view and closes the section handle.
func mapView(h windows.Handle, size int) ([]byte, func([]byte) error, error) {
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, nil, fmt.Errorf("MapViewOfFile failed: %w", err)
	}
	if size == 0 {
		var info windows.MemoryBasicInformation
		if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
			windows.UnmapViewOfFile(addr)
			windows.CloseHandle(h)
			return nil, nil, fmt.Errorf("VirtualQuery failed: %w", err)
		}
		size = int(info.RegionSize)
	}
	mem := unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(nil), addr)), size)
	unmap := func([]byte) error {
		err := windows.UnmapViewOfFile(addr)
		if cerr := windows.CloseHandle(h); err == nil {
			err = cerr
		}
		return err
	}
	return mem, unmap, nil
}

func createMapping(name string, size int) (mapping, error) {
	path := objectPath(name)
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return mapping{}, err
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, uint32(uint64(size)>>32), uint32(size), p)
	if h != 0 && errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		windows.CloseHandle(h)
		return mapping{}, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return mapping{}, fmt.Errorf("CreateFileMapping failed: %w", err)
	}
	mem, unmap, err := mapView(h, size)
	if err != nil {
		return mapping{}, err
	}
	return mapping{path: path, mem: mem, unmap: unmap}, nil
}

func openMapping(name string) (mapping, error) {
	path := objectPath(name)
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return mapping{}, err
	}
	h, err := openFileMapping(windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, p)
	if err != nil {
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
			return mapping{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return mapping{}, fmt.Errorf("OpenFileMapping failed: %w", err)
	}
	mem, unmap, err := mapView(h, 0)
	if err != nil {
		return mapping{}, err
	}
	return mapping{path: path, mem: mem, unmap: unmap}, nil
}

// removeMapping is a no-op: a section object goes away with its last handle.
func removeMapping(string) error {
	return nil
}
