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

package clock

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = modkernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = modkernel32.NewProc("QueryPerformanceFrequency")
)

func queryPerformance(proc *windows.LazyProc) (int64, error) {
	var v int64
	r0, _, e1 := proc.Call(uintptr(unsafe.Pointer(&v)))
	if r0 == 0 {
		return 0, e1
	}
	return v, nil
}

var freq = sync.OnceValue(func() uint64 {
	f, err := queryPerformance(procQueryPerformanceFrequency)
	if err != nil || f <= 0 {
		panic("clock: QueryPerformanceFrequency failed")
	}
	return uint64(f)
})

func now() uint64 {
	c, err := queryPerformance(procQueryPerformanceCounter)
	if err != nil {
		panic("clock: QueryPerformanceCounter failed")
	}
	f := freq()
	return uint64(c)/f*1e6 + uint64(c)%f*1e6/f
}
