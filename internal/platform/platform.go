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

// Package platform describes the machine and process a benchmark role ran on.
package platform

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Env is the runtime environment of one role.
type Env struct {
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	CPUs      int      `json:"cpus"`
	GoVersion string   `json:"go_version"`
	CacheLine int      `json:"cache_line"`
	Features  []string `json:"features,omitempty"`
}

// Probe returns the current environment.
func Probe() Env {
	return Env{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
		CacheLine: int(unsafe.Sizeof(cpu.CacheLinePad{})),
		Features:  features(),
	}
}

// features lists the CPU features that bear on atomic and copy performance.
func features() []string {
	var fs []string
	add := func(ok bool, name string) {
		if ok {
			fs = append(fs, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasPOPCNT, "popcnt")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasAVX512F, "avx512f")
		add(cpu.X86.HasERMS, "erms")
	case "arm64":
		add(cpu.ARM64.HasATOMICS, "lse")
		add(cpu.ARM64.HasASIMD, "asimd")
	}
	return fs
}

// OSName is the operating system name used in report banners.
func OSName() string {
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	}
	return runtime.GOOS
}

// Usage is the scheduling cost of the current process so far.
type Usage struct {
	VoluntarySwitches   uint64 `json:"voluntary_switches"`
	InvoluntarySwitches uint64 `json:"involuntary_switches"`
}

// Sub returns u - prev.
func (u Usage) Sub(prev Usage) Usage {
	return Usage{
		VoluntarySwitches:   u.VoluntarySwitches - prev.VoluntarySwitches,
		InvoluntarySwitches: u.InvoluntarySwitches - prev.InvoluntarySwitches,
	}
}

// ReadUsage returns the context switch counts of the current process. It
// reports zeros where the counts are unavailable.
func ReadUsage() Usage {
	return readUsage()
}
