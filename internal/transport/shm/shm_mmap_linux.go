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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const objectPrefix = "hlbank_"

// objectPath returns the file backing a named object. /dev/shm is preferred;
// the temporary directory is the fallback on systems without it.
func objectPath(name string) string {
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", objectPrefix+name)
	}
	return filepath.Join(os.TempDir(), objectPrefix+name)
}

// isDevShmAvailable checks if /dev/shm is available
func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}
	return info.IsDir()
}

// mapFile maps a named file shared and read-write. With create set the file
// must not exist yet and is sized to size; otherwise the file must exist and
// the whole file is mapped.
func mapFile(path string, size int, create bool) ([]byte, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	// The mapping outlives the descriptor.
	defer file.Close()

	if create {
		if err := file.Truncate(int64(size)); err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("failed to resize %s: %w", path, err)
		}
	} else {
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		size = int(info.Size())
		if size == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrLayout, path)
		}
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		if create {
			os.Remove(path)
		}
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return mem, nil
}

func munmapImpl(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}

// removeFile removes a named object from both candidate directories.
func removeFile(name string) error {
	paths := []string{
		filepath.Join("/dev/shm", objectPrefix+name),
		filepath.Join(os.TempDir(), objectPrefix+name),
	}
	var lastErr error
	for _, path := range paths {
		err := os.Remove(path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrNotFound
}

func createMapping(name string, size int) (mapping, error) {
	path := objectPath(name)
	mem, err := mapFile(path, size, true)
	if err != nil {
		return mapping{}, err
	}
	return mapping{path: path, mem: mem, unmap: munmapImpl}, nil
}

func openMapping(name string) (mapping, error) {
	path := objectPath(name)
	mem, err := mapFile(path, 0, false)
	if err != nil {
		return mapping{}, err
	}
	return mapping{path: path, mem: mem, unmap: munmapImpl}, nil
}

func removeMapping(name string) error {
	return removeFile(name)
}
