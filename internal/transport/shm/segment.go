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
	"os"
)

// Segment is a mapped ring segment: the header plus capacity record slots.
type Segment struct {
	Name string // well-known name the segment was created or opened with
	Path string // backing object: a file path on Linux, a mapping name on Windows
	Mem  []byte // the mapped region
	H    hdrView

	unmap func([]byte) error
	owner bool
}

// CreateSegment creates, sizes and zeroes a new segment. It fails with
// ErrExists if the name is taken; callers that want to replace stale objects
// remove them first.
func CreateSegment(name string, capacity uint32, mode Mode) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, resourceErr("create", name, err)
	}
	size, err := SegmentSize(capacity)
	if err != nil {
		return nil, resourceErr("create", name, err)
	}
	m, err := createMapping(name, size)
	if err != nil {
		return nil, resourceErr("create", name, err)
	}
	clear(m.mem)
	seg := &Segment{Name: name, Path: m.path, Mem: m.mem, H: hdrView{mem: m.mem}, unmap: m.unmap, owner: true}
	seg.H.init(capacity, mode, uint32(os.Getpid()))
	return seg, nil
}

// OpenSegment attaches to an existing segment by name and validates its
// header.
func OpenSegment(name string) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, resourceErr("attach", name, err)
	}
	m, err := openMapping(name)
	if err != nil {
		return nil, resourceErr("attach", name, err)
	}
	if err := validateHeader(m.mem); err != nil {
		m.unmap(m.mem)
		return nil, resourceErr("attach", name, err)
	}
	size, _ := SegmentSize(hdrView{mem: m.mem}.Capacity())
	mem := m.mem[:size:size]
	return &Segment{Name: name, Path: m.path, Mem: mem, H: hdrView{mem: mem}, unmap: func([]byte) error { return m.unmap(m.mem) }}, nil
}

// Ring returns the slot view over this segment.
func (s *Segment) Ring() *RingView {
	return newRingView(s.Mem, s.H)
}

// Owner reports whether this process created the segment.
func (s *Segment) Owner() bool { return s.owner }

// Close unmaps the segment. It does not remove the backing object; see
// RemoveSegment.
func (s *Segment) Close() error {
	if s.Mem == nil {
		return nil
	}
	err := s.unmap(s.Mem)
	s.Mem = nil
	if err != nil {
		return resourceErr("unmap", s.Name, err)
	}
	return nil
}

// RemoveSegment removes the named segment's backing object. A missing object
// is reported as ErrNotFound.
func RemoveSegment(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return removeMapping(name)
}

// SegmentExists reports whether a segment with the given name exists.
func SegmentExists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	m, err := openMapping(name)
	if err != nil {
		return false
	}
	m.unmap(m.mem)
	return true
}

// mapping is what the platform layer hands back for a named region.
type mapping struct {
	path  string
	mem   []byte
	unmap func([]byte) error
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
