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
	"testing"

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

func TestCreateAndOpenSegment(t *testing.T) {
	skipUnsupported(t)

	name := uniqueName(t, "seg")
	RemoveSegment(name)
	defer RemoveSegment(name)

	seg, err := CreateSegment(name, 8, ModeSafe)
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}
	defer seg.Close()

	if !seg.Owner() {
		t.Error("creator is not the owner")
	}
	if want, _ := SegmentSize(8); len(seg.Mem) != want {
		t.Errorf("len(Mem) = %d, want %d", len(seg.Mem), want)
	}
	if !SegmentExists(name) {
		t.Error("SegmentExists() = false after create")
	}

	// Slot data written by one mapping is visible through another.
	r := record.New(3)
	r.Encode(seg.Ring().SlotAt(5))
	seg.H.SetHead(6)

	peer, err := OpenSegment(name)
	if err != nil {
		t.Fatalf("OpenSegment() error = %v", err)
	}
	defer peer.Close()

	if peer.Owner() {
		t.Error("attacher is the owner")
	}
	if peer.H.Capacity() != 8 || peer.H.Mode() != ModeSafe || peer.H.Head() != 6 {
		t.Errorf("peer header: capacity=%d mode=%v head=%d", peer.H.Capacity(), peer.H.Mode(), peer.H.Head())
	}
	var got record.Record
	got.Decode(peer.Ring().SlotAt(5))
	if got != r {
		t.Errorf("peer slot 5 = %+v, want %+v", got, r)
	}
}

func TestCreateSegmentAlreadyExists(t *testing.T) {
	skipUnsupported(t)

	name := uniqueName(t, "seg")
	RemoveSegment(name)
	defer RemoveSegment(name)

	seg1, err := CreateSegment(name, 4, ModeSafe)
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}
	defer seg1.Close()

	seg2, err := CreateSegment(name, 4, ModeSafe)
	if err == nil {
		seg2.Close()
		t.Fatal("CreateSegment() should fail when segment already exists")
	}
	if !errors.Is(err, ErrExists) || !IsResourceError(err) {
		t.Errorf("CreateSegment() error = %v, want ResourceError wrapping ErrExists", err)
	}
}

func TestOpenSegmentNotExists(t *testing.T) {
	skipUnsupported(t)

	name := uniqueName(t, "seg")
	RemoveSegment(name)

	seg, err := OpenSegment(name)
	if err == nil {
		seg.Close()
		t.Fatal("OpenSegment() should fail when segment doesn't exist")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenSegment() error = %v, want ErrNotFound", err)
	}
	var re *ResourceError
	if !errors.As(err, &re) || re.Op != "attach" || re.Name != name {
		t.Errorf("OpenSegment() error = %#v, want attach ResourceError for %s", err, name)
	}
	if SegmentExists(name) {
		t.Error("SegmentExists() = true for a missing segment")
	}
}

func TestCreateSegmentInvalid(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint32
		want     error
	}{
		{"", 4, ErrInvalidName},
		{"a/b", 4, ErrInvalidName},
		{"zero_capacity", 0, ErrInvalidCapacity},
		{"huge_capacity", MaxCapacity + 1, ErrInvalidCapacity},
	}
	for _, tt := range tests {
		seg, err := CreateSegment(tt.name, tt.capacity, ModeSafe)
		if err == nil {
			seg.Close()
			RemoveSegment(tt.name)
			t.Errorf("CreateSegment(%q, %d) succeeded", tt.name, tt.capacity)
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("CreateSegment(%q, %d) error = %v, want %v", tt.name, tt.capacity, err, tt.want)
		}
	}
}

func TestSegmentCloseTwice(t *testing.T) {
	skipUnsupported(t)

	name := uniqueName(t, "seg")
	defer RemoveSegment(name)
	seg, err := CreateSegment(name, 1, ModeSafe)
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
