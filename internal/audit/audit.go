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

// Package audit reconciles the ids a consumer received against the ids
// 1..N the producer emitted.
package audit

import (
	"fmt"

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

// Finding is the outcome of an audit. It is a measurement, not an error:
// non-zero counts are expected in unsafe mode.
type Finding struct {
	Expected   uint32 `json:"expected"`
	Observed   uint64 `json:"observed"`     // every record handed to the auditor
	Missing    uint32 `json:"missing"`      // ids in [1, N] never observed
	Duplicate  uint64 `json:"duplicate"`    // occurrences beyond the first
	OutOfRange uint64 `json:"out_of_range"` // ids outside [1, N]
	Torn       uint64 `json:"torn"`         // digest did not match the fields
	Reordered  uint64 `json:"reordered"`    // valid id at or below the previous valid id
}

// Clean reports whether every id was seen exactly once, in order, intact.
func (f Finding) Clean() bool {
	return f.Missing == 0 && f.Duplicate == 0 && f.OutOfRange == 0 && f.Torn == 0 && f.Reordered == 0
}

func (f Finding) String() string {
	return fmt.Sprintf("missing=%d | duplicate=%d | out_of_range=%d | torn=%d | reordered=%d",
		f.Missing, f.Duplicate, f.OutOfRange, f.Torn, f.Reordered)
}

// Auditor keeps a presence counter per expected id. It is not safe for
// concurrent use.
type Auditor struct {
	n         uint32
	seen      []uint32 // seen[id-1]
	observed  uint64
	outOfRng  uint64
	torn      uint64
	reordered uint64
	last      uint32
}

// New returns an auditor expecting ids 1..n.
func New(n uint32) *Auditor {
	return &Auditor{n: n, seen: make([]uint32, n)}
}

// Observe records one received id. Ids outside [1, N] are counted but
// otherwise ignored.
func (a *Auditor) Observe(id uint32) {
	a.observed++
	if id == 0 || id > a.n {
		a.outOfRng++
		return
	}
	a.seen[id-1]++
	if id <= a.last {
		a.reordered++
	}
	a.last = id
}

// ObserveRecord checks the record's digest and then observes its id.
func (a *Auditor) ObserveRecord(r *record.Record) {
	if !r.Valid() {
		a.torn++
	}
	a.Observe(r.ID)
}

// Finding computes the reconciliation. It may be called at any time; it
// does not reset the auditor.
func (a *Auditor) Finding() Finding {
	f := Finding{
		Expected:   a.n,
		Observed:   a.observed,
		OutOfRange: a.outOfRng,
		Torn:       a.torn,
		Reordered:  a.reordered,
	}
	for _, c := range a.seen {
		switch {
		case c == 0:
			f.Missing++
		case c > 1:
			f.Duplicate += uint64(c - 1)
		}
	}
	return f
}
