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

// Package record defines the fixed-size transaction record exchanged over the
// shared ring and its on-slot binary encoding.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Slot layout, little-endian:
//
//	0x00 id        uint32
//	0x04 kind      uint32
//	0x08 amount    uint64  minor currency units
//	0x10 sendTime  uint64  producer monotonic microseconds
//	0x18 digest    uint64
//	0x20 payload   [64]byte NUL padded
const (
	// Size is the encoded size of a record and the size of a ring slot.
	Size = 96

	// PayloadSize is the length of the descriptive text field.
	PayloadSize = 64

	offID       = 0x00
	offKind     = 0x04
	offAmount   = 0x08
	offSendTime = 0x10
	offDigest   = 0x18
	offPayload  = 0x20
)

//go:generate go tool stringer -type=Kind

// Kind is the transaction category of a record.
type Kind uint32

const (
	Transfer Kind = iota
	Inquiry
	BillPay
	Fraud
	Logging

	// NumKinds is the number of categories.
	NumKinds = 5
)

// KindOf returns the category for a record id: (id-1) mod 5.
func KindOf(id uint32) Kind {
	return Kind((id - 1) % NumKinds)
}

// AmountOf returns the deterministic amount for a record id in minor units.
func AmountOf(id uint32) uint64 {
	return (1000 + uint64((id-1)%500)) * 100
}

// Record is one simulated transaction.
type Record struct {
	ID       uint32
	Kind     Kind
	Amount   uint64
	SendTime uint64
	Digest   uint64
	Payload  [PayloadSize]byte
}

// New returns the record the producer emits for id, without a send time.
func New(id uint32) Record {
	var r Record
	r.Fill(id)
	return r
}

// Fill overwrites r with the record for id. SendTime is reset to zero.
func (r *Record) Fill(id uint32) {
	r.ID = id
	r.Kind = KindOf(id)
	r.Amount = AmountOf(id)
	r.SendTime = 0
	r.Payload = [PayloadSize]byte{}
	copy(r.Payload[:], fmt.Sprintf("HL_TX_%d %s", id, r.Kind))
	r.Digest = r.ComputeDigest()
}

// ComputeDigest returns the first 8 bytes of SHA3-256 over id, kind, amount
// and payload. SendTime is excluded: it is stamped after the digest.
func (r *Record) ComputeDigest() uint64 {
	var buf [16 + PayloadSize]byte
	binary.LittleEndian.PutUint32(buf[0:], r.ID)
	binary.LittleEndian.PutUint32(buf[4:], uint32(r.Kind))
	binary.LittleEndian.PutUint64(buf[8:], r.Amount)
	copy(buf[16:], r.Payload[:])
	sum := sha3.Sum256(buf[:])
	return binary.LittleEndian.Uint64(sum[:8])
}

// Valid reports whether the digest matches the other fields.
func (r *Record) Valid() bool {
	return r.Digest == r.ComputeDigest()
}

// PayloadString returns the payload text without NUL padding.
func (r *Record) PayloadString() string {
	if i := bytes.IndexByte(r.Payload[:], 0); i >= 0 {
		return string(r.Payload[:i])
	}
	return string(r.Payload[:])
}

// Encode writes r into a slot. dst must be at least Size bytes. Fields are
// stored one at a time; a concurrent Decode of the same slot can observe a
// mix of old and new fields.
func (r *Record) Encode(dst []byte) {
	_ = dst[Size-1]
	binary.LittleEndian.PutUint32(dst[offID:], r.ID)
	binary.LittleEndian.PutUint32(dst[offKind:], uint32(r.Kind))
	binary.LittleEndian.PutUint64(dst[offAmount:], r.Amount)
	binary.LittleEndian.PutUint64(dst[offSendTime:], r.SendTime)
	binary.LittleEndian.PutUint64(dst[offDigest:], r.Digest)
	copy(dst[offPayload:offPayload+PayloadSize], r.Payload[:])
}

// Decode reads r from a slot. src must be at least Size bytes.
func (r *Record) Decode(src []byte) {
	_ = src[Size-1]
	r.ID = binary.LittleEndian.Uint32(src[offID:])
	r.Kind = Kind(binary.LittleEndian.Uint32(src[offKind:]))
	r.Amount = binary.LittleEndian.Uint64(src[offAmount:])
	r.SendTime = binary.LittleEndian.Uint64(src[offSendTime:])
	r.Digest = binary.LittleEndian.Uint64(src[offDigest:])
	copy(r.Payload[:], src[offPayload:offPayload+PayloadSize])
}
