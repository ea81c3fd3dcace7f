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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

// Mode selects whether the mutex step is part of the protocol.
type Mode uint32

const (
	// ModeSafe brackets every cursor update with the mutex.
	ModeSafe Mode = iota
	// ModeUnsafe leaves the mutex out; the mutex object is never created.
	ModeUnsafe
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeUnsafe:
		return "unsafe"
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// ParseMode parses "safe" or "unsafe", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return ModeSafe, nil
	case "unsafe":
		return ModeUnsafe, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want safe or unsafe)", s)
}

// Set implements flag.Value.
func (m *Mode) Set(s string) error {
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m > ModeUnsafe {
		return nil, fmt.Errorf("invalid mode %d", uint32(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	return m.Set(string(b))
}

// Names are the well-known names of the objects backing one channel.
type Names struct {
	Segment string
	Empty   string // slots-free, initialised to capacity
	Full    string // slots-filled, initialised to 0
	Mutex   string
}

// NamesFor derives the object names from a base name.
func NamesFor(base string) Names {
	return Names{
		Segment: base + "_shm_ipc",
		Empty:   base + "_sem_empty",
		Full:    base + "_sem_full",
		Mutex:   base + "_sem_mutex",
	}
}

// Options configure Create.
type Options struct {
	Name     string // base name; see NamesFor
	Capacity uint32 // slot count; DefaultCapacity if zero
	Mode     Mode
}

// OpTiming breaks one Enqueue or Dequeue down into its steps.
type OpTiming struct {
	SlotWait time.Duration // blocked on slots-free or slots-filled
	LockWait time.Duration // blocked on the mutex; zero in unsafe mode
	Critical time.Duration // slot copy and cursor advance
}

// Channel is a bounded single-producer single-consumer queue of records over
// a shared segment, synchronized by two counting semaphores and, in safe
// mode, a binary semaphore used as a mutex.
//
// Enqueue and Dequeue block without a deadline. If the peer process dies the
// caller blocks until it is itself terminated.
type Channel struct {
	base  string
	names Names
	mode  Mode
	owner bool

	seg   *Segment
	ring  *RingView
	empty Semaphore
	full  Semaphore
	mutex Semaphore // nil in unsafe mode
}

// Create removes any stale objects left under opts.Name, then creates and
// initialises the segment and semaphores. The returned channel owns them:
// Close unlinks everything.
func Create(opts Options) (*Channel, error) {
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Mode > ModeUnsafe {
		return nil, resourceErr("create", opts.Name, fmt.Errorf("invalid mode %d", uint32(opts.Mode)))
	}
	if err := validateName(opts.Name); err != nil {
		return nil, resourceErr("create", opts.Name, err)
	}
	if _, err := SegmentSize(opts.Capacity); err != nil {
		return nil, resourceErr("create", opts.Name, err)
	}
	if err := Unlink(opts.Name); err != nil {
		return nil, resourceErr("cleanup", opts.Name, err)
	}

	names := NamesFor(opts.Name)
	c := &Channel{base: opts.Name, names: names, mode: opts.Mode, owner: true}
	var err error
	if c.seg, err = CreateSegment(names.Segment, opts.Capacity, opts.Mode); err != nil {
		return nil, err
	}
	c.ring = c.seg.Ring()
	if c.empty, err = CreateSemaphore(names.Empty, opts.Capacity, opts.Capacity); err != nil {
		c.Close()
		return nil, err
	}
	if c.full, err = CreateSemaphore(names.Full, 0, opts.Capacity); err != nil {
		c.Close()
		return nil, err
	}
	if opts.Mode == ModeSafe {
		if c.mutex, err = CreateSemaphore(names.Mutex, 1, 1); err != nil {
			c.Close()
			return nil, err
		}
	}
	logger.Infof("created channel %s: capacity %d, mode %s", opts.Name, opts.Capacity, opts.Mode)
	return c, nil
}

// Attach opens a channel created by another process. The mode must match the
// creator's.
func Attach(name string, mode Mode) (*Channel, error) {
	c, err := attach(name)
	if err != nil {
		return nil, err
	}
	if c.mode != mode {
		c.Close()
		return nil, resourceErr("attach", name, fmt.Errorf("%w: creator uses %s, attach requested %s", ErrModeMismatch, c.mode, mode))
	}
	return c, nil
}

func attach(name string) (*Channel, error) {
	if err := validateName(name); err != nil {
		return nil, resourceErr("attach", name, err)
	}
	names := NamesFor(name)
	c := &Channel{base: name, names: names}
	var err error
	if c.seg, err = OpenSegment(names.Segment); err != nil {
		return nil, err
	}
	c.mode = c.seg.H.Mode()
	c.ring = c.seg.Ring()
	if c.empty, err = OpenSemaphore(names.Empty); err != nil {
		c.Close()
		return nil, err
	}
	if c.full, err = OpenSemaphore(names.Full); err != nil {
		c.Close()
		return nil, err
	}
	if c.mode == ModeSafe {
		if c.mutex, err = OpenSemaphore(names.Mutex); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Unlink removes every object that may exist under the base name. Objects
// that do not exist are not an error.
func Unlink(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	names := NamesFor(name)
	return errors.Join(
		ignoreNotFound(RemoveSegment(names.Segment)),
		ignoreNotFound(RemoveSemaphore(names.Empty)),
		ignoreNotFound(RemoveSemaphore(names.Full)),
		ignoreNotFound(RemoveSemaphore(names.Mutex)),
	)
}

// Name returns the base name the channel was created or attached with.
func (c *Channel) Name() string { return c.base }

// Names returns the object names backing the channel.
func (c *Channel) Names() Names { return c.names }

// Mode returns the protocol mode.
func (c *Channel) Mode() Mode { return c.mode }

// Capacity returns the slot count.
func (c *Channel) Capacity() uint32 { return c.ring.Capacity() }

// Owner reports whether this process created the channel.
func (c *Channel) Owner() bool { return c.owner }

// Segment returns the underlying segment.
func (c *Channel) Segment() *Segment { return c.seg }

// Enqueue copies r into the next free slot:
// wait(slots-free), [lock], write slots[head], advance head, [unlock],
// signal(slots-filled).
func (c *Channel) Enqueue(r *record.Record) (OpTiming, error) {
	var t OpTiming
	start := time.Now()
	if err := c.empty.Wait(); err != nil {
		return t, err
	}
	acquired := time.Now()
	t.SlotWait = acquired.Sub(start)

	if c.mutex != nil {
		if err := c.mutex.Wait(); err != nil {
			return t, err
		}
		locked := time.Now()
		t.LockWait = locked.Sub(acquired)
		acquired = locked
	}

	r.Encode(c.ring.SlotAt(c.ring.Head()))
	c.ring.advanceHead()
	t.Critical = time.Since(acquired)

	if c.mutex != nil {
		if err := c.mutex.Signal(); err != nil {
			return t, err
		}
	}
	return t, c.full.Signal()
}

// Dequeue copies the oldest filled slot into r:
// wait(slots-filled), [lock], read slots[tail], advance tail, [unlock],
// signal(slots-free).
func (c *Channel) Dequeue(r *record.Record) (OpTiming, error) {
	var t OpTiming
	start := time.Now()
	if err := c.full.Wait(); err != nil {
		return t, err
	}
	acquired := time.Now()
	t.SlotWait = acquired.Sub(start)

	if c.mutex != nil {
		if err := c.mutex.Wait(); err != nil {
			return t, err
		}
		locked := time.Now()
		t.LockWait = locked.Sub(acquired)
		acquired = locked
	}

	r.Decode(c.ring.SlotAt(c.ring.Tail()))
	c.ring.advanceTail()
	t.Critical = time.Since(acquired)

	if c.mutex != nil {
		if err := c.mutex.Signal(); err != nil {
			return t, err
		}
	}
	return t, c.empty.Signal()
}

// MarkConsumerReady announces the attached consumer to the creator.
func (c *Channel) MarkConsumerReady() { c.seg.MarkConsumerReady() }

// WaitForConsumer waits until the consumer has announced itself or ctx is
// done.
func (c *Channel) WaitForConsumer(ctx context.Context) error {
	return c.seg.WaitForConsumer(ctx)
}

// State is a snapshot of a channel.
type State struct {
	Name          string
	Mode          Mode
	Ring          RingState
	Free          uint32 // slots-free count
	Filled        uint32 // slots-filled count
	MutexValue    uint32 // 1 when unlocked; 0 in unsafe mode
	ProducerPID   uint32
	ConsumerPID   uint32
	ConsumerReady bool
}

// Consistent reports whether the cursors are in range and the two counts add
// up to capacity. It only holds while no operation is in flight: between the
// wait on one semaphore and the signal of the other the sum is one short.
func (s State) Consistent() bool {
	return s.Ring.Head < s.Ring.Capacity &&
		s.Ring.Tail < s.Ring.Capacity &&
		s.Free+s.Filled == s.Ring.Capacity
}

// State returns a snapshot of the channel.
func (c *Channel) State() (State, error) {
	s := State{
		Name:          c.names.Segment,
		Mode:          c.mode,
		Ring:          c.ring.DebugState(),
		ProducerPID:   c.seg.H.ProducerPID(),
		ConsumerPID:   c.seg.H.ConsumerPID(),
		ConsumerReady: c.seg.H.ConsumerReady(),
	}
	var err error
	if s.Free, err = c.empty.Value(); err != nil {
		return s, err
	}
	if s.Filled, err = c.full.Value(); err != nil {
		return s, err
	}
	if c.mutex != nil {
		if s.MutexValue, err = c.mutex.Value(); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Inspect attaches to a live channel in whatever mode it was created with,
// snapshots it and detaches.
func Inspect(name string) (State, error) {
	c, err := attach(name)
	if err != nil {
		return State{}, err
	}
	defer c.Close()
	return c.State()
}

// Close releases this process's handles. The owner also unlinks the named
// objects.
func (c *Channel) Close() error {
	var errs []error
	for _, s := range []Semaphore{c.mutex, c.full, c.empty} {
		if s != nil {
			errs = append(errs, s.Close())
		}
	}
	c.mutex, c.full, c.empty = nil, nil, nil
	if c.seg != nil {
		errs = append(errs, c.seg.Close())
		c.seg = nil
	}
	if c.owner {
		c.owner = false
		if err := Unlink(c.base); err != nil {
			errs = append(errs, resourceErr("unlink", c.base, err))
		} else {
			logger.Infof("unlinked channel objects for %s", c.base)
		}
	}
	return errors.Join(errs...)
}
