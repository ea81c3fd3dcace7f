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

// Command ring-inspect prints the state of a live channel, or with -probe
// creates a scratch channel and walks it through a fill and drain.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kali-guru/hlbank-ipc/internal/record"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("ring-inspect", flag.ContinueOnError)
	name := fs.String("name", "hl_bank", "base name of the channel")
	probe := fs.Bool("probe", false, "create a scratch channel and exercise backpressure")
	capacity := fs.Uint("capacity", 8, "slot count of the scratch channel")
	mode := shm.ModeSafe
	fs.Var(&mode, "mode", "mode of the scratch channel")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*probe {
		st, err := shm.Inspect(*name)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", *name, err)
		}
		printState(w, st)
		return nil
	}

	if *capacity == 0 || *capacity > shm.MaxCapacity {
		return fmt.Errorf("capacity %d out of range [1, %d]", *capacity, shm.MaxCapacity)
	}
	ch, err := shm.Create(shm.Options{Name: *name + "_probe", Capacity: uint32(*capacity), Mode: mode})
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	err = exercise(ch, w)
	return errors.Join(err, ch.Close())
}

// exercise fills ch until the slots-free semaphore reaches zero, then drains
// it and checks the occupancy invariant.
func exercise(ch *shm.Channel, w io.Writer) error {
	fmt.Fprintf(w, "=== Channel Layout ===\n")
	fmt.Fprintf(w, "Segment: %s (%d bytes)\n", ch.Segment().Path, len(ch.Segment().Mem))
	fmt.Fprintf(w, "Header: %d bytes, slot: %d bytes, capacity: %d slots\n", shm.HeaderSize, record.Size, ch.Capacity())
	st, err := ch.State()
	if err != nil {
		return err
	}
	printState(w, st)

	fmt.Fprintf(w, "\n=== Backpressure Test ===\n")
	for id := uint32(1); ; id++ {
		if st, err = ch.State(); err != nil {
			return err
		}
		if st.Free == 0 {
			fmt.Fprintf(w, "Full after %d records; the next Enqueue would block\n", id-1)
			break
		}
		r := record.New(id)
		t, err := ch.Enqueue(&r)
		if err != nil {
			return fmt.Errorf("enqueue %d: %w", id, err)
		}
		fmt.Fprintf(w, "Enqueued %d (critical section %v)\n", id, t.Critical)
	}
	printState(w, st)

	fmt.Fprintf(w, "\n=== Drain ===\n")
	var r record.Record
	for {
		if st, err = ch.State(); err != nil {
			return err
		}
		if st.Filled == 0 {
			break
		}
		if _, err := ch.Dequeue(&r); err != nil {
			return fmt.Errorf("dequeue: %w", err)
		}
		fmt.Fprintf(w, "Dequeued %d %q valid=%v\n", r.ID, r.PayloadString(), r.Valid())
	}
	printState(w, st)
	if !st.Consistent() {
		return errors.New("occupancy invariant violated")
	}
	return nil
}

func printState(w io.Writer, st shm.State) {
	fmt.Fprintf(w, "%s [%s] head=%d tail=%d used=%d free=%d filled=%d mutex=%d producer=%d consumer=%d ready=%v consistent=%v\n",
		st.Name, st.Mode, st.Ring.Head, st.Ring.Tail, st.Ring.Used, st.Free, st.Filled,
		st.MutexValue, st.ProducerPID, st.ConsumerPID, st.ConsumerReady, st.Consistent())
}
