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

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kali-guru/hlbank-ipc/internal/metrics"
	"github.com/kali-guru/hlbank-ipc/internal/platform"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
)

// ModeLabel is the banner label for a mode.
func ModeLabel(m shm.Mode) string {
	if m == shm.ModeUnsafe {
		return "UNSAFE (RACE DEMO)"
	}
	return "SAFE"
}

// WriteBanner writes the run banner.
func WriteBanner(w io.Writer, m shm.Mode) error {
	rule := strings.Repeat("=", 53)
	_, err := fmt.Fprintf(w, "%s\n HL Banking System - %s IPC (Shared Memory) [%s]\n%s\n",
		rule, platform.OSName(), ModeLabel(m), rule)
	return err
}

type seriesLabel struct {
	name  string
	label string
}

var (
	producerSeries = []seriesLabel{
		{metrics.SeriesEnqueue, "Avg Proc Time/msg"},
		{metrics.SeriesLocalLatency, "Avg Local Latency"},
		{metrics.SeriesSlotWait, "Slot Wait Time"},
		{metrics.SeriesLockWait, "Lock Wait Time"},
		{metrics.SeriesCritical, "Critical Section Time"},
	}
	consumerSeries = []seriesLabel{
		{metrics.SeriesDequeue, "Avg Proc Time/msg"},
		{metrics.SeriesOneWayLatency, "Avg One-way Latency"},
		{metrics.SeriesSlotWait, "Slot Wait Time"},
		{metrics.SeriesLockWait, "Lock Wait Time"},
		{metrics.SeriesCritical, "Critical Section Time"},
	}
)

// WriteConsole writes the human-readable block for one role.
func WriteConsole(w io.Writer, r *Report) error {
	var b strings.Builder
	title, countLabel, timeLabel, series := "PRODUCER (Transaction Processor)", "Transactions Sent", "Total Send Time", producerSeries
	if r.Role == RoleConsumer {
		title, countLabel, timeLabel, series = "CONSUMER (Logging/Audit)", "Transactions Processed", "Total Receive Time", consumerSeries
	}
	head := fmt.Sprintf("------------------- %s -------------------", title)

	fmt.Fprintf(&b, "\n%s\n", head)
	fmt.Fprintf(&b, "%-23s: %d\n", countLabel, r.Metrics.Ops)
	fmt.Fprintf(&b, "%-23s: %.6f s\n", timeLabel, r.Metrics.Elapsed.Seconds())
	fmt.Fprintf(&b, "%-23s: %.2f msg/s\n", "Throughput", r.Metrics.Throughput)
	b.WriteString("\n")
	for _, s := range series {
		st, ok := r.Metrics.Lookup(s.name)
		if !ok || (s.name == metrics.SeriesLockWait && r.Mode == shm.ModeUnsafe) {
			continue
		}
		fmt.Fprintf(&b, "%-23s: %.2f us | min=%d us | max=%d us | p50=%d us | p99=%d us\n",
			s.label, micros(st.Avg), st.Min.Microseconds(), st.Max.Microseconds(),
			st.P50.Microseconds(), st.P99.Microseconds())
	}
	fmt.Fprintf(&b, "%-23s: voluntary=%d | involuntary=%d\n", "Context Switches",
		r.Usage.VoluntarySwitches, r.Usage.InvoluntarySwitches)
	if r.Integrity != nil {
		fmt.Fprintf(&b, "\n%-23s: %s\n", "Integrity Check", r.Integrity)
	}
	b.WriteString(strings.Repeat("-", len(head)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// WriteHistory writes archived runs as a table.
func WriteHistory(w io.Writer, runs []Run) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-24s %-9s %-7s %-10s %10s %14s %14s\n",
		"ID", "STARTED", "ROLE", "MODE", "NAME", "RECORDS", "MSG/S", "INTEGRITY")
	for _, r := range runs {
		integrity := "-"
		if r.Missing.Valid {
			integrity = fmt.Sprintf("m=%d d=%d", r.Missing.Int64, r.Duplicate.Int64)
		}
		fmt.Fprintf(&b, "%-6d %-24s %-9s %-7s %-10s %10d %14.2f %14s\n",
			r.ID, r.Started.Local().Format("2006-01-02 15:04:05.000"), r.Role, r.Mode, r.Name,
			r.Records, r.Throughput, integrity)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
