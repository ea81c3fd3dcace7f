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

package bench

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kali-guru/hlbank-ipc/internal/metrics"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
	"github.com/sugawarayuuta/sonnet"
)

// InputError reports an unusable record count or configuration value. It is
// raised before any shared object is created.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Input == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// IsInputError reports whether err is or wraps an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Config is the configuration shared by the coordinator and the consumer.
type Config struct {
	Name          string   `json:"name"`           // base name of the shared objects
	Capacity      uint32   `json:"capacity"`       // ring slots
	Mode          shm.Mode `json:"mode"`           // safe or unsafe
	Records       uint32   `json:"records"`        // N; 0 prompts on stdin
	Window        int      `json:"window"`         // trailing samples kept for percentiles
	ProgressEvery uint32   `json:"progress_every"` // publish progress every K ops; 0 disables
	JSON          bool     `json:"json"`           // JSON report instead of console
	Archive       string   `json:"archive"`        // sqlite archive path; empty disables
	Verbosity     int      `json:"verbosity"`      // log verbosity; 0 keeps the environment's
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		Name:     "hl_bank",
		Capacity: shm.DefaultCapacity,
		Mode:     shm.ModeSafe,
		Window:   metrics.DefaultWindow,
	}
}

// LoadFile overlays a JSON config file onto cfg. Fields absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(b, cfg); err != nil {
		return &InputError{Input: path, Reason: err.Error()}
	}
	return nil
}

// MaxRecords bounds N. The auditor keeps a 4-byte counter per id.
const MaxRecords = 1 << 28

// Validate checks every field except Records, which may still be read from
// the console.
func (c *Config) Validate() error {
	if c.Name == "" || strings.ContainsAny(c.Name, `/\`) {
		return &InputError{Input: c.Name, Reason: "name must be non-empty and contain no path separator"}
	}
	if c.Capacity == 0 || c.Capacity > shm.MaxCapacity {
		return &InputError{Input: strconv.FormatUint(uint64(c.Capacity), 10), Reason: fmt.Sprintf("capacity must be in [1, %d]", shm.MaxCapacity)}
	}
	if c.Mode > shm.ModeUnsafe {
		return &InputError{Input: c.Mode.String(), Reason: "mode must be safe or unsafe"}
	}
	if c.Window < 0 {
		return &InputError{Input: strconv.Itoa(c.Window), Reason: "window must not be negative"}
	}
	if c.Records > MaxRecords {
		return &InputError{Input: strconv.FormatUint(uint64(c.Records), 10), Reason: fmt.Sprintf("record count must be at most %d", MaxRecords)}
	}
	return nil
}

// ParseRecordCount parses a positive record count.
func ParseRecordCount(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &InputError{Input: s, Reason: "not an integer"}
	}
	if n <= 0 {
		return 0, &InputError{Input: s, Reason: "record count must be positive"}
	}
	if n > MaxRecords {
		return 0, &InputError{Input: s, Reason: fmt.Sprintf("record count must be at most %d", MaxRecords)}
	}
	return uint32(n), nil
}

// ReadRecordCount prompts on w and reads one record count from r.
func ReadRecordCount(r io.Reader, w io.Writer) (uint32, error) {
	fmt.Fprint(w, "Enter number of transactions to simulate: ")
	var line string
	if _, err := fmt.Fscan(bufio.NewReader(r), &line); err != nil {
		return 0, &InputError{Reason: "no record count given"}
	}
	return ParseRecordCount(line)
}

// ParseArgs builds a Config from defaults, an optional -config file and the
// command-line flags, in that order of precedence.
func ParseArgs(name string, args []string, stderr io.Writer) (Config, error) {
	cfg := DefaultConfig()
	if path := configPath(args); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "JSON config file; flags override its values")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "base name of the shared segment and semaphores")
	capacity := fs.Uint("capacity", uint(cfg.Capacity), "ring capacity in records")
	fs.Var(&cfg.Mode, "mode", "protocol mode: safe or unsafe")
	unsafe := fs.Bool("unsafe", false, "shorthand for -mode unsafe")
	records := fs.String("n", "", "number of transactions; prompts when omitted")
	fs.IntVar(&cfg.Window, "window", cfg.Window, "trailing samples kept for percentiles")
	progress := fs.Uint("progress", uint(cfg.ProgressEvery), "log progress every K operations (0 disables)")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print the report as JSON")
	fs.StringVar(&cfg.Archive, "archive", cfg.Archive, "append reports to this sqlite database")
	fs.IntVar(&cfg.Verbosity, "v", cfg.Verbosity, "log verbosity")
	if err := fs.Parse(args); err != nil {
		return cfg, &InputError{Reason: err.Error()}
	}
	if fs.NArg() > 0 {
		return cfg, &InputError{Input: fs.Arg(0), Reason: "unexpected argument"}
	}

	if *capacity > math.MaxUint32 {
		return cfg, &InputError{Input: strconv.FormatUint(uint64(*capacity), 10), Reason: "capacity too large"}
	}
	cfg.Capacity = uint32(*capacity)
	if *progress > math.MaxUint32 {
		return cfg, &InputError{Input: strconv.FormatUint(uint64(*progress), 10), Reason: "progress interval too large"}
	}
	cfg.ProgressEvery = uint32(*progress)
	if *unsafe {
		cfg.Mode = shm.ModeUnsafe
	}
	if *records != "" {
		n, err := ParseRecordCount(*records)
		if err != nil {
			return cfg, err
		}
		cfg.Records = n
	}
	return cfg, cfg.Validate()
}

// configPath finds the -config value without parsing the other flags, so
// that the file can supply their defaults.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// consumerArgs are the arguments the coordinator passes to the consumer
// process after the "consumer" sub-command.
func (c *Config) consumerArgs() []string {
	args := []string{
		"-name", c.Name,
		"-mode", c.Mode.String(),
		"-n", strconv.FormatUint(uint64(c.Records), 10),
		"-capacity", strconv.FormatUint(uint64(c.Capacity), 10),
		"-window", strconv.Itoa(c.Window),
		"-progress", strconv.FormatUint(uint64(c.ProgressEvery), 10),
	}
	if c.JSON {
		args = append(args, "-json")
	}
	if c.Archive != "" {
		args = append(args, "-archive", c.Archive)
	}
	if c.Verbosity > 0 {
		args = append(args, "-v", strconv.Itoa(c.Verbosity))
	}
	return args
}
