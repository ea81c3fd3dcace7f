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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/kali-guru/hlbank-ipc/internal/report"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
)

// progressInterval is how often the monitor drains the progress feed.
const progressInterval = 250 * time.Millisecond

// Coordinator owns a run: it creates the channel, starts the consumer as a
// second process, runs the producer and tears everything down.
type Coordinator struct {
	Config Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Executable is started as "<Executable> consumer <flags>". Defaults to
	// the running binary.
	Executable string
}

// Run performs one benchmark run. Invalid input is reported as an
// InputError before any shared object exists. Once the consumer has
// attached, Run blocks until both sides have moved every record.
func (c *Coordinator) Run(ctx context.Context) error {
	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.JSON {
		report.WriteBanner(c.Stdout, cfg.Mode)
	}
	if cfg.Records == 0 {
		// Keep stdout line-oriented JSON.
		prompt := c.Stdout
		if cfg.JSON {
			prompt = c.Stderr
		}
		n, err := ReadRecordCount(c.Stdin, prompt)
		if err != nil {
			return err
		}
		cfg.Records = n
	}

	ch, err := shm.Create(shm.Options{Name: cfg.Name, Capacity: cfg.Capacity, Mode: cfg.Mode})
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.Close(); err != nil {
			logger.Errorf("teardown of %s failed: %v", cfg.Name, err)
		}
	}()

	exe := c.Executable
	if exe == "" {
		if exe, err = os.Executable(); err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
	}
	cmd := exec.Command(exe, append([]string{"consumer"}, cfg.consumerArgs()...)...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	logger.Infof("spawned consumer pid %d for %d records", cmd.Process.Pid, cfg.Records)

	readyCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		cancel()
	}()

	if err := ch.WaitForConsumer(readyCtx); err != nil && !ch.Segment().H.ConsumerReady() {
		if ctx.Err() != nil {
			cmd.Process.Kill()
			<-exited
			return ctx.Err()
		}
		werr := <-exited
		return &shm.ResourceError{Op: "attach", Name: cfg.Name, Err: fmt.Errorf("consumer exited before attaching: %v", werr)}
	}
	logger.Infof("consumer pid %d attached", ch.Segment().H.ConsumerPID())

	var feed *ProgressFeed
	if cfg.ProgressEvery > 0 {
		feed = NewProgressFeed()
		mon := StartMonitor(context.Background(), feed, progressInterval)
		defer mon.Stop()
	}
	opts := cfg.roleOptions(feed)
	opts.Capacity = ch.Capacity()

	rep, err := Produce(ch, cfg.Records, opts)
	if err != nil {
		// The consumer would wait forever for records that will not come.
		cmd.Process.Kill()
		<-exited
		return err
	}
	werr := <-exited

	if err := emit(ctx, cfg, c.Stdout, rep); err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("consumer failed: %w", werr)
	}
	return nil
}

// RunConsumer is the consumer process: attach, announce readiness, dequeue
// cfg.Records records, report.
func RunConsumer(ctx context.Context, cfg Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Records == 0 {
		return &InputError{Input: "0", Reason: "consumer needs a positive record count"}
	}

	ch, err := shm.Attach(cfg.Name, cfg.Mode)
	if err != nil {
		return err
	}
	defer ch.Close()
	ch.MarkConsumerReady()
	logger.Infof("consumer attached to %s (capacity %d, mode %s)", cfg.Name, ch.Capacity(), ch.Mode())

	var feed *ProgressFeed
	if cfg.ProgressEvery > 0 {
		feed = NewProgressFeed()
		mon := StartMonitor(ctx, feed, progressInterval)
		defer mon.Stop()
	}
	opts := cfg.roleOptions(feed)
	opts.Capacity = ch.Capacity()

	rep, err := Consume(ch, cfg.Records, opts)
	if err != nil {
		return err
	}
	if f := rep.Integrity; f != nil && !f.Clean() {
		logger.Warningf("integrity findings in %s mode: %s", cfg.Mode, f)
	}
	return emit(ctx, cfg, stdout, rep)
}

func emit(ctx context.Context, cfg Config, w io.Writer, rep *report.Report) error {
	var err error
	if cfg.JSON {
		err = report.WriteJSON(w, rep)
	} else {
		err = report.WriteConsole(w, rep)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s report: %w", rep.Role, err)
	}
	if cfg.Archive == "" {
		return nil
	}
	a, err := report.OpenArchive(cfg.Archive)
	if err != nil {
		return err
	}
	return errors.Join(a.Record(ctx, rep), a.Close())
}

// History writes the most recent archived runs.
func History(ctx context.Context, path string, limit int, w io.Writer) error {
	if path == "" {
		return &InputError{Reason: "history needs -archive"}
	}
	a, err := report.OpenArchive(path)
	if err != nil {
		return err
	}
	defer a.Close()
	runs, err := a.Recent(ctx, limit)
	if err != nil {
		return err
	}
	return report.WriteHistory(w, runs)
}
