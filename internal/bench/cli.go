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
	"flag"
	"fmt"
	"io"
	"strings"
)

const usage = `usage: hlbank-ipc [run] [flags]        run a benchmark (producer side)
       hlbank-ipc consumer [flags]     consumer side, started by run
       hlbank-ipc history -archive DB  list archived runs
`

// Main dispatches a command line (without the program name) and returns the
// process exit code: 0 on success, 1 on any error.
func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	sub := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	var err error
	switch sub {
	case "run":
		var cfg Config
		if cfg, err = ParseArgs("hlbank-ipc run", args, stderr); err == nil {
			SetupLogging(stderr, cfg.Verbosity)
			c := &Coordinator{Config: cfg, Stdin: stdin, Stdout: stdout, Stderr: stderr}
			err = c.Run(ctx)
		}
	case "consumer":
		var cfg Config
		if cfg, err = ParseArgs("hlbank-ipc consumer", args, stderr); err == nil {
			SetupLogging(stderr, cfg.Verbosity)
			err = RunConsumer(ctx, cfg, stdout)
		}
	case "history":
		fs := flag.NewFlagSet("hlbank-ipc history", flag.ContinueOnError)
		fs.SetOutput(stderr)
		archive := fs.String("archive", "", "sqlite database written by -archive")
		limit := fs.Int("limit", 20, "number of runs to list")
		if err = fs.Parse(args); err == nil {
			err = History(ctx, *archive, *limit, stdout)
		}
	default:
		fmt.Fprint(stderr, usage)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "hlbank-ipc %s: %v\n", sub, err)
		return 1
	}
	return 0
}
