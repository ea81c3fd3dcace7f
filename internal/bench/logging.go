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
	"io"

	"google.golang.org/grpc/grpclog"
)

var logger = grpclog.Component("hlbank")

// SetupLogging installs a stderr logger at the given verbosity. With
// verbosity 0 the GRPC_GO_LOG_* environment settings stay in effect. It must
// be called before any goroutine logs.
func SetupLogging(w io.Writer, verbosity int) {
	if verbosity <= 0 {
		return
	}
	grpclog.SetLoggerV2(grpclog.NewLoggerV2WithVerbosity(w, w, w, verbosity))
}
