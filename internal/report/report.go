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

// Package report renders and archives the result of one benchmark role.
package report

import (
	"time"

	"github.com/kali-guru/hlbank-ipc/internal/audit"
	"github.com/kali-guru/hlbank-ipc/internal/metrics"
	"github.com/kali-guru/hlbank-ipc/internal/platform"
	"github.com/kali-guru/hlbank-ipc/internal/transport/shm"
)

// Roles.
const (
	RoleProducer = "producer"
	RoleConsumer = "consumer"
)

// Report is what one role measured. Integrity is set for the consumer only.
type Report struct {
	Role      string          `json:"role"`
	Name      string          `json:"name"`
	Mode      shm.Mode        `json:"mode"`
	Capacity  uint32          `json:"capacity"`
	Records   uint32          `json:"records"`
	PID       int             `json:"pid"`
	Started   time.Time       `json:"started"`
	Env       platform.Env    `json:"env"`
	Usage     platform.Usage  `json:"usage"`
	Metrics   metrics.Summary `json:"metrics"`
	Integrity *audit.Finding  `json:"integrity,omitempty"`
}
