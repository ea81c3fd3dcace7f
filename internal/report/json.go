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
	"io"

	"github.com/sugawarayuuta/sonnet"
)

// WriteJSON writes the report as one JSON object followed by a newline.
func WriteJSON(w io.Writer, r *Report) error {
	b, err := sonnet.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// ReadJSON decodes a report written by WriteJSON.
func ReadJSON(b []byte) (*Report, error) {
	r := new(Report)
	if err := sonnet.Unmarshal(b, r); err != nil {
		return nil, err
	}
	return r, nil
}
