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
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	started      INTEGER NOT NULL, -- unix nanoseconds
	role         TEXT    NOT NULL,
	name         TEXT    NOT NULL,
	mode         TEXT    NOT NULL,
	capacity     INTEGER NOT NULL,
	records      INTEGER NOT NULL,
	pid          INTEGER NOT NULL,
	elapsed_ns   INTEGER NOT NULL,
	throughput   REAL    NOT NULL,
	missing      INTEGER,
	duplicate    INTEGER,
	out_of_range INTEGER,
	torn         INTEGER,
	reordered    INTEGER,
	report       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started ON runs (started);
`

// Archive is a sqlite database of benchmark results. Producer and consumer
// append to the same file from different processes.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise archive %s: %w", path, err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error { return a.db.Close() }

// Record appends one report.
func (a *Archive) Record(ctx context.Context, r *Report) error {
	b, err := sonnet.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	var missing, duplicate, outOfRange, torn, reordered sql.NullInt64
	if f := r.Integrity; f != nil {
		missing = sql.NullInt64{Int64: int64(f.Missing), Valid: true}
		duplicate = sql.NullInt64{Int64: int64(f.Duplicate), Valid: true}
		outOfRange = sql.NullInt64{Int64: int64(f.OutOfRange), Valid: true}
		torn = sql.NullInt64{Int64: int64(f.Torn), Valid: true}
		reordered = sql.NullInt64{Int64: int64(f.Reordered), Valid: true}
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO runs (started, role, name, mode, capacity, records, pid,
			elapsed_ns, throughput, missing, duplicate, out_of_range, torn, reordered, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Started.UnixNano(), r.Role, r.Name, r.Mode.String(),
		r.Capacity, r.Records, r.PID,
		int64(r.Metrics.Elapsed), r.Metrics.Throughput,
		missing, duplicate, outOfRange, torn, reordered, string(b))
	if err != nil {
		return fmt.Errorf("failed to archive %s report: %w", r.Role, err)
	}
	return nil
}

// Run is one archived row.
type Run struct {
	ID         int64
	Started    time.Time
	Role       string
	Name       string
	Mode       string
	Records    uint32
	Elapsed    time.Duration
	Throughput float64
	Missing    sql.NullInt64
	Duplicate  sql.NullInt64
}

// Recent returns up to limit rows, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, started, role, name, mode, records, elapsed_ns, throughput, missing, duplicate
		FROM runs
		ORDER BY started DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started int64
		var elapsed int64
		if err := rows.Scan(&run.ID, &started, &run.Role, &run.Name, &run.Mode, &run.Records,
			&elapsed, &run.Throughput, &run.Missing, &run.Duplicate); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		run.Started = time.Unix(0, started).UTC()
		run.Elapsed = time.Duration(elapsed)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Report returns the full archived report of a row.
func (a *Archive) Report(ctx context.Context, id int64) (*Report, error) {
	var raw string
	if err := a.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	return ReadJSON([]byte(raw))
}
