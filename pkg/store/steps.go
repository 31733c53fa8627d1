// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/inframind/build-advisor/pkg/errors"
)

// StartStep records the start of a step. Starting a known step again
// replaces its start time and span ID.
func (s *Store) StartStep(ctx context.Context, runID, stage, step, spanID string, ts time.Time) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}

	_, err := s.exec(ctx, `
		INSERT INTO steps (run_id, stage, step, span_id, start_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id, stage, step) DO UPDATE SET span_id = excluded.span_id, start_ts = excluded.start_ts`,
		runID, stage, step, spanID, formatTime(ts))
	if err != nil {
		return dbError("start step", err)
	}
	return nil
}

// StopStep records the end of a started step and its counters.
func (s *Store) StopStep(ctx context.Context, runID, stage, step string, ts time.Time, c Counters) error {
	res, err := s.exec(ctx, `
		UPDATE steps SET end_ts = ?, cpu_time_s = ?, rss_max_bytes = ?, io_r_bytes = ?, io_w_bytes = ?,
			cache_hits = ?, cache_misses = ?
		WHERE run_id = ? AND stage = ? AND step = ?`,
		formatTime(ts), c.CPUTimeS, c.RSSMaxBytes, c.IOReadBytes, c.IOWriteBytes, c.CacheHits, c.CacheMisses,
		runID, stage, step)
	if err != nil {
		return dbError("stop step", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewWithContext(errors.ErrCodeNotFound, "step not found",
			map[string]any{"run_id": runID, "stage": stage, "step": step})
	}
	return nil
}

// ListSteps returns the steps of runID in insertion order.
func (s *Store) ListSteps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.query(ctx, `
		SELECT id, run_id, stage, step, span_id, start_ts, end_ts, cpu_time_s, rss_max_bytes,
			io_r_bytes, io_w_bytes, cache_hits, cache_misses
		FROM steps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, dbError("list steps", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			st         Step
			start, end sql.NullString
		)
		if err := rows.Scan(&st.ID, &st.RunID, &st.Stage, &st.Step, &st.SpanID, &start, &end,
			&st.CPUTimeS, &st.RSSMaxBytes, &st.IOReadBytes, &st.IOWriteBytes, &st.CacheHits, &st.CacheMisses); err != nil {
			return nil, dbError("list steps", err)
		}
		if st.StartTS, err = parseNullTime(start); err != nil {
			return nil, dbError("list steps", err)
		}
		if st.EndTS, err = parseNullTime(end); err != nil {
			return nil, dbError("list steps", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list steps", err)
	}
	return steps, nil
}
