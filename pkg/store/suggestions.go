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
	"encoding/json"
	"time"

	"github.com/inframind/build-advisor/pkg/errors"
)

// SaveSuggestion persists rec for its pipeline, which must exist, and returns its ID.
func (s *Store) SaveSuggestion(ctx context.Context, rec SuggestionRecord) (int64, error) {
	p, err := s.GetPipeline(ctx, rec.Pipeline)
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(nonNilMap(rec.Payload))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidRequest, "suggestion payload is not serializable", err)
	}

	runID := sql.NullString{String: rec.RunID, Valid: rec.RunID != ""}
	applied := 0
	if rec.Applied {
		applied = 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var id int64
	err = s.queryRow(ctx, `
		INSERT INTO suggestions (pipeline_id, run_id, payload, applied, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		p.ID, runID, string(payload), applied, formatTime(rec.CreatedAt)).Scan(&id)
	if err != nil {
		return 0, dbError("save suggestion", err)
	}
	return id, nil
}

// ListSuggestions returns the suggestions of pipeline, newest first.
func (s *Store) ListSuggestions(ctx context.Context, pipeline string, limit int) ([]SuggestionRecord, error) {
	query := `
		SELECT s.id, p.name, s.run_id, s.payload, s.applied, s.created_at
		FROM suggestions s JOIN pipelines p ON p.id = s.pipeline_id
		WHERE p.name = ?
		ORDER BY s.created_at DESC, s.id DESC`
	args := []any{pipeline}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, dbError("list suggestions", err)
	}
	defer rows.Close()

	var out []SuggestionRecord
	for rows.Next() {
		var (
			rec     SuggestionRecord
			runID   sql.NullString
			payload string
			applied int64
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.Pipeline, &runID, &payload, &applied, &created); err != nil {
			return nil, dbError("list suggestions", err)
		}
		rec.RunID = runID.String
		rec.Applied = applied != 0
		if err := decodeJSON(payload, &rec.Payload); err != nil {
			return nil, dbError("list suggestions", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, dbError("list suggestions", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list suggestions", err)
	}
	return out, nil
}

// MarkSuggestionApplied flags a suggestion as applied by the pipeline.
func (s *Store) MarkSuggestionApplied(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `UPDATE suggestions SET applied = 1 WHERE id = ?`, id)
	if err != nil {
		return dbError("mark suggestion applied", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewWithContext(errors.ErrCodeNotFound, "suggestion not found",
			map[string]any{"id": id})
	}
	return nil
}
