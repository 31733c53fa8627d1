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
	stderrors "errors"
	"time"

	"github.com/inframind/build-advisor/pkg/errors"
)

// SaveFeatures stores the feature vector and label of runID, replacing earlier ones.
func (s *Store) SaveFeatures(ctx context.Context, runID string, vector, label map[string]any) error {
	v, err := json.Marshal(nonNilMap(vector))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "feature vector is not serializable", err)
	}
	var l sql.NullString
	if label != nil {
		b, err := json.Marshal(label)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, "feature label is not serializable", err)
		}
		l = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.exec(ctx, `
		INSERT INTO features (run_id, vector, label, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET vector = excluded.vector, label = excluded.label,
			created_at = excluded.created_at`,
		runID, string(v), l, formatTime(time.Now()))
	if err != nil {
		return dbError("save features", err)
	}
	return nil
}

// GetFeatures returns the stored features of runID.
func (s *Store) GetFeatures(ctx context.Context, runID string) (FeatureRecord, error) {
	var (
		rec     FeatureRecord
		vector  string
		label   sql.NullString
		created string
	)
	err := s.queryRow(ctx, `SELECT run_id, vector, label, created_at FROM features WHERE run_id = ?`, runID).
		Scan(&rec.RunID, &vector, &label, &created)
	if stderrors.Is(err, sql.ErrNoRows) {
		return FeatureRecord{}, errors.NewWithContext(errors.ErrCodeNotFound, "features not found",
			map[string]any{"run_id": runID})
	}
	if err != nil {
		return FeatureRecord{}, dbError("get features", err)
	}

	if err := decodeJSON(vector, &rec.Vector); err != nil {
		return FeatureRecord{}, dbError("get features", err)
	}
	if label.Valid {
		if err := decodeJSON(label.String, &rec.Label); err != nil {
			return FeatureRecord{}, dbError("get features", err)
		}
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return FeatureRecord{}, dbError("get features", err)
	}
	return rec, nil
}

// TrainingRows returns feature vectors of successful runs with a known
// duration, newest first. An empty pipeline selects every pipeline.
func (s *Store) TrainingRows(ctx context.Context, pipeline string, limit int) ([]TrainingRow, error) {
	query := `
		SELECT f.run_id, f.vector, r.duration_s
		FROM features f
		JOIN runs r ON r.run_id = f.run_id
		JOIN pipelines p ON p.id = r.pipeline_id
		WHERE r.status = ? AND r.duration_s IS NOT NULL`
	args := []any{StatusSuccess}
	if pipeline != "" {
		query += ` AND p.name = ?`
		args = append(args, pipeline)
	}
	query += ` ORDER BY r.started_at DESC, r.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, dbError("training rows", err)
	}
	defer rows.Close()

	var out []TrainingRow
	for rows.Next() {
		var (
			tr     TrainingRow
			vector string
		)
		if err := rows.Scan(&tr.RunID, &vector, &tr.DurationS); err != nil {
			return nil, dbError("training rows", err)
		}
		if err := decodeJSON(vector, &tr.Vector); err != nil {
			return nil, dbError("training rows", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("training rows", err)
	}
	return out, nil
}

func decodeJSON(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
