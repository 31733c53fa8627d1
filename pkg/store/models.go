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
	"encoding/json"
	"time"

	"github.com/inframind/build-advisor/pkg/errors"
)

// SaveModel records a trained model, replacing the entry of the same version.
func (s *Store) SaveModel(ctx context.Context, rec ModelRecord) error {
	if rec.Version == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "model version is required")
	}
	metrics, err := json.Marshal(nonNilMap(rec.Metrics))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "model metrics are not serializable", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = s.exec(ctx, `
		INSERT INTO models (version, algo, metrics, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (version) DO UPDATE SET algo = excluded.algo, metrics = excluded.metrics,
			created_at = excluded.created_at`,
		rec.Version, rec.Algo, string(metrics), formatTime(rec.CreatedAt))
	if err != nil {
		return dbError("save model", err)
	}
	return nil
}

// ListModels returns recorded models, newest first.
func (s *Store) ListModels(ctx context.Context) ([]ModelRecord, error) {
	rows, err := s.query(ctx, `SELECT id, version, algo, metrics, created_at FROM models ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, dbError("list models", err)
	}
	defer rows.Close()

	var out []ModelRecord
	for rows.Next() {
		var (
			rec     ModelRecord
			metrics string
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.Version, &rec.Algo, &metrics, &created); err != nil {
			return nil, dbError("list models", err)
		}
		if err := decodeJSON(metrics, &rec.Metrics); err != nil {
			return nil, dbError("list models", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, dbError("list models", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list models", err)
	}
	return out, nil
}
