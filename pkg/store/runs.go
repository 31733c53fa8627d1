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

const defaultRepo = "unknown"

// EnsurePipeline returns the pipeline called name, creating it on first sight.
// The repo of an existing pipeline is left unchanged.
func (s *Store) EnsurePipeline(ctx context.Context, name, repo string) (Pipeline, error) {
	if name == "" {
		return Pipeline{}, errors.New(errors.ErrCodeInvalidRequest, "pipeline name is required")
	}
	if repo == "" {
		repo = defaultRepo
	}

	_, err := s.exec(ctx,
		`INSERT INTO pipelines (name, repo, created_at) VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`,
		name, repo, formatTime(time.Now()))
	if err != nil {
		return Pipeline{}, dbError("ensure pipeline", err)
	}

	return s.GetPipeline(ctx, name)
}

// GetPipeline returns the pipeline called name.
func (s *Store) GetPipeline(ctx context.Context, name string) (Pipeline, error) {
	var (
		p       Pipeline
		created string
	)
	err := s.queryRow(ctx, `SELECT id, name, repo, created_at FROM pipelines WHERE name = ?`, name).
		Scan(&p.ID, &p.Name, &p.Repo, &created)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Pipeline{}, errors.NewWithContext(errors.ErrCodeNotFound, "pipeline not found",
			map[string]any{"pipeline": name})
	}
	if err != nil {
		return Pipeline{}, dbError("get pipeline", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return Pipeline{}, dbError("get pipeline", err)
	}
	return p, nil
}

// CreateRun records a new run of r.Pipeline, creating the pipeline when needed.
// Status defaults to running and StartedAt to now. A duplicate run ID is a conflict.
func (s *Store) CreateRun(ctx context.Context, r Run) (Run, error) {
	if r.RunID == "" {
		return Run{}, errors.New(errors.ErrCodeInvalidRequest, "run_id is required")
	}

	p, err := s.EnsurePipeline(ctx, r.Pipeline, r.Git)
	if err != nil {
		return Run{}, err
	}
	r.PipelineID = p.ID

	if r.Status == "" {
		r.Status = StatusRunning
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.StartedAt = r.StartedAt.UTC()

	tools, err := json.Marshal(nonNilStrings(r.Tools))
	if err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid tools", err)
	}
	cache, err := json.Marshal(nonNilMap(r.Cache))
	if err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid cache settings", err)
	}

	err = s.queryRow(ctx, `
		INSERT INTO runs (pipeline_id, run_id, status, started_at, image, node, branch, git_commit, git,
			tools, cpu_req, mem_req_gb, concurrency, artifact_bytes, cache)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO NOTHING
		RETURNING id`,
		r.PipelineID, r.RunID, r.Status, formatTime(r.StartedAt), r.Image, r.Node, r.Branch, r.Commit, r.Git,
		string(tools), r.CPUReq, r.MemReqGB, r.Concurrency, r.ArtifactBytes, string(cache)).
		Scan(&r.ID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.NewWithContext(errors.ErrCodeConflict, "run already exists",
			map[string]any{"run_id": r.RunID})
	}
	if err != nil {
		return Run{}, dbError("create run", err)
	}

	return r, nil
}

const runColumns = `r.id, r.pipeline_id, p.name, r.run_id, r.status, r.duration_s, r.started_at, r.finished_at,
	r.image, r.node, r.branch, r.git_commit, r.git, r.tools, r.cpu_req, r.mem_req_gb, r.concurrency,
	r.artifact_bytes, r.cache`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		duration sql.NullFloat64
		started  string
		finished sql.NullString
		tools    string
		cache    string
	)
	err := row.Scan(&r.ID, &r.PipelineID, &r.Pipeline, &r.RunID, &r.Status, &duration, &started, &finished,
		&r.Image, &r.Node, &r.Branch, &r.Commit, &r.Git, &tools, &r.CPUReq, &r.MemReqGB, &r.Concurrency,
		&r.ArtifactBytes, &cache)
	if err != nil {
		return Run{}, err
	}

	r.DurationS = nullFloat(duration)
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if r.FinishedAt, err = parseNullTime(finished); err != nil {
		return Run{}, err
	}
	if tools != "" {
		if err := json.Unmarshal([]byte(tools), &r.Tools); err != nil {
			return Run{}, err
		}
	}
	if cache != "" && cache != "{}" {
		if err := json.Unmarshal([]byte(cache), &r.Cache); err != nil {
			return Run{}, err
		}
	}
	return r, nil
}

// GetRun returns the run with runID.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.queryRow(ctx, `SELECT `+runColumns+`
		FROM runs r JOIN pipelines p ON p.id = r.pipeline_id
		WHERE r.run_id = ?`, runID)
	r, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.NewWithContext(errors.ErrCodeNotFound, "run not found",
			map[string]any{"run_id": runID})
	}
	if err != nil {
		return Run{}, dbError("get run", err)
	}
	return r, nil
}

// CompleteRun records the final state of runID and returns the updated run.
func (s *Store) CompleteRun(ctx context.Context, runID string, c Completion) (Run, error) {
	if !ValidCompletionStatus(c.Status) {
		return Run{}, errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid run status",
			map[string]any{"status": c.Status})
	}
	if c.FinishedAt.IsZero() {
		c.FinishedAt = time.Now()
	}
	cache, err := json.Marshal(nonNilMap(c.Cache))
	if err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid cache settings", err)
	}

	res, err := s.exec(ctx, `
		UPDATE runs SET status = ?, duration_s = ?, finished_at = ?, artifact_bytes = ?, cache = ?
		WHERE run_id = ?`,
		c.Status, c.DurationS, formatTime(c.FinishedAt), c.ArtifactBytes, string(cache), runID)
	if err != nil {
		return Run{}, dbError("complete run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Run{}, errors.NewWithContext(errors.ErrCodeNotFound, "run not found",
			map[string]any{"run_id": runID})
	}

	return s.GetRun(ctx, runID)
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r JOIN pipelines p ON p.id = r.pipeline_id WHERE 1 = 1`
	var args []any
	if f.Pipeline != "" {
		query += ` AND p.name = ?`
		args = append(args, f.Pipeline)
	}
	if f.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY r.started_at DESC, r.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, dbError("list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, dbError("list runs", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list runs", err)
	}
	return runs, nil
}

// LastSuccessfulRun returns the most recent successful run of pipeline.
func (s *Store) LastSuccessfulRun(ctx context.Context, pipeline string) (Run, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Pipeline: pipeline, Status: StatusSuccess, Limit: 1})
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, errors.NewWithContext(errors.ErrCodeNotFound, "no successful run",
			map[string]any{"pipeline": pipeline})
	}
	return runs[0], nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilMap(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
