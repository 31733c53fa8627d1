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

package advisor

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/features"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/store"
)

// Optimize suggests a configuration for the next build of req.Pipeline.
//
// The context is assembled from the stored features of req.RunID, then the
// caller's keys, then last_success from the pipeline's latest successful run
// when the caller did not give one. The result is cached as the pipeline's
// last suggestion and stored when the pipeline is known.
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResponse, error) {
	if err := validateOptimize(req); err != nil {
		return nil, err
	}

	c := s.buildContext(ctx, req)

	sctx, cancel := context.WithTimeout(ctx, defaults.SuggestTimeout)
	defer cancel()

	sug, err := s.engine.Suggest(sctx, c, req.Constraints)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, "suggestion timed out", err)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "suggestion cancelled", err)
	}
	suggestionsTotal.Inc()

	resp := &OptimizeResponse{
		Suggestions:       sug.Config,
		Rationale:         sug.Rationale,
		Confidence:        sug.Confidence,
		PredictedDuration: sug.PredictedSeconds,
		Evaluated:         sug.Evaluated,
		ModelVersion:      sug.ModelVersion,
		SuggestionID:      uuid.New().String(),
		Pipeline:          req.Pipeline,
		CreatedAt:         s.now().UTC(),
	}

	id, err := s.store.SaveSuggestion(ctx, store.SuggestionRecord{
		Pipeline: req.Pipeline,
		RunID:    req.RunID,
		Payload: map[string]any{
			"suggestion_id": resp.SuggestionID,
			"suggestions":   sug.Config,
			"rationale":     sug.Rationale,
			"confidence":    sug.Confidence,
			"model_version": sug.ModelVersion,
			"context":       c,
		},
		CreatedAt: resp.CreatedAt,
	})
	switch {
	case err == nil:
		resp.RecordID = id
	case errors.IsCode(err, errors.ErrCodeNotFound):
		slog.Debug("pipeline unknown, suggestion not stored", "pipeline", req.Pipeline)
	default:
		slog.Warn("failed to store suggestion", "pipeline", req.Pipeline, "error", err)
	}

	cacheSet(ctx, s.cache, cache.LastSuggestionKey(req.Pipeline), resp, 0)

	slog.Info("suggestion served",
		"pipeline", req.Pipeline,
		"run_id", req.RunID,
		"suggestion_id", resp.SuggestionID,
		"predicted_s", resp.PredictedDuration,
		"model_version", resp.ModelVersion)

	return resp, nil
}

// LastSuggestion returns the most recent suggestion served for pipeline.
func (s *Service) LastSuggestion(ctx context.Context, pipeline string) (*OptimizeResponse, error) {
	if pipeline == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "pipeline is required")
	}
	resp, ok := cacheGet[OptimizeResponse](ctx, s.cache, cache.LastSuggestionKey(pipeline))
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "no suggestion for pipeline",
			map[string]any{"pipeline": pipeline})
	}
	return &resp, nil
}

// SuggestionHistory returns stored suggestions of pipeline, newest first.
func (s *Service) SuggestionHistory(ctx context.Context, pipeline string, limit int) ([]store.SuggestionRecord, error) {
	if limit <= 0 {
		limit = defaults.SuggestionListLimit
	}
	if _, err := s.store.GetPipeline(ctx, pipeline); err != nil {
		return nil, err
	}
	return s.store.ListSuggestions(ctx, pipeline, limit)
}

// MarkApplied records that a stored suggestion was used for a build.
func (s *Service) MarkApplied(ctx context.Context, id int64) error {
	return s.store.MarkSuggestionApplied(ctx, id)
}

func validateOptimize(req OptimizeRequest) error {
	if req.Pipeline == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "pipeline is required")
	}
	if req.Constraints.MaxConcurrency < 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "max_concurrency must not be negative",
			map[string]any{"max_concurrency": req.Constraints.MaxConcurrency})
	}
	if req.Constraints.MinRAMGB < 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "min_ram_gb must not be negative",
			map[string]any{"min_ram_gb": req.Constraints.MinRAMGB})
	}
	return nil
}

// buildContext merges stored run features under the caller's context and
// fills in last_success. Lookup failures only reduce what is known.
func (s *Service) buildContext(ctx context.Context, req OptimizeRequest) optimizer.Context {
	c := optimizer.Context{}
	if req.RunID != "" {
		rec, err := s.Features(ctx, req.RunID)
		switch {
		case err == nil:
			c = c.Merge(rec.Vector)
		case errors.IsCode(err, errors.ErrCodeNotFound):
		default:
			slog.Warn("failed to load run features", "run_id", req.RunID, "error", err)
		}
	}
	c = c.Merge(req.Context)

	if _, ok := c[optimizer.KeyLastSuccess]; !ok {
		run, err := s.store.LastSuccessfulRun(ctx, req.Pipeline)
		switch {
		case err == nil:
			c[optimizer.KeyLastSuccess] = features.LastSuccess(run)
		case errors.IsCode(err, errors.ErrCodeNotFound):
		default:
			slog.Warn("failed to load last successful run", "pipeline", req.Pipeline, "error", err)
		}
	}
	return c
}
