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
	"log/slog"
	"math"

	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/features"
	"github.com/inframind/build-advisor/pkg/store"
)

// StartBuild records a new run, creating its pipeline on first sight.
func (s *Service) StartBuild(ctx context.Context, req BuildStartRequest) (store.Run, error) {
	if req.Pipeline == "" {
		return store.Run{}, errors.New(errors.ErrCodeInvalidRequest, "pipeline is required")
	}
	if req.RunID == "" {
		return store.Run{}, errors.New(errors.ErrCodeInvalidRequest, "run_id is required")
	}
	res := req.RequestedResources
	if res.CPU < 0 || res.MemGB < 0 || res.Concurrency < 0 {
		return store.Run{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"requested resources must not be negative", map[string]any{
				"cpu":         res.CPU,
				"mem_gb":      res.MemGB,
				"concurrency": res.Concurrency,
			})
	}

	started := req.StartedAt
	if started.IsZero() {
		started = s.now()
	}

	run, err := s.store.CreateRun(ctx, store.Run{
		Pipeline:    req.Pipeline,
		RunID:       req.RunID,
		Status:      store.StatusRunning,
		StartedAt:   started,
		Image:       req.Image,
		Node:        req.Node,
		Branch:      req.Branch,
		Commit:      req.Commit,
		Git:         req.Git,
		Tools:       req.Tools,
		CPUReq:      res.CPU,
		MemReqGB:    res.MemGB,
		Concurrency: res.Concurrency,
		Cache:       req.Cache,
	})
	if err != nil {
		return store.Run{}, err
	}
	buildEvents.WithLabelValues("start").Inc()

	slog.Info("build started", "pipeline", req.Pipeline, "run_id", req.RunID, "image", req.Image)
	return run, nil
}

// RecordStep records a step start or stop. A stop for a step that never
// started is not found.
func (s *Service) RecordStep(ctx context.Context, req BuildStepRequest) error {
	if req.RunID == "" || req.Stage == "" || req.Step == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "run_id, stage and step are required")
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	switch req.Event {
	case EventStart:
		if err := s.store.StartStep(ctx, req.RunID, req.Stage, req.Step, req.SpanID, ts); err != nil {
			return err
		}
	case EventStop:
		if err := validateCounters(req.Counters); err != nil {
			return err
		}
		if err := s.store.StopStep(ctx, req.RunID, req.Stage, req.Step, ts, req.Counters); err != nil {
			return err
		}
	default:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "event must be start or stop",
			map[string]any{"event": req.Event})
	}
	buildEvents.WithLabelValues("step_" + req.Event).Inc()

	slog.Debug("build step recorded",
		"run_id", req.RunID,
		"stage", req.Stage,
		"step", req.Step,
		"event", req.Event)
	return nil
}

// CompleteBuild finishes a run, then computes, stores and caches its features.
func (s *Service) CompleteBuild(ctx context.Context, req BuildCompleteRequest) (*BuildCompleteResponse, error) {
	if req.RunID == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "run_id is required")
	}
	if !store.ValidCompletionStatus(req.Status) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"status must be one of success, failure, aborted", map[string]any{"status": req.Status})
	}
	if req.DurationS == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "duration_s is required")
	}
	if d := *req.DurationS; d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "duration_s must be a non-negative number",
			map[string]any{"duration_s": d})
	}

	var artifactBytes int64
	for _, a := range req.Artifacts {
		if a.Size > 0 {
			artifactBytes += int64(a.Size)
		}
	}

	cacheSettings := req.Cache
	if len(cacheSettings) == 0 {
		// keep what the run started with
		prev, err := s.store.GetRun(ctx, req.RunID)
		if err != nil {
			return nil, err
		}
		cacheSettings = prev.Cache
	}

	run, err := s.store.CompleteRun(ctx, req.RunID, store.Completion{
		Status:        req.Status,
		DurationS:     *req.DurationS,
		ArtifactBytes: artifactBytes,
		Cache:         cacheSettings,
		FinishedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	buildEvents.WithLabelValues("complete").Inc()

	steps, err := s.store.ListSteps(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	vector := features.Compute(run, steps)
	label := features.Label(run)
	if err := s.store.SaveFeatures(ctx, req.RunID, vector, label); err != nil {
		return nil, err
	}

	rec := store.FeatureRecord{
		RunID:     req.RunID,
		Vector:    vector,
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	cacheSet(ctx, s.cache, cache.FeatureKey(req.RunID), rec, s.featureTTL)

	slog.Info("build completed",
		"run_id", req.RunID,
		"status", req.Status,
		"duration_s", *req.DurationS,
		"steps", len(steps))

	return &BuildCompleteResponse{OK: true, RunID: req.RunID, Features: vector}, nil
}

// Features returns the features of runID, from the cache when possible.
func (s *Service) Features(ctx context.Context, runID string) (store.FeatureRecord, error) {
	if runID == "" {
		return store.FeatureRecord{}, errors.New(errors.ErrCodeInvalidRequest, "run_id is required")
	}

	key := cache.FeatureKey(runID)
	if rec, ok := cacheGet[store.FeatureRecord](ctx, s.cache, key); ok {
		return rec, nil
	}

	rec, err := s.store.GetFeatures(ctx, runID)
	if err != nil {
		return store.FeatureRecord{}, err
	}
	cacheSet(ctx, s.cache, key, rec, s.featureTTL)
	return rec, nil
}

// ComputeFeatures recomputes the features of runID from its stored run and
// steps without saving them.
func (s *Service) ComputeFeatures(ctx context.Context, runID string) (store.FeatureRecord, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return store.FeatureRecord{}, err
	}
	steps, err := s.store.ListSteps(ctx, runID)
	if err != nil {
		return store.FeatureRecord{}, err
	}
	return store.FeatureRecord{
		RunID:     runID,
		Vector:    features.Compute(run, steps),
		Label:     features.Label(run),
		CreatedAt: s.now().UTC(),
	}, nil
}

func validateCounters(c store.Counters) error {
	if c.CPUTimeS < 0 || c.RSSMaxBytes < 0 || c.IOReadBytes < 0 || c.IOWriteBytes < 0 ||
		c.CacheHits < 0 || c.CacheMisses < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "counters must not be negative")
	}
	return nil
}
