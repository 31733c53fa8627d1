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

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/store"
)

// AlgoRidge names the regression recorded for trained models.
const AlgoRidge = "ridge"

// Train fits a model on the most recent successful runs, saves the
// artifact, records it in the store and, unless told otherwise, makes it
// the active version.
func (s *Service) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	if req.Limit < 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "limit must not be negative",
			map[string]any{"limit": req.Limit})
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaults.TrainingRunLimit
	}

	rows, err := s.store.TrainingRows(ctx, req.Pipeline, limit)
	if err != nil {
		return nil, err
	}
	samples := make([]model.Sample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, model.Sample{
			Features:  optimizer.Context(r.Vector),
			DurationS: r.DurationS,
		})
	}

	opts := append([]model.TrainOption{model.WithClock(s.now)}, s.trainOpts...)
	m, metrics, err := model.Train(samples, opts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, "training cancelled", err)
	}

	if err := s.registry.Save(m, metrics); err != nil {
		return nil, err
	}
	if err := s.store.SaveModel(ctx, store.ModelRecord{
		Version: m.ModelVersion,
		Algo:    AlgoRidge,
		Metrics: metricsMap(metrics),
	}); err != nil {
		return nil, err
	}

	res := &TrainResult{
		Version: m.ModelVersion,
		Algo:    AlgoRidge,
		Metrics: metrics,
	}
	if files, err := s.registry.Files(m.ModelVersion); err == nil {
		res.Files = files
	}

	if req.Activate == nil || *req.Activate {
		if err := s.versions.SetActiveVersion(ctx, m.ModelVersion); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to activate model", err)
		}
		res.Activated = true
	}

	slog.Info("model trained",
		"version", res.Version,
		"pipeline", req.Pipeline,
		"samples", metrics.NSamples,
		"mae", metrics.MAE,
		"r2", metrics.R2,
		"activated", res.Activated)

	return res, nil
}

// Activate makes a saved model version the active one.
func (s *Service) Activate(ctx context.Context, version string) error {
	if err := model.ValidateVersion(version); err != nil {
		return err
	}
	if _, err := s.registry.Metrics(version); err != nil {
		return err
	}
	return s.versions.SetActiveVersion(ctx, version)
}

// Models lists trained models and the active version.
func (s *Service) Models(ctx context.Context) (*ModelsResponse, error) {
	active, err := s.versions.ActiveVersion(ctx)
	if err != nil {
		slog.Warn("active model version unavailable", "error", err)
	}

	versions, err := s.registry.Versions()
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	if versions == nil {
		versions = []string{}
	}
	if records == nil {
		records = []store.ModelRecord{}
	}
	return &ModelsResponse{Active: active, Versions: versions, Models: records}, nil
}

func metricsMap(m model.Metrics) map[string]any {
	return map[string]any{
		"mae":        m.MAE,
		"r2":         m.R2,
		"n_samples":  m.NSamples,
		"n_features": m.NFeatures,
	}
}
