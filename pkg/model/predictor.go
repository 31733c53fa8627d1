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

package model

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/inframind/build-advisor/pkg/optimizer"
)

// DefaultVersion is the model version used when nothing else is configured.
const DefaultVersion = "v1"

const (
	outcomeModel    = "model"
	outcomeFallback = "fallback"
)

// VersionSource resolves and records the active model version.
type VersionSource interface {
	ActiveVersion(ctx context.Context) (string, error)
	SetActiveVersion(ctx context.Context, version string) error
}

// StaticVersion is an in-process VersionSource.
type StaticVersion struct {
	mu      sync.RWMutex
	version string
}

// NewStaticVersion returns a VersionSource holding version.
func NewStaticVersion(version string) *StaticVersion {
	if version == "" {
		version = DefaultVersion
	}
	return &StaticVersion{version: version}
}

// ActiveVersion implements VersionSource.
func (s *StaticVersion) ActiveVersion(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

// SetActiveVersion implements VersionSource.
func (s *StaticVersion) SetActiveVersion(_ context.Context, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}
	s.mu.Lock()
	s.version = version
	s.mu.Unlock()
	return nil
}

// Predictor scores candidates with the active model from a registry. It never
// fails: any model problem degrades to the heuristic estimate.
type Predictor struct {
	registry        *Registry
	versions        VersionSource
	fallbackVersion string
}

// NewPredictor returns a predictor resolving versions from versions and
// artifacts from registry. A nil versions source pins fallbackVersion.
func NewPredictor(registry *Registry, versions VersionSource, fallbackVersion string) *Predictor {
	if fallbackVersion == "" {
		fallbackVersion = DefaultVersion
	}
	if versions == nil {
		versions = NewStaticVersion(fallbackVersion)
	}
	return &Predictor{
		registry:        registry,
		versions:        versions,
		fallbackVersion: fallbackVersion,
	}
}

// Resolve returns the model behind the active version. Lookup failures are
// logged and yield Untrained.
func (p *Predictor) Resolve(ctx context.Context) Model {
	version, err := p.versions.ActiveVersion(ctx)
	if err != nil || version == "" {
		if err != nil {
			slog.Warn("active model version unavailable", "error", err, "fallback", p.fallbackVersion)
		}
		version = p.fallbackVersion
	}

	if p.registry == nil {
		return NewUntrained(version)
	}

	m, err := p.registry.Load(version)
	if err != nil {
		slog.Warn("model load failed, using heuristic", "version", version, "error", err)
		return NewUntrained(version)
	}
	return m
}

// Pin implements optimizer.Pinner.
func (p *Predictor) Pin(ctx context.Context) optimizer.Predictor {
	return Bind(p.Resolve(ctx))
}

// Predict implements optimizer.Predictor, resolving the model on every call.
func (p *Predictor) Predict(ctx context.Context, c optimizer.Context, candidate optimizer.Candidate) float64 {
	return p.Pin(ctx).Predict(ctx, c, candidate)
}

// Bound is an optimizer.Predictor backed by one model.
type Bound struct {
	model Model
}

// Bind returns a predictor that always uses m.
func Bind(m Model) *Bound {
	return &Bound{model: m}
}

// Version implements optimizer.Versioned.
func (b *Bound) Version() string {
	return b.model.Version()
}

// Predict implements optimizer.Predictor. Errors, panics and non-finite
// outputs fall back to the heuristic. Results are never negative.
func (b *Bound) Predict(_ context.Context, c optimizer.Context, candidate optimizer.Candidate) float64 {
	y, err := safePredict(b.model, Vector(c, candidate))
	if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
		predictionsTotal.WithLabelValues(outcomeFallback).Inc()
		if err != nil && !stderrors.Is(err, ErrNotTrained) {
			slog.Debug("model prediction failed", "version", b.model.Version(), "error", err)
		}
		y = optimizer.HeuristicSeconds(c)
	} else {
		predictionsTotal.WithLabelValues(outcomeModel).Inc()
	}
	return math.Max(0, y)
}

func safePredict(m Model, x []float64) (y float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return m.Predict(x)
}
