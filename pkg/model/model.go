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
	stderrors "errors"
	"fmt"
	"math"
	"time"
)

// ErrNotTrained is returned by models that have no trained artifact behind them.
var ErrNotTrained = stderrors.New("model not trained")

// Model maps a feature vector to a build duration in seconds.
type Model interface {
	Predict(x []float64) (float64, error)
	Version() string
}

// Untrained stands in for a version with no persisted artifact.
// Predict always fails so callers use their heuristic.
type Untrained struct {
	version string
}

// NewUntrained returns the untrained placeholder for version.
func NewUntrained(version string) Untrained {
	return Untrained{version: version}
}

// Predict implements Model.
func (u Untrained) Predict([]float64) (float64, error) {
	return 0, ErrNotTrained
}

// Version implements Model.
func (u Untrained) Version() string {
	return u.version
}

// Linear is a ridge regression over standardized features.
//
//	y = Intercept + Σ Coefficients[i] * (x[i] - Means[i]) / Scales[i]
type Linear struct {
	ModelVersion string    `json:"version"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
	Lambda       float64   `json:"lambda"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Version implements Model.
func (m *Linear) Version() string {
	return m.ModelVersion
}

// Validate checks the parameter vectors agree in length and scales are usable.
func (m *Linear) Validate() error {
	n := len(m.Coefficients)
	if n == 0 {
		return fmt.Errorf("model %s has no coefficients", m.ModelVersion)
	}
	if len(m.Means) != n || len(m.Scales) != n {
		return fmt.Errorf("model %s: %d coefficients, %d means, %d scales",
			m.ModelVersion, n, len(m.Means), len(m.Scales))
	}
	if len(m.Features) != 0 && len(m.Features) != n {
		return fmt.Errorf("model %s: %d coefficients for %d features", m.ModelVersion, n, len(m.Features))
	}
	for i, s := range m.Scales {
		if s == 0 || math.IsNaN(s) {
			return fmt.Errorf("model %s: invalid scale for feature %d", m.ModelVersion, i)
		}
	}
	return nil
}

// Predict implements Model. A vector of the wrong length is an error.
func (m *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("feature shape mismatch: model %s expects %d features, got %d",
			m.ModelVersion, len(m.Coefficients), len(x))
	}
	y := m.Intercept
	for i, v := range x {
		y += m.Coefficients[i] * (v - m.Means[i]) / m.Scales[i]
	}
	return y, nil
}
