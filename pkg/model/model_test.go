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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframind/build-advisor/pkg/optimizer"
)

func TestLinearPredict(t *testing.T) {
	m := &Linear{
		ModelVersion: "vtest",
		Intercept:    100,
		Coefficients: []float64{10, -5},
		Means:        []float64{1, 2},
		Scales:       []float64{1, 2},
	}
	require.NoError(t, m.Validate())

	y, err := m.Predict([]float64{2, 6})
	require.NoError(t, err)
	assert.InDelta(t, 100+10*1-5*2, y, 1e-9)

	_, err = m.Predict([]float64{1, 2, 3})
	assert.ErrorContains(t, err, "shape mismatch")
}

func TestLinearValidate(t *testing.T) {
	tests := []struct {
		name    string
		model   Linear
		wantErr bool
	}{
		{"empty", Linear{}, true},
		{"length mismatch", Linear{Coefficients: []float64{1}, Means: []float64{0, 0}, Scales: []float64{1}}, true},
		{"zero scale", Linear{Coefficients: []float64{1}, Means: []float64{0}, Scales: []float64{0}}, true},
		{"feature count", Linear{Features: []string{"a", "b"}, Coefficients: []float64{1}, Means: []float64{0}, Scales: []float64{1}}, true},
		{"valid", Linear{Coefficients: []float64{1}, Means: []float64{0}, Scales: []float64{1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUntrained(t *testing.T) {
	u := NewUntrained("v1")
	assert.Equal(t, "v1", u.Version())
	_, err := u.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestVector(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		x := ContextVector(optimizer.Context{})
		assert.Equal(t, []float64{4, 8, 4, 4, 1, 0.5, 0.5, 10, 30}, x)
	})

	t.Run("candidate wins over context", func(t *testing.T) {
		c := optimizer.Context{
			"cpu_req":             1,
			"max_rss_gb":          2.5,
			"num_steps":           7,
			"avg_step_duration_s": 12.0,
		}
		cand := optimizer.Candidate{Concurrency: 6, CPUReq: 3, MemReqGB: 16}
		x := Vector(c, cand)
		assert.Equal(t, []float64{3, 16, 6, 2.5, 1, 0.5, 0.5, 7, 12}, x)
	})

	t.Run("names match order", func(t *testing.T) {
		names := FeatureNames()
		require.Len(t, names, len(Features))
		assert.Equal(t, "cpu_req", names[0])
		assert.Equal(t, "avg_step_duration_s", names[len(names)-1])
	})
}
