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

import "github.com/inframind/build-advisor/pkg/optimizer"

// Feature is one input of the duration model and its value when absent.
type Feature struct {
	Name    string
	Default float64
}

// Features is the fixed input order shared by training and prediction.
var Features = []Feature{
	{Name: optimizer.KeyCPUReq, Default: 4},
	{Name: optimizer.KeyMemReqGB, Default: 8},
	{Name: optimizer.KeyConcurrency, Default: 4},
	{Name: optimizer.KeyMaxRSSGB, Default: 4},
	{Name: "io_read_gb", Default: 1},
	{Name: "io_write_gb", Default: 0.5},
	{Name: "cache_hit_ratio", Default: 0.5},
	{Name: optimizer.KeyNumSteps, Default: 10},
	{Name: optimizer.KeyAvgStepDurationS, Default: 30},
}

// FeatureNames returns the names of Features in order.
func FeatureNames() []string {
	names := make([]string, len(Features))
	for i, f := range Features {
		names[i] = f.Name
	}
	return names
}

// Vector builds the model input for candidate under c. Candidate fields win
// over the same keys in c.
func Vector(c optimizer.Context, candidate optimizer.Candidate) []float64 {
	return ContextVector(c.Merge(candidate.Context()))
}

// ContextVector reads Features from c alone.
func ContextVector(c optimizer.Context) []float64 {
	x := make([]float64, len(Features))
	for i, f := range Features {
		x[i] = c.Float(f.Name, f.Default)
	}
	return x
}
