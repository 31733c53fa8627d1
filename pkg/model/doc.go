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


// Package model predicts build durations for candidate configurations.
//
// A Model maps a fixed-order feature vector (see Features) to seconds. Two
// variants exist: Linear, a ridge regression trained by Train and persisted
// by a Registry, and Untrained, which stands in for a version with no
// artifact on disk.
//
// Predictor adapts a Registry and a VersionSource to the optimizer's
// Predictor interface. It resolves the active version once per Pin call and
// falls back to avg_step_duration_s × num_steps whenever the model cannot
// produce a finite answer:
//
//	reg := model.NewRegistry("./models")
//	p := model.NewPredictor(reg, model.NewStaticVersion("v1"), model.DefaultVersion)
//	engine := optimizer.New(p)
//
// Artifacts are stored as model_<version>.json with evaluation results in
// model_<version>.metrics.json.
package model
