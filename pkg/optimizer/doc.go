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


// Package optimizer implements the build resource suggestion engine.
//
// The engine performs a bounded local search around a baseline configuration,
// applies hard safety floors to every candidate, scores each candidate with a
// duration Predictor and returns the fastest one together with a rationale
// and a coarse confidence score.
//
// # Flow
//
//	Suggest → Candidates → ApplyConstraints → Guard (per candidate) → Predictor → pick minimum
//
// # Usage
//
//	engine := optimizer.New(predictor,
//	    optimizer.WithConfig(optimizer.Config{SafeMultiplier: 1.2, ExplorationRate: 0.15}),
//	    optimizer.WithSeed(42),
//	)
//
//	s, err := engine.Suggest(ctx, optimizer.Context{
//	    "max_rss_gb":          4.0,
//	    "num_steps":           5,
//	    "avg_step_duration_s": 60,
//	}, optimizer.Constraints{MaxConcurrency: 8})
//
// # Determinism
//
// The grid portion of the search is fully deterministic given the baseline.
// Only the optional exploration candidate is random; its source is injected
// with WithRand or WithSeed so tests can pin it, or disabled entirely with an
// ExplorationRate of zero.
//
// # Concurrency
//
// An Engine holds no per-request state and is safe for concurrent use. The
// random source is guarded internally. Predictors must be safe for
// concurrent use because candidates are scored in parallel.
package optimizer
