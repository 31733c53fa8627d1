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

package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	confidenceHigh = 0.7
	confidenceLow  = 0.5

	// confidenceThreshold is the candidate count above which confidenceHigh applies.
	confidenceThreshold = 5
)

type scored struct {
	candidate Candidate
	seconds   float64
}

// Suggest returns the candidate with the lowest predicted duration for c
// under cons. Ties go to the candidate generated first.
//
// Suggest only fails when ctx is cancelled; every other path yields a result.
func (e *Engine) Suggest(ctx context.Context, c Context, cons Constraints) (*Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("suggest cancelled: %w", err)
	}

	start := time.Now()
	defer func() {
		suggestDuration.Observe(time.Since(start).Seconds())
	}()

	candidates := e.Candidates(c)
	ApplyConstraints(candidates, cons)

	predictor := e.predictor
	if p, ok := predictor.(Pinner); ok {
		predictor = p.Pin(ctx)
	}

	results, err := e.score(ctx, predictor, c, candidates)
	if err != nil {
		return nil, err
	}

	best, bestSeconds := DefaultCandidate(), math.Inf(1)
	for _, r := range results {
		if r.seconds < bestSeconds {
			best, bestSeconds = r.candidate, r.seconds
		}
	}

	if math.IsInf(bestSeconds, 1) {
		slog.Warn("no candidates scored, using default configuration")
		best = DefaultCandidate()
		bestSeconds = HeuristicSeconds(c)
	}

	candidatesEvaluated.Observe(float64(len(results)))

	s := &Suggestion{
		Config:           best,
		PredictedSeconds: bestSeconds,
		Rationale:        e.rationale(c, bestSeconds, len(results)),
		Confidence:       confidenceFor(len(results)),
		Evaluated:        len(results),
	}
	if v, ok := predictor.(Versioned); ok {
		s.ModelVersion = v.Version()
	}

	slog.Debug("suggestion selected",
		"concurrency", best.Concurrency,
		"cpu_req", best.CPUReq,
		"mem_req_gb", best.MemReqGB,
		"predicted_s", bestSeconds,
		"evaluated", len(results))

	return s, nil
}

// score guards a copy of each candidate and predicts its duration.
// Results keep the order of candidates.
func (e *Engine) score(ctx context.Context, p Predictor, c Context, candidates []Candidate) ([]scored, error) {
	results := make([]scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			safe := Guard(cand, c, e.cfg.SafeMultiplier)
			results[i] = scored{candidate: safe, seconds: p.Predict(gctx, c, safe)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring cancelled: %w", err)
	}

	return results, nil
}

func (e *Engine) rationale(c Context, predicted float64, evaluated int) string {
	baseline := "unknown"
	if v, ok := c[KeyDurationS]; ok && v != nil {
		baseline = fmt.Sprintf("%v", v)
	}

	return fmt.Sprintf("Selected config with predicted duration=%.1fs (current baseline: %ss). "+
		"Evaluated %d candidates. Safety: mem >= %.1fGB * %v.",
		predicted, baseline, evaluated, c.Float(KeyMaxRSSGB, 0), e.cfg.SafeMultiplier)
}

// confidenceFor is a step function of the pool size, not a statistical measure.
func confidenceFor(evaluated int) float64 {
	if evaluated > confidenceThreshold {
		return confidenceHigh
	}
	return confidenceLow
}
