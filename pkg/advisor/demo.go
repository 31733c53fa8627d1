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
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/store"
)

// Demo data defaults.
const (
	DemoPipeline = "demo/example-app"
	DemoRepo     = "https://github.com/demo/example-app"
	DemoRuns     = 50

	demoBaseDurationS = 600.0
	demoMinDurationS  = 60.0
)

type demoStage struct {
	name      string
	baseS     float64
	baseRSSMB float64
}

var demoStages = []demoStage{
	{"checkout", 5, 100},
	{"configure", 15, 200},
	{"build", 180, 2000},
	{"test", 120, 1500},
	{"package", 30, 500},
}

// DemoOptions controls demo data generation.
type DemoOptions struct {
	Pipeline string
	Runs     int
	// Seed makes the generated runs reproducible. Zero picks a time based seed.
	Seed uint64
}

// DemoResult lists the generated runs.
type DemoResult struct {
	Pipeline string   `json:"pipeline" yaml:"pipeline"`
	RunIDs   []string `json:"run_ids" yaml:"run_ids"`
}

// SeedDemo ingests synthetic successful runs whose duration shrinks as
// resources grow, one day apart and ending now. Runs go through the same
// start, step and complete path as real telemetry so features are computed.
func (s *Service) SeedDemo(ctx context.Context, opts DemoOptions) (*DemoResult, error) {
	if opts.Pipeline == "" {
		opts.Pipeline = DemoPipeline
	}
	if opts.Runs == 0 {
		opts.Runs = DemoRuns
	}
	if opts.Runs < 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "runs must not be negative",
			map[string]any{"runs": opts.Runs})
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(s.now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	now := s.now().UTC()
	res := &DemoResult{Pipeline: opts.Pipeline, RunIDs: make([]string, 0, opts.Runs)}

	for i := range opts.Runs {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, "demo seeding cancelled", err)
		}

		runID := demoRunID(opts.Pipeline, seed, i)
		started := now.Add(-time.Duration(opts.Runs-i) * 24 * time.Hour)
		if err := s.seedRun(ctx, rng, opts.Pipeline, runID, i, started); err != nil {
			return nil, err
		}
		res.RunIDs = append(res.RunIDs, runID)
	}

	slog.Info("demo data seeded", "pipeline", opts.Pipeline, "runs", len(res.RunIDs), "seed", seed)
	return res, nil
}

// demoRunID derives a stable run ID from the pipeline, seed and index.
func demoRunID(pipeline string, seed uint64, i int) string {
	name := fmt.Sprintf("%s/%d/%d", pipeline, seed, i)
	return "demo-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (s *Service) seedRun(ctx context.Context, rng *rand.Rand, pipeline, runID string, i int, started time.Time) error {
	pick := func(vals ...int) int { return vals[rng.IntN(len(vals))] }

	conc := pick(2, 4, 6, 8)
	cpu := float64(pick(2, 4, 6, 8))
	mem := float64(pick(4, 8, 16, 32))

	factor := (16 / cpu) * (32 / mem) * (8 / float64(conc))
	duration := math.Max(demoMinDurationS, demoBaseDurationS*factor+rng.NormFloat64()*30)

	if _, err := s.StartBuild(ctx, BuildStartRequest{
		Pipeline: pipeline,
		RunID:    runID,
		Git:      DemoRepo,
		Branch:   "main",
		Commit:   fmt.Sprintf("abc%03d", i),
		Image:    fmt.Sprintf("builder:v%s", []string{"1.0", "1.1", "2.0"}[rng.IntN(3)]),
		Node:     fmt.Sprintf("node-%d", 1+rng.IntN(5)),
		RequestedResources: Resources{
			CPU:         cpu,
			MemGB:       mem,
			Concurrency: conc,
		},
		StartedAt: started,
	}); err != nil {
		return err
	}

	ts := started
	for _, st := range demoStages {
		stepS := math.Max(1, st.baseS*(factor*0.5+0.5)+rng.NormFloat64()*5)
		end := ts.Add(time.Duration(stepS * float64(time.Second)))

		if err := s.RecordStep(ctx, BuildStepRequest{
			RunID:     runID,
			Stage:     st.name,
			Step:      st.name,
			SpanID:    fmt.Sprintf("span-%d-%s", i, st.name),
			Event:     EventStart,
			Timestamp: ts,
		}); err != nil {
			return err
		}
		if err := s.RecordStep(ctx, BuildStepRequest{
			RunID:     runID,
			Stage:     st.name,
			Step:      st.name,
			Event:     EventStop,
			Timestamp: end,
			Counters: store.Counters{
				CPUTimeS:     stepS * 0.8,
				RSSMaxBytes:  int64(st.baseRSSMB * (1 << 20) * (0.8 + 0.4*rng.Float64())),
				IOReadBytes:  1_000_000 + rng.Int64N(99_000_000),
				IOWriteBytes: 100_000 + rng.Int64N(9_900_000),
				CacheHits:    50 + rng.Int64N(151),
				CacheMisses:  10 + rng.Int64N(41),
			},
		}); err != nil {
			return err
		}
		ts = end
	}

	_, err := s.CompleteBuild(ctx, BuildCompleteRequest{
		RunID:     runID,
		Status:    store.StatusSuccess,
		DurationS: &duration,
		Artifacts: []Artifact{{Name: "image", Size: float64(100_000_000 + rng.Int64N(400_000_000))}},
	})
	return err
}
