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
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noExploration() Option {
	return WithConfig(Config{SafeMultiplier: DefaultSafeMultiplier, ExplorationRate: 0})
}

func alwaysExplore(seed uint64) []Option {
	return []Option{
		WithConfig(Config{SafeMultiplier: DefaultSafeMultiplier, ExplorationRate: 1}),
		WithSeed(seed),
	}
}

func assertUnique(t *testing.T, candidates []Candidate) {
	t.Helper()
	seen := make(map[Candidate]int, len(candidates))
	for i, c := range candidates {
		if j, ok := seen[c]; ok {
			t.Fatalf("candidate %d duplicates candidate %d: %+v", i, j, c)
		}
		seen[c] = i
	}
}

func TestGridCandidates(t *testing.T) {
	tests := []struct {
		name    string
		base    Baseline
		wantLen int
		first   Candidate
	}{
		{
			name:    "default baseline has no collisions",
			base:    DefaultBaseline(),
			wantLen: 45,
			first:   Candidate{Concurrency: 2, CPUReq: 3, MemReqGB: 6, Cache: Cache{Enabled: true, SizeGB: 10}},
		},
		{
			name:    "lower corner collapses duplicates",
			base:    Baseline{Concurrency: 1, CPUReq: 1, MemReqGB: 2, CacheSizeGB: 5},
			wantLen: 12,
			first:   Candidate{Concurrency: 1, CPUReq: 1, MemReqGB: 2, Cache: Cache{Enabled: true, SizeGB: 5}},
		},
		{
			name:    "upper corner collapses duplicates",
			base:    Baseline{Concurrency: 16, CPUReq: 16, MemReqGB: 64, CacheSizeGB: 30},
			wantLen: 12,
			first:   Candidate{Concurrency: 14, CPUReq: 15, MemReqGB: 62, Cache: Cache{Enabled: true, SizeGB: 30}},
		},
		{
			name:    "fractional baseline truncates",
			base:    Baseline{Concurrency: 4.7, CPUReq: 2.5, MemReqGB: 7.9, CacheSizeGB: 10},
			wantLen: 45,
			first:   Candidate{Concurrency: 2, CPUReq: 1, MemReqGB: 5, Cache: Cache{Enabled: true, SizeGB: 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GridCandidates(tt.base)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.first, got[0])
			assertUnique(t, got)

			for _, c := range got {
				assert.True(t, ConcurrencyRange.Contains(float64(c.Concurrency)), "concurrency %d", c.Concurrency)
				assert.True(t, CPURange.Contains(c.CPUReq), "cpu %v", c.CPUReq)
				assert.True(t, MemoryRange.Contains(c.MemReqGB), "mem %v", c.MemReqGB)
				assert.True(t, c.Cache.Enabled)
				assert.Equal(t, tt.base.CacheSizeGB, c.Cache.SizeGB)
			}
		})
	}
}

func TestCandidates_CappedAndDeterministic(t *testing.T) {
	ctx := Context{}

	a := New(nil, noExploration()).Candidates(ctx)
	b := New(nil, noExploration()).Candidates(ctx)

	require.Len(t, a, MaxCandidates)
	assert.Equal(t, a, b)
	assert.Equal(t, GridCandidates(DefaultBaseline())[:MaxCandidates], a)
	assertUnique(t, a)
}

func TestCandidates_UsesLastSuccess(t *testing.T) {
	ctx := Context{KeyLastSuccess: map[string]any{
		"concurrency": 10, "cpu_req": 8, "mem_req_gb": 32, "cache_size_gb": 25,
	}}

	got := New(nil, noExploration()).Candidates(ctx)
	require.NotEmpty(t, got)
	assert.Equal(t, Candidate{Concurrency: 8, CPUReq: 7, MemReqGB: 30, Cache: Cache{Enabled: true, SizeGB: 25}}, got[0])
}

func TestCandidates_Exploration(t *testing.T) {
	ctx := Context{KeyLastSuccess: map[string]any{
		"concurrency": 1, "cpu_req": 1, "mem_req_gb": 2, "cache_size_gb": 5,
	}}

	for seed := uint64(1); seed <= 25; seed++ {
		got := New(nil, alwaysExplore(seed)...).Candidates(ctx)
		require.Len(t, got, 13, "seed %d", seed)

		explored := got[12]
		assert.True(t, ConcurrencyRange.Contains(float64(explored.Concurrency)))
		assert.True(t, CPURange.Contains(explored.CPUReq))
		assert.Contains(t, []float64{4, 8, 16, 32}, explored.MemReqGB)
		assert.Equal(t, Cache{Enabled: true, SizeGB: 10}, explored.Cache)
	}
}

func TestCandidates_ExplorationTruncatedOnFullGrid(t *testing.T) {
	got := New(nil, alwaysExplore(7)...).Candidates(Context{})
	require.Len(t, got, MaxCandidates)
	assert.Equal(t, GridCandidates(DefaultBaseline())[:MaxCandidates], got)
}

func TestCandidates_SeededExplorationRepeats(t *testing.T) {
	ctx := Context{KeyLastSuccess: map[string]any{"concurrency": 1, "cpu_req": 1, "mem_req_gb": 2}}

	r1 := rand.New(rand.NewPCG(3, 3))
	r2 := rand.New(rand.NewPCG(3, 3))
	opts := WithConfig(Config{SafeMultiplier: 1.2, ExplorationRate: 0.5})

	e1 := New(nil, opts, WithRand(r1))
	e2 := New(nil, opts, WithRand(r2))

	for range 10 {
		assert.True(t, slices.Equal(e1.Candidates(ctx), e2.Candidates(ctx)))
	}
}
