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

import "log/slog"

var (
	concurrencyOffsets = []float64{-2, -1, 0, 1, 2}
	cpuOffsets         = []float64{-1, 0, 1}
	memoryOffsets      = []float64{-2, 0, 2}

	explorationMemoryGB = []float64{4, 8, 16, 32}
)

const explorationCacheSizeGB = 10

// Candidates returns at most MaxCandidates configurations around the
// context's baseline, deduplicated in first-seen order, plus an optional
// random exploration candidate.
func (e *Engine) Candidates(c Context) []Candidate {
	candidates := GridCandidates(c.Baseline())

	if cand, ok := e.explore(); ok {
		// appended without a dedup pass
		candidates = append(candidates, cand)
		explorationTotal.Inc()
		slog.Debug("exploration candidate added",
			"concurrency", cand.Concurrency,
			"cpu_req", cand.CPUReq,
			"mem_req_gb", cand.MemReqGB)
	}

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}

	return candidates
}

// GridCandidates enumerates the deduplicated local grid around base.
// The result is deterministic and holds at most 45 entries.
func GridCandidates(base Baseline) []Candidate {
	candidates := make([]Candidate, 0, len(concurrencyOffsets)*len(cpuOffsets)*len(memoryOffsets))
	seen := make(map[Candidate]struct{}, cap(candidates))

	for _, dc := range concurrencyOffsets {
		for _, dcpu := range cpuOffsets {
			for _, dmem := range memoryOffsets {
				cand := Candidate{
					Concurrency: int(ConcurrencyRange.Clamp(base.Concurrency + dc)),
					CPUReq:      float64(int(CPURange.Clamp(base.CPUReq + dcpu))),
					MemReqGB:    float64(int(MemoryRange.Clamp(base.MemReqGB + dmem))),
					Cache: Cache{
						Enabled: true,
						SizeGB:  base.CacheSizeGB,
					},
				}
				if _, dup := seen[cand]; dup {
					continue
				}
				seen[cand] = struct{}{}
				candidates = append(candidates, cand)
			}
		}
	}

	return candidates
}

func (e *Engine) explore() (Candidate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() >= e.cfg.ExplorationRate {
		return Candidate{}, false
	}

	return Candidate{
		Concurrency: int(ConcurrencyRange.Min) + e.rng.IntN(int(ConcurrencyRange.Max-ConcurrencyRange.Min)+1),
		CPUReq:      float64(1 + e.rng.IntN(int(CPURange.Max))),
		MemReqGB:    explorationMemoryGB[e.rng.IntN(len(explorationMemoryGB))],
		Cache:       Cache{Enabled: true, SizeGB: explorationCacheSizeGB},
	}, true
}
