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

import "math"

// Guard raises unsafe values of c to their minimum safe thresholds.
//
// Memory is raised to max(MemoryRange.Min, trunc(max_rss_bytes*safeMultiplier/GiB)).
// Then, when cpu_req < concurrency/4, cpu_req is raised to max(1, concurrency/4)
// using integer division. Values are only ever raised and are not re-clamped
// against the upper search bounds.
func Guard(c Candidate, ctx Context, safeMultiplier float64) Candidate {
	rss := ctx.Float(KeyMaxRSSBytes, 0)
	minMem := math.Max(MemoryRange.Min, math.Trunc(rss*safeMultiplier/bytesPerGiB))
	if c.MemReqGB < minMem {
		c.MemReqGB = minMem
	}

	if c.CPUReq < float64(c.Concurrency)/4 {
		c.CPUReq = math.Max(1, float64(c.Concurrency/4))
	}

	return c
}

// Guard applies the safety floors with the engine's safe multiplier.
func (e *Engine) Guard(c Candidate, ctx Context) Candidate {
	return Guard(c, ctx, e.cfg.SafeMultiplier)
}

// ApplyConstraints clamps concurrency down to MaxConcurrency and raises
// memory up to MinRAMGB on every candidate in place. Neither adjustment is
// checked against the search bounds: an explicit caller override wins.
func ApplyConstraints(candidates []Candidate, cons Constraints) {
	if cons.MaxConcurrency != 0 {
		for i := range candidates {
			candidates[i].Concurrency = min(candidates[i].Concurrency, cons.MaxConcurrency)
		}
	}

	if cons.MinRAMGB != 0 {
		for i := range candidates {
			candidates[i].MemReqGB = max(candidates[i].MemReqGB, cons.MinRAMGB)
		}
	}
}
