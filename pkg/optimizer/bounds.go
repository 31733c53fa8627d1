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

// Range is an inclusive (Min, Max) interval for a tunable parameter.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Search bounds for every tunable parameter.
var (
	ConcurrencyRange = Range{Min: 1, Max: 16}
	CPURange         = Range{Min: 1, Max: 16}
	MemoryRange      = Range{Min: 2, Max: 64}
	CacheSizeRange   = Range{Min: 1, Max: 30}
)

// Bounds returns the search bounds keyed by parameter name.
func Bounds() map[string]Range {
	return map[string]Range{
		KeyConcurrency: ConcurrencyRange,
		KeyCPUReq:      CPURange,
		KeyMemReqGB:    MemoryRange,
		KeyCacheSizeGB: CacheSizeRange,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return Clamp(v, r.Min, r.Max)
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}
