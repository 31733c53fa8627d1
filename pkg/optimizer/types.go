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
	"encoding/json"
	"strconv"
)

// Context keys read by the engine.
const (
	KeyLastSuccess      = "last_success"
	KeyConcurrency      = "concurrency"
	KeyCPUReq           = "cpu_req"
	KeyMemReqGB         = "mem_req_gb"
	KeyCacheSizeGB      = "cache_size_gb"
	KeyMaxRSSBytes      = "max_rss_bytes"
	KeyMaxRSSGB         = "max_rss_gb"
	KeyDurationS        = "duration_s"
	KeyNumSteps         = "num_steps"
	KeyAvgStepDurationS = "avg_step_duration_s"
)

// Defaults applied when the heuristic estimate reads an absent key.
const (
	DefaultNumSteps         = 10
	DefaultAvgStepDurationS = 30
)

const (
	bytesPerGiB          = 1 << 30
	defaultCacheSizeGB   = 10
	defaultBaselineCPU   = 4
	defaultBaselineConc  = 4
	defaultBaselineMemGB = 8
)

// Context describes a build's identity and observed telemetry. It is read-only
// to the engine; absent keys fall back to documented defaults.
type Context map[string]any

// Lookup returns the numeric value stored under key.
// Missing, nil and non-numeric values report false.
func (c Context) Lookup(key string) (float64, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat(v)
}

// Float returns the numeric value under key or def when absent.
func (c Context) Float(key string, def float64) float64 {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return def
}

// Merge returns a new Context with the keys of other layered over c.
func (c Context) Merge(other Context) Context {
	out := make(Context, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Baseline returns the configuration the local search starts from: the
// context's last successful configuration when present, else the default.
func (c Context) Baseline() Baseline {
	switch v := c[KeyLastSuccess].(type) {
	case Baseline:
		return v
	case *Baseline:
		if v != nil {
			return *v
		}
	case Candidate:
		return v.Baseline()
	case map[string]any:
		return baselineFrom(Context(v))
	case Context:
		return baselineFrom(v)
	}
	return DefaultBaseline()
}

func baselineFrom(m Context) Baseline {
	return Baseline{
		Concurrency: m.Float(KeyConcurrency, defaultBaselineConc),
		CPUReq:      m.Float(KeyCPUReq, defaultBaselineCPU),
		MemReqGB:    m.Float(KeyMemReqGB, defaultBaselineMemGB),
		CacheSizeGB: m.Float(KeyCacheSizeGB, defaultCacheSizeGB),
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Baseline is the starting point of the local search.
type Baseline struct {
	Concurrency float64 `json:"concurrency" yaml:"concurrency"`
	CPUReq      float64 `json:"cpu_req" yaml:"cpu_req"`
	MemReqGB    float64 `json:"mem_req_gb" yaml:"mem_req_gb"`
	CacheSizeGB float64 `json:"cache_size_gb" yaml:"cache_size_gb"`
}

// DefaultBaseline is used when the context carries no last successful configuration.
func DefaultBaseline() Baseline {
	return Baseline{
		Concurrency: defaultBaselineConc,
		CPUReq:      defaultBaselineCPU,
		MemReqGB:    defaultBaselineMemGB,
		CacheSizeGB: defaultCacheSizeGB,
	}
}

// Cache describes the build cache settings of a candidate.
type Cache struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	SizeGB  float64 `json:"size_gb" yaml:"size_gb"`
}

// Candidate is one proposed resource configuration. Candidates are comparable
// with == which is what deduplication relies on.
type Candidate struct {
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	CPUReq      float64 `json:"cpu_req" yaml:"cpu_req"`
	MemReqGB    float64 `json:"mem_req_gb" yaml:"mem_req_gb"`
	Cache       Cache   `json:"cache" yaml:"cache"`
}

// DefaultCandidate is returned when there is nothing to score.
func DefaultCandidate() Candidate {
	return Candidate{
		Concurrency: defaultBaselineConc,
		CPUReq:      defaultBaselineCPU,
		MemReqGB:    defaultBaselineMemGB,
		Cache:       Cache{Enabled: true, SizeGB: defaultCacheSizeGB},
	}
}

// Baseline converts the candidate into a search baseline.
func (c Candidate) Baseline() Baseline {
	return Baseline{
		Concurrency: float64(c.Concurrency),
		CPUReq:      c.CPUReq,
		MemReqGB:    c.MemReqGB,
		CacheSizeGB: c.Cache.SizeGB,
	}
}

// Context returns the candidate's fields as context keys.
func (c Candidate) Context() Context {
	return Context{
		KeyConcurrency: c.Concurrency,
		KeyCPUReq:      c.CPUReq,
		KeyMemReqGB:    c.MemReqGB,
		"cache": map[string]any{
			"enabled": c.Cache.Enabled,
			"size_gb": c.Cache.SizeGB,
		},
	}
}

// Constraints are caller-imposed overrides. Zero values impose nothing.
type Constraints struct {
	// MaxConcurrency clamps every candidate's concurrency down to this value.
	MaxConcurrency int `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty"`
	// MinRAMGB raises every candidate's memory up to this value.
	MinRAMGB float64 `json:"min_ram_gb,omitempty" yaml:"min_ram_gb,omitempty"`
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.MaxConcurrency == 0 && c.MinRAMGB == 0
}

// Suggestion is the engine's answer for one request.
type Suggestion struct {
	Config           Candidate `json:"config" yaml:"config"`
	PredictedSeconds float64   `json:"predicted_duration_s" yaml:"predicted_duration_s"`
	Rationale        string    `json:"rationale" yaml:"rationale"`
	Confidence       float64   `json:"confidence" yaml:"confidence"`
	Evaluated        int       `json:"evaluated" yaml:"evaluated"`
	// ModelVersion names the model that scored the candidates, when known.
	ModelVersion string `json:"model_version,omitempty" yaml:"model_version,omitempty"`
}
