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

package store

import "time"

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusAborted = "aborted"
)

// ValidCompletionStatus reports whether status can end a run.
func ValidCompletionStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusFailure, StatusAborted:
		return true
	}
	return false
}

// Pipeline is a named CI/CD pipeline.
type Pipeline struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is one execution of a pipeline. Zero resource fields mean not requested.
type Run struct {
	ID            int64          `json:"id"`
	PipelineID    int64          `json:"pipeline_id"`
	Pipeline      string         `json:"pipeline"`
	RunID         string         `json:"run_id"`
	Status        string         `json:"status"`
	DurationS     *float64       `json:"duration_s,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	Image         string         `json:"image,omitempty"`
	Node          string         `json:"node,omitempty"`
	Branch        string         `json:"branch,omitempty"`
	Commit        string         `json:"commit,omitempty"`
	Git           string         `json:"git,omitempty"`
	Tools         []string       `json:"tools,omitempty"`
	CPUReq        float64        `json:"cpu_req,omitempty"`
	MemReqGB      float64        `json:"mem_req_gb,omitempty"`
	Concurrency   int            `json:"concurrency,omitempty"`
	ArtifactBytes int64          `json:"artifact_bytes"`
	Cache         map[string]any `json:"cache,omitempty"`
}

// Completion is the final state reported for a run.
type Completion struct {
	Status        string
	DurationS     float64
	ArtifactBytes int64
	Cache         map[string]any
	FinishedAt    time.Time
}

// RunFilter selects runs in ListRuns. Empty fields match everything.
type RunFilter struct {
	Pipeline string
	Status   string
	Limit    int
}

// Step is one step of a run. Counters are zero until the step stops.
type Step struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Stage       string     `json:"stage"`
	Step        string     `json:"step"`
	SpanID      string     `json:"span_id,omitempty"`
	StartTS     *time.Time `json:"start_ts,omitempty"`
	EndTS       *time.Time `json:"end_ts,omitempty"`
	Counters
}

// Counters are the resource usage totals reported when a step stops.
type Counters struct {
	CPUTimeS     float64 `json:"cpu_time_s"`
	RSSMaxBytes  int64   `json:"rss_max_bytes"`
	IOReadBytes  int64   `json:"io_r_bytes"`
	IOWriteBytes int64   `json:"io_w_bytes"`
	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
}

// Duration returns the step's wall time when both timestamps are known.
func (s Step) Duration() (time.Duration, bool) {
	if s.StartTS == nil || s.EndTS == nil {
		return 0, false
	}
	return s.EndTS.Sub(*s.StartTS), true
}

// FeatureRecord is the feature vector computed for a run and its label.
type FeatureRecord struct {
	RunID     string         `json:"run_id"`
	Vector    map[string]any `json:"vector"`
	Label     map[string]any `json:"label,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TrainingRow is a feature vector joined with its run's duration.
type TrainingRow struct {
	RunID     string
	Vector    map[string]any
	DurationS float64
}

// SuggestionRecord is a persisted suggestion.
type SuggestionRecord struct {
	ID        int64          `json:"id"`
	Pipeline  string         `json:"pipeline"`
	RunID     string         `json:"run_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	Applied   bool           `json:"applied"`
	CreatedAt time.Time      `json:"created_at"`
}

// ModelRecord is the registry entry of a trained model.
type ModelRecord struct {
	ID        int64          `json:"id"`
	Version   string         `json:"version"`
	Algo      string         `json:"algo"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
