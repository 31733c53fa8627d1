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
	"time"

	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/store"
)

// Step events.
const (
	EventStart = "start"
	EventStop  = "stop"
)

// OptimizeRequest asks for a configuration for the next build of Pipeline.
type OptimizeRequest struct {
	Pipeline    string                `json:"pipeline" yaml:"pipeline"`
	RunID       string                `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Context     optimizer.Context     `json:"context" yaml:"context"`
	Constraints optimizer.Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// OptimizeResponse is the selected configuration and how it was chosen.
type OptimizeResponse struct {
	Suggestions       optimizer.Candidate `json:"suggestions" yaml:"suggestions"`
	Rationale         string              `json:"rationale" yaml:"rationale"`
	Confidence        float64             `json:"confidence" yaml:"confidence"`
	PredictedDuration float64             `json:"predicted_duration_s" yaml:"predicted_duration_s"`
	Evaluated         int                 `json:"evaluated" yaml:"evaluated"`
	ModelVersion      string              `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	SuggestionID      string              `json:"suggestion_id" yaml:"suggestion_id"`
	// RecordID is the stored suggestion, set when the pipeline is known.
	RecordID  int64     `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Pipeline  string    `json:"pipeline" yaml:"pipeline"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Resources are the resources requested for a run.
type Resources struct {
	CPU         float64 `json:"cpu"`
	MemGB       float64 `json:"mem_gb"`
	Concurrency int     `json:"concurrency"`
}

// BuildStartRequest announces a new run.
type BuildStartRequest struct {
	Pipeline           string         `json:"pipeline"`
	RunID              string         `json:"run_id"`
	Git                string         `json:"git,omitempty"`
	Branch             string         `json:"branch"`
	Commit             string         `json:"commit"`
	Image              string         `json:"image"`
	Tools              []string       `json:"tools,omitempty"`
	Node               string         `json:"k8s_node,omitempty"`
	RequestedResources Resources      `json:"requested_resources"`
	Cache              map[string]any `json:"cache,omitempty"`
	StartedAt          time.Time      `json:"started_at,omitempty"`
}

// BuildStepRequest is a step start or stop event.
type BuildStepRequest struct {
	RunID     string         `json:"run_id"`
	Stage     string         `json:"stage"`
	Step      string         `json:"step"`
	SpanID    string         `json:"span_id"`
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Counters  store.Counters `json:"counters"`
}

// Artifact is an output of a run.
type Artifact struct {
	Name string  `json:"name,omitempty"`
	Size float64 `json:"size"`
}

// BuildCompleteRequest reports the outcome of a run.
type BuildCompleteRequest struct {
	RunID     string         `json:"run_id"`
	Status    string         `json:"status"`
	DurationS *float64       `json:"duration_s"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Cache     map[string]any `json:"cache,omitempty"`
}

// BuildCompleteResponse carries the features computed for the finished run.
type BuildCompleteResponse struct {
	OK       bool              `json:"ok"`
	RunID    string            `json:"run_id"`
	Features optimizer.Context `json:"features"`
}

// TrainRequest selects the runs to train on. An empty pipeline uses every pipeline.
type TrainRequest struct {
	Pipeline string `json:"pipeline,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	// Activate makes the new model the active one. Defaults to true.
	Activate *bool `json:"activate,omitempty"`
}

// TrainResult describes a newly trained model.
type TrainResult struct {
	Version   string        `json:"version" yaml:"version"`
	Algo      string        `json:"algo" yaml:"algo"`
	Metrics   model.Metrics `json:"metrics" yaml:"metrics"`
	Activated bool          `json:"activated" yaml:"activated"`
	Files     []string      `json:"files,omitempty" yaml:"files,omitempty"`
}

// ModelsResponse lists trained models and the active version.
type ModelsResponse struct {
	Active   string              `json:"active"`
	Versions []string            `json:"versions"`
	Models   []store.ModelRecord `json:"models"`
}
