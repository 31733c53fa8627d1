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

// Package header defines the preamble shared by documents the advisor emits
// to files, stdout and ConfigMaps.
//
// A document embeds Header inline:
//
//	type SuggestionDocument struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	    Suggestion    advisor.OptimizeResponse `json:"suggestion" yaml:"suggestion"`
//	}
//
//	doc := SuggestionDocument{Suggestion: *resp}
//	doc.Init(header.KindBuildSuggestion, version)
//
// which serializes as:
//
//	kind: BuildSuggestion
//	apiVersion: advisor.inframind.io/v1
//	metadata:
//	  timestamp: "2026-01-02T03:04:05Z"
//	  version: v0.3.0
//	suggestion: ...
//
// The ConfigMap writer in pkg/serializer reads Kind and the version metadata
// to label the ConfigMap it writes.
package header
