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

// Package mcp exposes the advisor as Model Context Protocol tools so coding
// agents can ask for build configurations and inspect run features.
//
// Tools follow one shape: a struct holding its dependencies, Definition()
// returning the tool schema and Handle() serving a call. Request problems
// are reported as tool errors, not protocol errors, so the agent sees them.
//
//	suggest_build_config  configuration for the next build of a pipeline
//	get_run_features      stored feature vector of a run
//	list_models           trained model versions and the active one
//
// Serve runs the tools over stdio; stdout carries the protocol and logs go
// to stderr.
package mcp
