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

// Package api runs the imd daemon.
//
// Serve loads settings (see pkg/config), opens the store and cache, loads the
// active model from the registry directory and serves the advisor routes
// through pkg/server:
//
//	POST /v1/optimize                     suggest a build configuration
//	POST /v1/builds/start                 register a run
//	POST /v1/builds/step                  record a step start or stop
//	POST /v1/builds/complete              finish a run and compute its features
//	GET  /v1/features/{run_id}            features of a finished run
//	GET  /v1/suggestions/{pipeline}       last suggestion for a pipeline
//	GET  /v1/suggestions/{pipeline}/history
//	POST /v1/suggestions/{id}/applied
//	GET  /v1/models                       active version and trained models
//	POST /v1/models/train                 train on recent successful runs
//	POST /v1/models/{version}/activate
//
// System endpoints are /health, /ready (pings the store and cache) and /metrics.
// When API_KEY is set, /v1 routes require it in the X-IM-Token header.
//
//	func main() {
//		if err := api.Serve(); err != nil {
//			os.Exit(1)
//		}
//	}
package api
