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

// Package advisor is the build advisor service: it records build telemetry,
// turns it into features, answers optimization requests and trains the
// duration model.
//
// Service composes the optimizer engine with the model registry, the store
// and the cache. Every operation is available as a Go method and, through
// Handlers, as an HTTP route:
//
//	POST /v1/optimize               suggest a build configuration
//	POST /v1/builds/start           record a run start
//	POST /v1/builds/step            record a step start or stop
//	POST /v1/builds/complete        finish a run and compute its features
//	GET  /v1/features/{run_id}      features of a run
//	GET  /v1/suggestions/{pipeline} last suggestion of a pipeline
//	GET  /v1/suggestions/{pipeline}/history
//	POST /v1/suggestions/{id}/applied
//	GET  /v1/models                 active version and trained models
//	POST /v1/models/train           train, save and activate a model
//
// Usage:
//
//	svc, err := advisor.New(st, registry,
//	    advisor.WithCache(c),
//	    advisor.WithEngineOptions(optimizer.WithConfig(cfg)),
//	)
//	if err != nil {
//	    return err
//	}
//	s := server.New(server.WithHandler(svc.Handlers()))
//
// Cache failures never fail a request: the service logs them and falls back
// to the store.
package advisor
