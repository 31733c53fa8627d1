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


// Package server provides the HTTP server shared by the build advisor API.
//
// # Architecture
//
// The server is a thin wrapper over net/http with:
//
//   - Rate limiting using token bucket algorithm (golang.org/x/time/rate)
//   - Optional API key authentication via the X-IM-Token header
//   - Request ID tracking for distributed tracing
//   - Panic recovery for resilience
//   - Prometheus RED metrics, exposed on /metrics
//   - Graceful shutdown handling
//   - Health and readiness probes for Kubernetes, with dependency checks
//
// # Usage
//
//	s := server.New(
//	    server.WithName("imd"),
//	    server.WithVersion(version),
//	    server.WithAPIKey(os.Getenv("API_KEY")),
//	    server.WithReadinessCheck("store", st.Ping),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "POST /v1/optimize": h.Optimize,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// Route keys accept net/http method and wildcard patterns. Every route except
// / is served through the middleware chain:
//
//	metrics → version → request ID → panic recovery → auth → rate limit → body limit → logging
//
// # Errors
//
// Handlers report failures with WriteError or WriteErrorFromErr. Structured
// errors from pkg/errors are mapped to HTTP status codes:
//
//	INVALID_REQUEST      400
//	UNAUTHORIZED         401
//	NOT_FOUND            404
//	CONFLICT             409
//	INSUFFICIENT_DATA    422
//	RATE_LIMIT_EXCEEDED  429
//	SERVICE_UNAVAILABLE  503
//	TIMEOUT              504
//	anything else        500
//
// The body is an ErrorResponse carrying the request ID and whether the
// client may retry.
//
// # Configuration
//
// PORT and SHUTDOWN_TIMEOUT_SECONDS override the listen port and shutdown
// grace period. Other values come from NewConfig and can be set with WithConfig.
package server
