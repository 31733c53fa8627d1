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

// Package defaults provides centralized configuration constants for the build advisor.
//
// This package defines timeout values, limits, and other configuration
// defaults used across the codebase. Centralizing these values ensures consistency
// and makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Handler timeouts: For HTTP request processing
//   - Server timeouts: For HTTP server configuration
//   - Storage timeouts: For the SQL store and cache
//   - HTTP client timeouts: For outbound requests
//   - ConfigMap and CLI timeouts: For operator tooling
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/inframind/build-advisor/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(r.Context(), defaults.OptimizeHandlerTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - Suggestion scoring: 8s inside a 10s handler budget
//   - Training over HTTP: below the server write timeout
//   - Server shutdown: 30s for graceful shutdown
package defaults
