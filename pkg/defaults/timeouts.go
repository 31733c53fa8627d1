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

package defaults

import "time"

// Handler timeouts for HTTP request processing.
const (
	// OptimizeHandlerTimeout is the timeout for suggestion requests.
	OptimizeHandlerTimeout = 10 * time.Second

	// SuggestTimeout bounds scoring of all candidates for one request.
	// Should be less than OptimizeHandlerTimeout to allow error handling.
	SuggestTimeout = 8 * time.Second

	// IngestHandlerTimeout is the timeout for build start, step and complete events.
	IngestHandlerTimeout = 10 * time.Second

	// TrainHandlerTimeout is the timeout for synchronous model training requests.
	// Must stay below ServerWriteTimeout so the response can still be written.
	TrainHandlerTimeout = 25 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// ReadinessCheckTimeout bounds the dependency checks behind /ready.
	ReadinessCheckTimeout = 2 * time.Second
)

// Storage timeouts for the SQL store and the cache.
const (
	// StoreOpenTimeout is the timeout for opening the database and running migrations.
	StoreOpenTimeout = 15 * time.Second

	// SQLiteBusyTimeout is how long SQLite waits on a locked database.
	SQLiteBusyTimeout = 5 * time.Second

	// CacheOperationTimeout bounds a single cache round trip.
	CacheOperationTimeout = 2 * time.Second

	// FeatureCacheTTL is how long computed run features stay cached.
	FeatureCacheTTL = time.Hour
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)

// ConfigMap timeouts for Kubernetes ConfigMap operations.
const (
	// ConfigMapWriteTimeout is the timeout for writing to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second

	// ConfigMapReadTimeout is the timeout for reading from ConfigMaps.
	ConfigMapReadTimeout = 15 * time.Second
)

// CLI timeouts for command-line operations.
const (
	// CLISuggestTimeout is the default timeout for a local suggestion.
	CLISuggestTimeout = 1 * time.Minute

	// CLITrainTimeout is the default timeout for offline training.
	CLITrainTimeout = 10 * time.Minute

	// OCIPushTimeout is the timeout for pushing model artifacts to a registry.
	OCIPushTimeout = 5 * time.Minute
)
