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

// Package config loads advisor settings.
//
// Precedence, lowest first: built-in defaults, the file named by IM_CONFIG,
// environment variables. The file may be YAML or JSON and may live on disk,
// behind an http(s) URL or in a ConfigMap (cm://namespace/name):
//
//	databaseUrl: postgres://advisor@db:5432/advisor?sslmode=disable
//	redisUrl: redis://cache:6379/0
//	modelPath: /var/lib/advisor/models
//	safeMultiplier: 1.3
//
// Environment variables:
// API_KEY, DATABASE_URL, REDIS_URL, MODEL_PATH, MODEL_VERSION,
// FEATURE_CACHE_TTL, SAFE_MULTIPLIER, EXPLORATION_RATE, EXPLORATION_SEED,
// LOG_LEVEL, PORT and SHUTDOWN_TIMEOUT_SECONDS.
package config
