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


// Package cache provides the key/value cache used for run features, the last
// suggestion per pipeline and the active model version.
//
// Open selects a backend from a URL: an in-process map for local use and
// tests, or Redis for shared deployments. Keys follow a fixed layout:
//
//	im:feat:<run_id>           computed features, expiring
//	im:last_suggest:<pipeline> latest suggestion, no expiry
//	im:model:active            active model version
package cache
