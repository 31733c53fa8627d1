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

// Request and data limits.
const (
	// MaxRequestBodyBytes caps JSON request bodies accepted by the API.
	MaxRequestBodyBytes = 1 << 20

	// TrainingRunLimit is the default number of most recent successful runs used for training.
	TrainingRunLimit = 500

	// SuggestionListLimit is the default page size when listing stored suggestions.
	SuggestionListLimit = 50
)
