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

// Package version parses and orders model versions.
//
// The registry holds three kinds of names:
//
//	v1, v2                 hand-assigned sequence versions (v1 is the default)
//	v20260102_030405       versions stamped by training
//	baseline               anything else that is a valid file name part
//
// Trained versions are newer than sequence versions, which are newer than
// named ones, so Latest picks the most recent training run when one exists.
package version
