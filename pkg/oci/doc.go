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

// Package oci publishes trained models to OCI registries with ORAS.
//
// A model version is pushed as one artifact (type ArtifactType) with a layer
// per file: the model itself and its evaluation metrics.
//
//	ref, err := oci.ParseReference("oci://ghcr.io/acme/build-models")
//	if err != nil {
//		return err
//	}
//	files, _ := registry.Files(version)
//	res, err := oci.Push(ctx, oci.PushOptions{
//		Files:     files,
//		Reference: ref,
//		Version:   version,
//	})
//
// A reference without a tag is tagged with the model version. Credentials are
// read from ~/.docker/config.json and its credential helpers.
package oci
