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

// Package serializer reads and writes advisor documents.
//
// Output formats are JSON, YAML and a flattened FIELD/VALUE table. JSON and
// YAML can be read back; the table is for terminals only.
//
// Destinations resolved by NewFileWriterOrStdout:
//
//	""                      stdout
//	./suggestion.yaml       local file
//	cm://ci/build-advice    ConfigMap "build-advice" in namespace "ci"
//
// A ConfigMap destination stores the document under data["document.<ext>"]
// next to data["format"] and data["timestamp"], so a CI job can mount it and
// FromFile can load it back:
//
//	s := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://ci/build-advice")
//	defer serializer.Close(s)
//	if err := s.Serialize(ctx, doc); err != nil {
//		return err
//	}
//
// FromFile also accepts http(s) URLs, which are downloaded with HttpReader.
//
// For HTTP handlers:
//
//	serializer.RespondJSON(w, http.StatusOK, resp)
package serializer
