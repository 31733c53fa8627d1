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

package serializer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Pipeline    string         `json:"pipeline" yaml:"pipeline"`
	Concurrency int            `json:"concurrency" yaml:"concurrency"`
	Cache       map[string]any `json:"cache" yaml:"cache"`
	Tools       []string       `json:"tools" yaml:"tools"`
}

func sampleDoc() testDoc {
	return testDoc{
		Pipeline:    "web",
		Concurrency: 6,
		Cache:       map[string]any{"enabled": true},
		Tools:       []string{"go", "docker"},
	}
}

func TestFormatIsUnknown(t *testing.T) {
	for _, f := range SupportedFormats() {
		assert.False(t, Format(f).IsUnknown(), f)
	}
	assert.True(t, Format("xml").IsUnknown())
	assert.True(t, Format("").IsUnknown())
}

func TestWriterSerialize(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   []string
	}{
		{"json", FormatJSON, []string{`"pipeline": "web"`, `"concurrency": 6`}},
		{"yaml", FormatYAML, []string{"pipeline: web", "concurrency: 6", "  - go"}},
		{"table", FormatTable, []string{"FIELD", "Pipeline", "Cache.enabled", "Tools.[1]", "docker"}},
		{"unknown falls back to json", Format("xml"), []string{`"pipeline": "web"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(tt.format, &buf)
			require.NoError(t, w.Serialize(context.Background(), sampleDoc()))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out, err := renderTable(map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "<empty>\n", string(out))
	})

	t.Run("scalar", func(t *testing.T) {
		out, err := renderTable(42)
		require.NoError(t, err)
		assert.Contains(t, string(out), "value")
		assert.Contains(t, string(out), "42")
	})

	t.Run("time and nil pointer", func(t *testing.T) {
		ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		doc := struct {
			At   time.Time
			Skip *int
		}{At: ts}
		out, err := renderTable(doc)
		require.NoError(t, err)
		assert.Contains(t, string(out), "2026-01-02T03:04:05Z")
		assert.Contains(t, string(out), "Skip")
	})
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("file round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.yaml")
		s := NewFileWriterOrStdout(FormatYAML, path)
		require.NoError(t, s.Serialize(context.Background(), sampleDoc()))
		require.NoError(t, Close(s))

		got, err := FromFile[testDoc](path)
		require.NoError(t, err)
		assert.Equal(t, "web", got.Pipeline)
		assert.Equal(t, 6, got.Concurrency)
		assert.Equal(t, []string{"go", "docker"}, got.Tools)
	})

	t.Run("empty path is stdout", func(t *testing.T) {
		_, ok := NewFileWriterOrStdout(FormatJSON, "  ").(*Writer)
		assert.True(t, ok)
	})

	t.Run("configmap uri", func(t *testing.T) {
		w, ok := NewFileWriterOrStdout(FormatJSON, "cm://ci/advice").(*ConfigMapWriter)
		require.True(t, ok)
		assert.Equal(t, "ci", w.namespace)
		assert.Equal(t, "advice", w.name)
	})

	t.Run("bad configmap uri falls back to stdout", func(t *testing.T) {
		_, ok := NewFileWriterOrStdout(FormatJSON, "cm://only-namespace").(*Writer)
		assert.True(t, ok)
	})

	t.Run("uncreatable file falls back to stdout", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.json")
		w, ok := NewFileWriterOrStdout(FormatJSON, path).(*Writer)
		require.True(t, ok)
		assert.Nil(t, w.closer)
	})
}

func TestWriterCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s := NewFileWriterOrStdout(FormatJSON, path)
	require.NoError(t, Close(s))
	require.NoError(t, Close(s))
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.txt")
	require.NoError(t, WriteToFile(path, []byte("hello")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Error(t, WriteToFile(filepath.Join(t.TempDir(), "no", "such", "dir"), []byte("x")))
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":      FormatJSON,
		"a.YAML":      FormatYAML,
		"a.yml":       FormatYAML,
		"a.txt":       FormatTable,
		"a.table":     FormatTable,
		"a":           FormatJSON,
		"https://x/y": FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestNewReader(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		r, err := NewReader(FormatJSON, strings.NewReader(`{"pipeline":"api","concurrency":3}`))
		require.NoError(t, err)
		var doc testDoc
		require.NoError(t, r.Deserialize(&doc))
		assert.Equal(t, "api", doc.Pipeline)
		assert.Equal(t, 3, doc.Concurrency)
		require.NoError(t, r.Close())
	})

	t.Run("table rejected", func(t *testing.T) {
		_, err := NewReader(FormatTable, strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("unknown rejected", func(t *testing.T) {
		_, err := NewReader(Format("xml"), strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		r, err := NewReader(FormatYAML, strings.NewReader("pipeline: [unterminated"))
		require.NoError(t, err)
		var doc testDoc
		assert.Error(t, r.Deserialize(&doc))
	})

	t.Run("nil reader", func(t *testing.T) {
		var r *Reader
		assert.Error(t, r.Deserialize(&testDoc{}))
		assert.NoError(t, r.Close())
	})
}

func TestFromFileErrors(t *testing.T) {
	_, err := FromFile[testDoc](filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = FromFile[testDoc]("cm://no-name")
	assert.Error(t, err)
}

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		uri       string
		namespace string
		name      string
		wantErr   bool
	}{
		{"cm://ci/advice", "ci", "advice", false},
		{"cm:// ci / advice ", "ci", "advice", false},
		{"cm://ci", "", "", true},
		{"cm:///advice", "", "", true},
		{"cm://ci/", "", "", true},
		{"cm://ci/a/b", "", "", true},
		{"file://ci/advice", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ns, name, err := parseConfigMapURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.namespace, ns)
			assert.Equal(t, tt.name, name)
		})
	}
}
