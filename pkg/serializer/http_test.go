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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RespondJSON(rec, http.StatusCreated, map[string]any{"ok": true})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	})

	t.Run("unencodable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RespondJSON(rec, http.StatusOK, map[string]any{"ch": make(chan int)})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHttpReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.json":
			if r.Header.Get("X-IM-Token") != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED"}`))
				return
			}
			_, _ = w.Write([]byte(`{"pipeline":"remote","concurrency":8}`))
		case "/agent":
			_, _ = w.Write([]byte(r.UserAgent()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("headers are sent", func(t *testing.T) {
		r := NewHttpReader(WithHeader("X-IM-Token", "secret"))
		data, err := r.ReadWithContext(context.Background(), srv.URL+"/doc.json")
		require.NoError(t, err)
		assert.Contains(t, string(data), "remote")
	})

	t.Run("error status quotes body", func(t *testing.T) {
		_, err := NewHttpReader().Read(srv.URL + "/doc.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "UNAUTHORIZED")
	})

	t.Run("user agent", func(t *testing.T) {
		data, err := NewHttpReader().Read(srv.URL + "/agent")
		require.NoError(t, err)
		assert.Equal(t, HttpReaderUserAgent, string(data))

		data, err = NewHttpReader(WithUserAgent("ci/2")).Read(srv.URL + "/agent")
		require.NoError(t, err)
		assert.Equal(t, "ci/2", string(data))
	})

	t.Run("custom client", func(t *testing.T) {
		r := NewHttpReader(WithClient(srv.Client()))
		assert.Same(t, srv.Client(), r.Client)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := NewHttpReader().Read("")
		assert.Error(t, err)
	})

	t.Run("download", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.json")
		r := NewHttpReader(WithHeader("X-IM-Token", "secret"))
		require.NoError(t, r.Download(srv.URL+"/doc.json", path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "remote")
	})
}

func TestFromFileURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pipeline: from-url\nconcurrency: 2\n"))
	}))
	defer srv.Close()

	got, err := FromFile[testDoc](srv.URL + "/settings.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-url", got.Pipeline)
	assert.Equal(t, 2, got.Concurrency)
}

func TestNewFileReaderRemovesDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"pipeline":"x"}`))
	}))
	defer srv.Close()

	r, err := NewFileReader(FormatJSON, srv.URL+"/doc.json")
	require.NoError(t, err)
	temp := r.temp
	require.NotEmpty(t, temp)

	require.NoError(t, r.Close())
	_, err = os.Stat(temp)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
