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

package advisor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframind/build-advisor/pkg/server"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	svc := newTestService(t)
	return server.New(server.WithHandler(svc.Handlers())).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHandleOptimize(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/optimize",
		`{"pipeline":"web","context":{"num_steps":10,"avg_step_duration_s":30},"constraints":{"max_concurrency":4}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	resp := decode[OptimizeResponse](t, w)
	assert.LessOrEqual(t, resp.Suggestions.Concurrency, 4)
	assert.InDelta(t, 300.0, resp.PredictedDuration, 1e-9)
	assert.NotEmpty(t, resp.SuggestionID)

	w = do(t, h, http.MethodGet, "/v1/suggestions/web", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	last := decode[OptimizeResponse](t, w)
	assert.Equal(t, resp.SuggestionID, last.SuggestionID)
}

func TestHandleOptimizeErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"invalid json", "{invalid}", http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing pipeline", `{"context":{}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative constraint", `{"pipeline":"p","constraints":{"min_ram_gb":-1}}`, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/optimize", tt.body)
			assert.Equal(t, tt.status, w.Code)

			resp := decode[server.ErrorResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
			assert.False(t, resp.Retryable)
		})
	}
}

func TestHandleBuildFlow(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/builds/start", `{
		"pipeline": "web", "run_id": "r-1", "branch": "main", "commit": "deadbeef",
		"image": "node:22", "tools": ["npm"], "k8s_node": "node-a",
		"requested_resources": {"cpu": 4, "mem_gb": 8, "concurrency": 4}
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/v1/builds/start", `{"pipeline":"web","run_id":"r-1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/v1/builds/step", `{
		"run_id": "r-1", "stage": "build", "step": "install", "span_id": "s1",
		"event": "start", "timestamp": "2026-01-02T03:04:05Z"
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/v1/builds/step", `{
		"run_id": "r-1", "stage": "build", "step": "install", "span_id": "s1",
		"event": "stop", "timestamp": "2026-01-02T03:04:45Z",
		"counters": {"cpu_time_s": 30, "rss_max_bytes": 2147483648, "io_r_bytes": 1024, "cache_hits": 1}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/v1/builds/step", `{
		"run_id": "r-1", "stage": "build", "step": "lint", "event": "stop", "timestamp": "2026-01-02T03:04:45Z"
	}`)
	assert.Equal(t, http.StatusNotFound, w.Code, "stop without start")

	w = do(t, h, http.MethodPost, "/v1/builds/complete", `{
		"run_id": "r-1", "status": "success", "duration_s": 95.5,
		"artifacts": [{"name": "app.tar", "size": 1048576}], "cache": {"size_gb": 12}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[BuildCompleteResponse](t, w)
	assert.True(t, done.OK)
	assert.Equal(t, 40.0, done.Features.Float("avg_step_duration_s", 0))

	w = do(t, h, http.MethodGet, "/v1/features/r-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var feat struct {
		RunID  string         `json:"run_id"`
		Vector map[string]any `json:"vector"`
		Label  map[string]any `json:"label"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&feat))
	assert.Equal(t, "r-1", feat.RunID)
	assert.Equal(t, 2.0, feat.Vector["max_rss_gb"])
	assert.Equal(t, "node-a", feat.Vector["node"])
	assert.Equal(t, 95.5, feat.Label["duration_s"])

	w = do(t, h, http.MethodPost, "/v1/builds/complete", `{"run_id":"nope","status":"success","duration_s":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/v1/builds/complete", `{"run_id":"r-1","status":"exploded","duration_s":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleNotFound(t *testing.T) {
	h := newTestHandler(t)

	for _, path := range []string{"/v1/features/unknown", "/v1/suggestions/unknown", "/v1/suggestions/unknown/history"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			resp := decode[server.ErrorResponse](t, w)
			assert.Equal(t, "NOT_FOUND", resp.Code)
		})
	}
}

func TestHandleSuggestionApplied(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/builds/start", `{"pipeline":"web","run_id":"r-1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodPost, "/v1/optimize", `{"pipeline":"web","run_id":"r-1","context":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[OptimizeResponse](t, w)
	require.Positive(t, resp.RecordID)

	w = do(t, h, http.MethodPost, fmt.Sprintf("/v1/suggestions/%d/applied", resp.RecordID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/suggestions/web/history?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Suggestions []struct {
			ID      int64 `json:"id"`
			Applied bool  `json:"applied"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	require.Len(t, history.Suggestions, 1)
	assert.True(t, history.Suggestions[0].Applied)

	w = do(t, h, http.MethodPost, "/v1/suggestions/abc/applied", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/suggestions/9999/applied", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/suggestions/web/history?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleModelsAndTrain(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	models := decode[ModelsResponse](t, w)
	assert.Equal(t, "v1", models.Active)

	w = do(t, h, http.MethodPost, "/v1/models/train", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[server.ErrorResponse](t, w)
	assert.Equal(t, "INSUFFICIENT_DATA", resp.Code)

	w = do(t, h, http.MethodPost, "/v1/models/train", `{"limit":"many"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/models/v_missing/activate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
