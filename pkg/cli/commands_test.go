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

package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/serializer"
	"github.com/inframind/build-advisor/pkg/server"
	"github.com/inframind/build-advisor/pkg/store"
)

// clearEnv keeps flag defaults independent of the developer's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "REDIS_URL", "MODEL_PATH", "MODEL_VERSION",
		"SAFE_MULTIPLIER", "EXPLORATION_RATE", "EXPLORATION_SEED", "API_KEY", "IM_SERVER",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newRootCmd().Run(context.Background(), append([]string{name, "--log-level", "error"}, args...))
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSuggestCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	ctxPath := filepath.Join(dir, "ctx.yaml")
	require.NoError(t, os.WriteFile(ctxPath, []byte(`last_success:
  concurrency: 4
  cpu_req: 4
  mem_req_gb: 8
  cache_size_gb: 10
max_rss_bytes: 10737418240
num_steps: 12
avg_step_duration_s: 40
`), 0o644))

	out := filepath.Join(dir, "suggestion.json")
	require.NoError(t, run(t, "suggest",
		"--context", ctxPath,
		"--model-dir", filepath.Join(dir, "models"),
		"--exploration-rate", "0",
		"--max-concurrency", "6",
		"--format", "json",
		"--output", out))

	doc := readJSON(t, out)
	assert.Equal(t, string(header.KindBuildSuggestion), doc["kind"])
	assert.Equal(t, header.APIVersion, doc["apiVersion"])

	spec, ok := doc["spec"].(map[string]any)
	require.True(t, ok)
	cfg, ok := spec["config"].(map[string]any)
	require.True(t, ok)
	assert.LessOrEqual(t, cfg["concurrency"].(float64), 6.0)
	// 10 GiB peak RSS with the default 1.2 safety multiplier
	assert.GreaterOrEqual(t, cfg["mem_req_gb"].(float64), 12.0)
	assert.Equal(t, model.DefaultVersion, spec["model_version"])
}

func TestSuggestCommandErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"suggest", "--format", "xml"}},
		{"bad set", []string{"suggest", "--set", "novalue"}},
		{"negative constraint", []string{"suggest", "--max-concurrency", "-1"}},
		{"bad safe multiplier", []string{"suggest", "--safe-multiplier", "0.5"}},
		{"bad exploration rate", []string{"suggest", "--exploration-rate", "2"}},
		{"missing context", []string{"suggest", "--context", filepath.Join(dir, "nope.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--model-dir", dir, "--output", filepath.Join(dir, "out.yaml"))
			assert.Error(t, run(t, args...))
		})
	}
}

func TestSeedTrainAndList(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "advisor.db")
	models := filepath.Join(dir, "models")

	seedOut := filepath.Join(dir, "seed.json")
	require.NoError(t, run(t, "seed",
		"--db", db,
		"--model-dir", models,
		"--runs", "12",
		"--seed", "5",
		"--train",
		"--format", "json",
		"--output", seedOut))

	seeded := readJSON(t, seedOut)
	runIDs, ok := seeded["run_ids"].([]any)
	require.True(t, ok)
	require.Len(t, runIDs, 12)
	trained, ok := seeded["model"].(map[string]any)
	require.True(t, ok)
	trainedVersion, _ := trained["version"].(string)
	require.NotEmpty(t, trainedVersion)
	assert.FileExists(t, model.NewRegistry(models).ArtifactPath(trainedVersion))

	listOut := filepath.Join(dir, "models.json")
	require.NoError(t, run(t, "model", "list",
		"--db", db,
		"--model-dir", models,
		"--format", "json",
		"--output", listOut))

	list := readJSON(t, listOut)
	assert.Equal(t, string(header.KindModelList), list["kind"])
	spec := list["spec"].(map[string]any)
	assert.Equal(t, trainedVersion, spec["latest"])
	assert.Contains(t, spec["versions"], trainedVersion)

	featOut := filepath.Join(dir, "features.json")
	require.NoError(t, run(t, "features",
		"--db", db,
		"--model-dir", models,
		"--run-id", runIDs[0].(string),
		"--format", "json",
		"--output", featOut))

	feat := readJSON(t, featOut)
	assert.Equal(t, string(header.KindRunFeatures), feat["kind"])
	vector := feat["spec"].(map[string]any)["vector"].(map[string]any)
	assert.EqualValues(t, 5, vector["num_steps"])

	// a features document feeds suggest directly
	sugOut := filepath.Join(dir, "suggestion.yaml")
	require.NoError(t, run(t, "suggest",
		"--context", featOut,
		"--model-dir", models,
		"--exploration-rate", "0",
		"--output", sugOut))

	sug, err := serializer.FromFile[map[string]any](sugOut)
	require.NoError(t, err)
	assert.Equal(t, trainedVersion, (*sug)["spec"].(map[string]any)["model_version"])
}

func TestTrainCommandNeedsData(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	err := run(t, "train",
		"--db", filepath.Join(dir, "advisor.db"),
		"--model-dir", filepath.Join(dir, "models"),
		"--output", filepath.Join(dir, "train.yaml"))
	assert.Error(t, err)
}

func TestPushTargetsAreValidated(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	assert.Error(t, run(t, "train", "--push", "not-a-reference", "--db", filepath.Join(dir, "a.db")))
	assert.Error(t, run(t, "model", "push", "--target", "oci://registry.example.com/models@sha256:abc", "--model-dir", dir))
	// valid target, nothing trained
	assert.Error(t, run(t, "model", "push", "--target", "oci://registry.example.com/models", "--model-dir", dir))
}

func TestModelActivate(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "advisor.db")

	assert.Error(t, run(t, "model", "activate", "--db", db, "--model-dir", dir))
	assert.Error(t, run(t, "model", "activate", "--db", db, "--model-dir", dir, "v9"))
}

func TestFeaturesFromServer(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	var gotToken, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(server.APIKeyHeader)
		gotPath = r.URL.EscapedPath()
		serializer.RespondJSON(w, http.StatusOK, store.FeatureRecord{
			RunID:  "run/1",
			Vector: map[string]any{"num_steps": 7},
		})
	}))
	defer srv.Close()

	out := filepath.Join(dir, "features.json")
	require.NoError(t, run(t, "features",
		"--run-id", "run/1",
		"--server", srv.URL+"/",
		"--token", "secret",
		"--format", "json",
		"--output", out))

	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "/v1/features/run%2F1", gotPath)

	doc := readJSON(t, out)
	assert.Equal(t, "run/1", doc["spec"].(map[string]any)["run_id"])

	assert.Error(t, run(t, "features", "--run-id", "x", "--server", srv.URL, "--recompute"))
}

func TestLoadContext(t *testing.T) {
	bc, err := loadContext("", "", []string{"num_steps=20", "branch=main", "cache=true"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, bc["num_steps"])
	assert.Equal(t, "main", bc["branch"])
	assert.Equal(t, true, bc["cache"])

	_, err = loadContext("", "", []string{"=1"})
	assert.Error(t, err)
}

func TestContextFromDocument(t *testing.T) {
	raw := map[string]any{
		"kind": "RunFeatures",
		"spec": map[string]any{"vector": map[string]any{"num_steps": 3.0}},
	}
	assert.Equal(t, 3.0, contextFromDocument(raw)["num_steps"])

	flat := map[string]any{"num_steps": 4.0}
	assert.Equal(t, 4.0, contextFromDocument(flat)["num_steps"])
}
