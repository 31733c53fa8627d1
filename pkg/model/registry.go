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

package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/version"
)

const (
	artifactPrefix  = "model_"
	artifactSuffix  = ".json"
	metricsSuffix   = ".metrics.json"
	artifactPerm    = 0o644
	artifactDirPerm = 0o755
)

// Metrics are the evaluation results recorded next to a trained model.
type Metrics struct {
	MAE       float64 `json:"mae" yaml:"mae"`
	R2        float64 `json:"r2" yaml:"r2"`
	NSamples  int     `json:"n_samples" yaml:"n_samples"`
	NFeatures int     `json:"n_features" yaml:"n_features"`
}

// Registry stores model artifacts in a directory and keeps loaded models in memory.
type Registry struct {
	dir string

	mu     sync.RWMutex
	loaded map[string]*Linear
}

// NewRegistry returns a registry rooted at dir. The directory is created on first save.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		loaded: make(map[string]*Linear),
	}
}

// Dir returns the artifact directory.
func (r *Registry) Dir() string {
	return r.dir
}

// ValidateVersion rejects versions that cannot be used as a file name component.
func ValidateVersion(v string) error {
	if _, err := version.Parse(v); err != nil {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid model version",
			map[string]any{"version": v})
	}
	return nil
}

// ArtifactPath returns the model file of version.
func (r *Registry) ArtifactPath(version string) string {
	return filepath.Join(r.dir, artifactPrefix+version+artifactSuffix)
}

// MetricsPath returns the metrics file of version.
func (r *Registry) MetricsPath(version string) string {
	return filepath.Join(r.dir, artifactPrefix+version+metricsSuffix)
}

// Load returns the model for version. A version without an artifact yields
// Untrained and no error; an unreadable or invalid artifact is an error.
func (r *Registry) Load(version string) (Model, error) {
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}

	r.mu.RLock()
	m, ok := r.loaded[version]
	r.mu.RUnlock()
	if ok {
		registryLoads.WithLabelValues("hit").Inc()
		return m, nil
	}

	data, err := os.ReadFile(r.ArtifactPath(version))
	if err != nil {
		if os.IsNotExist(err) {
			registryLoads.WithLabelValues("absent").Inc()
			return NewUntrained(version), nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read model artifact", err)
	}

	var lm Linear
	if err := json.Unmarshal(data, &lm); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to decode model artifact", err)
	}
	if lm.ModelVersion == "" {
		lm.ModelVersion = version
	}
	if err := lm.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "invalid model artifact", err)
	}

	r.mu.Lock()
	r.loaded[version] = &lm
	r.mu.Unlock()

	registryLoads.WithLabelValues("miss").Inc()
	slog.Info("model loaded", "version", version, "path", r.ArtifactPath(version))

	return &lm, nil
}

// Save writes m and its metrics, replacing any previous artifact of the same version.
func (r *Registry) Save(m *Linear, metrics Metrics) error {
	if m == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "model is nil")
	}
	if err := ValidateVersion(m.ModelVersion); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "refusing to save invalid model", err)
	}

	if err := os.MkdirAll(r.dir, artifactDirPerm); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create model directory", err)
	}

	if err := writeJSONFile(r.ArtifactPath(m.ModelVersion), m); err != nil {
		return err
	}
	if err := writeJSONFile(r.MetricsPath(m.ModelVersion), metrics); err != nil {
		return err
	}

	r.mu.Lock()
	r.loaded[m.ModelVersion] = m
	r.mu.Unlock()

	slog.Info("model saved",
		"version", m.ModelVersion,
		"mae", metrics.MAE,
		"r2", metrics.R2,
		"samples", metrics.NSamples)

	return nil
}

// Metrics returns the recorded metrics of version.
func (r *Registry) Metrics(version string) (Metrics, error) {
	var m Metrics
	if err := ValidateVersion(version); err != nil {
		return m, err
	}
	data, err := os.ReadFile(r.MetricsPath(version))
	if err != nil {
		if os.IsNotExist(err) {
			return m, errors.NewWithContext(errors.ErrCodeNotFound, "model metrics not found",
				map[string]any{"version": version})
		}
		return m, errors.Wrap(errors.ErrCodeInternal, "failed to read model metrics", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Wrap(errors.ErrCodeInternal, "failed to decode model metrics", err)
	}
	return m, nil
}

// Versions lists the versions with an artifact in the directory, oldest first.
// A missing directory has no versions.
func (r *Registry) Versions() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to list model directory", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, artifactPrefix) || strings.HasSuffix(name, metricsSuffix) {
			continue
		}
		if !strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), artifactSuffix))
	}
	return version.Sort(versions), nil
}

// Latest returns the newest version with an artifact in the directory.
func (r *Registry) Latest() (string, error) {
	versions, err := r.Versions()
	if err != nil {
		return "", err
	}
	latest, ok := version.Latest(versions)
	if !ok {
		return "", errors.NewWithContext(errors.ErrCodeNotFound, "no trained models",
			map[string]any{"dir": r.dir})
	}
	return latest, nil
}

// Files returns the existing artifact files of version.
func (r *Registry) Files(version string) ([]string, error) {
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}
	var files []string
	for _, p := range []string{r.ArtifactPath(version), r.MetricsPath(version)} {
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "model artifact not found",
			map[string]any{"version": version, "dir": r.dir})
	}
	return files, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to encode "+filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, artifactPerm); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to write %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}
