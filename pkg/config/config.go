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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/serializer"
	"github.com/inframind/build-advisor/pkg/store"
)

// Environment variables read by Load.
const (
	EnvConfigFile      = "IM_CONFIG"
	EnvAPIKey          = "API_KEY"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvRedisURL        = "REDIS_URL"
	EnvModelPath       = "MODEL_PATH"
	EnvModelVersion    = "MODEL_VERSION"
	EnvFeatureCacheTTL = "FEATURE_CACHE_TTL"
	EnvSafeMultiplier  = "SAFE_MULTIPLIER"
	EnvExplorationRate = "EXPLORATION_RATE"
	EnvExplorationSeed = "EXPLORATION_SEED"
	EnvLogLevel        = "LOG_LEVEL"
	EnvPort            = "PORT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT_SECONDS"
)

// Defaults for settings not provided by file or env.
const (
	DefaultModelPath    = "./models"
	DefaultModelVersion = "v1"
	DefaultLogLevel     = "info"
	DefaultPort         = 8080
)

// Settings configures the advisor daemon and the CLI commands that open the store.
type Settings struct {
	APIKey       string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	DatabaseURL  string `json:"databaseUrl" yaml:"databaseUrl"`
	RedisURL     string `json:"redisUrl,omitempty" yaml:"redisUrl,omitempty"`
	ModelPath    string `json:"modelPath" yaml:"modelPath"`
	ModelVersion string `json:"modelVersion" yaml:"modelVersion"`

	// FeatureCacheTTL is in seconds.
	FeatureCacheTTL int `json:"featureCacheTtl" yaml:"featureCacheTtl"`

	SafeMultiplier  float64 `json:"safeMultiplier" yaml:"safeMultiplier"`
	ExplorationRate float64 `json:"explorationRate" yaml:"explorationRate"`
	// ExplorationSeed of 0 seeds from the clock.
	ExplorationSeed uint64 `json:"explorationSeed,omitempty" yaml:"explorationSeed,omitempty"`

	LogLevel string `json:"logLevel" yaml:"logLevel"`

	Port                   int `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int `json:"shutdownTimeoutSeconds" yaml:"shutdownTimeoutSeconds"`
}

// Default returns settings with every default applied.
func Default() *Settings {
	return &Settings{
		DatabaseURL:            store.DefaultDSN,
		ModelPath:              DefaultModelPath,
		ModelVersion:           DefaultModelVersion,
		FeatureCacheTTL:        int(defaults.FeatureCacheTTL / time.Second),
		SafeMultiplier:         optimizer.DefaultSafeMultiplier,
		ExplorationRate:        optimizer.DefaultExplorationRate,
		LogLevel:               DefaultLogLevel,
		Port:                   DefaultPort,
		ShutdownTimeoutSeconds: int(defaults.ServerShutdownTimeout / time.Second),
	}
}

// Load builds settings from defaults, then the YAML or JSON file named by
// IM_CONFIG (a path, URL or cm:// URI), then environment variables.
func Load() (*Settings, error) {
	s := Default()

	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := s.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile overlays the non-zero values of a settings file.
func (s *Settings) ApplyFile(path string) error {
	f, err := serializer.FromFile[Settings](path)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest, "failed to load settings file", err,
			map[string]any{"path": path})
	}
	s.merge(f)
	return nil
}

func (s *Settings) merge(f *Settings) {
	if f.APIKey != "" {
		s.APIKey = f.APIKey
	}
	if f.DatabaseURL != "" {
		s.DatabaseURL = f.DatabaseURL
	}
	if f.RedisURL != "" {
		s.RedisURL = f.RedisURL
	}
	if f.ModelPath != "" {
		s.ModelPath = f.ModelPath
	}
	if f.ModelVersion != "" {
		s.ModelVersion = f.ModelVersion
	}
	if f.FeatureCacheTTL != 0 {
		s.FeatureCacheTTL = f.FeatureCacheTTL
	}
	if f.SafeMultiplier != 0 {
		s.SafeMultiplier = f.SafeMultiplier
	}
	// a file cannot turn exploration off with 0; use EXPLORATION_RATE=0
	if f.ExplorationRate != 0 {
		s.ExplorationRate = f.ExplorationRate
	}
	if f.ExplorationSeed != 0 {
		s.ExplorationSeed = f.ExplorationSeed
	}
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
	if f.Port != 0 {
		s.Port = f.Port
	}
	if f.ShutdownTimeoutSeconds != 0 {
		s.ShutdownTimeoutSeconds = f.ShutdownTimeoutSeconds
	}
}

// ApplyEnv overlays values found through lookup, normally os.LookupEnv.
// Empty values are ignored; malformed numbers are an error.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvAPIKey, &s.APIKey)
	str(EnvDatabaseURL, &s.DatabaseURL)
	str(EnvRedisURL, &s.RedisURL)
	str(EnvModelPath, &s.ModelPath)
	str(EnvModelVersion, &s.ModelVersion)
	str(EnvLogLevel, &s.LogLevel)

	var errs []string
	parse := func(key string, set func(string) error) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		if err := set(strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q", key, v))
		}
	}

	parse(EnvFeatureCacheTTL, intInto(&s.FeatureCacheTTL))
	parse(EnvPort, intInto(&s.Port))
	parse(EnvShutdownTimeout, intInto(&s.ShutdownTimeoutSeconds))
	parse(EnvSafeMultiplier, floatInto(&s.SafeMultiplier))
	parse(EnvExplorationRate, floatInto(&s.ExplorationRate))
	parse(EnvExplorationSeed, func(v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err == nil {
			s.ExplorationSeed = n
		}
		return err
	})

	if len(errs) > 0 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "malformed environment settings",
			map[string]any{"values": errs})
	}
	return nil
}

func intInto(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*dst = n
		}
		return err
	}
}

func floatInto(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			*dst = f
		}
		return err
	}
}

// Validate checks the engine tunables and the numeric ranges.
func (s *Settings) Validate() error {
	switch {
	case s.SafeMultiplier < 1:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "safe multiplier must be at least 1",
			map[string]any{"safeMultiplier": s.SafeMultiplier})
	case s.ExplorationRate < 0 || s.ExplorationRate > 1:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "exploration rate must be within [0, 1]",
			map[string]any{"explorationRate": s.ExplorationRate})
	case s.FeatureCacheTTL < 0:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "feature cache TTL cannot be negative",
			map[string]any{"featureCacheTtl": s.FeatureCacheTTL})
	case s.Port < 0 || s.Port > 65535:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "port out of range",
			map[string]any{"port": s.Port})
	case s.ShutdownTimeoutSeconds <= 0:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "shutdown timeout must be positive",
			map[string]any{"shutdownTimeoutSeconds": s.ShutdownTimeoutSeconds})
	}
	return nil
}

// EngineConfig returns the optimizer tunables.
func (s *Settings) EngineConfig() optimizer.Config {
	return optimizer.Config{
		SafeMultiplier:  s.SafeMultiplier,
		ExplorationRate: s.ExplorationRate,
	}
}

// EngineOptions returns the optimizer options, seeding exploration when a seed is set.
func (s *Settings) EngineOptions() []optimizer.Option {
	opts := []optimizer.Option{optimizer.WithConfig(s.EngineConfig())}
	if s.ExplorationSeed != 0 {
		opts = append(opts, optimizer.WithSeed(s.ExplorationSeed))
	}
	return opts
}

// FeatureTTL returns FeatureCacheTTL as a duration.
func (s *Settings) FeatureTTL() time.Duration {
	return time.Duration(s.FeatureCacheTTL) * time.Second
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (s *Settings) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Redacted returns a copy safe to log.
func (s Settings) Redacted() Settings {
	if s.APIKey != "" {
		s.APIKey = "***"
	}
	return s
}
