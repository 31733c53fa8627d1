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
	"context"
	"log/slog"
	"time"

	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/store"
)

// Service answers optimization requests and ingests build telemetry.
// It is safe for concurrent use.
type Service struct {
	store        *store.Store
	cache        cache.Cache
	registry     *model.Registry
	versions     model.VersionSource
	predictor    *model.Predictor
	engine       *optimizer.Engine
	engineOpts   []optimizer.Option
	trainOpts    []model.TrainOption
	featureTTL   time.Duration
	modelVersion string
	now          func() time.Time
}

// Option is a functional option for configuring Service instances.
type Option func(*Service)

// WithCache sets the cache for features, suggestions and the active model
// version. Defaults to an in-process cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithVersions sets where the active model version is kept.
// Defaults to the cache.
func WithVersions(v model.VersionSource) Option {
	return func(s *Service) {
		s.versions = v
	}
}

// WithEngineOptions passes options to the optimizer engine.
func WithEngineOptions(opts ...optimizer.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithTrainOptions passes options to every training run.
func WithTrainOptions(opts ...model.TrainOption) Option {
	return func(s *Service) {
		s.trainOpts = append(s.trainOpts, opts...)
	}
}

// WithFeatureTTL sets how long computed features stay cached.
func WithFeatureTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.featureTTL = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithModelVersion sets the version used when no active version has been recorded.
func WithModelVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.modelVersion = version
		}
	}
}

// New returns a Service backed by st and registry.
func New(st *store.Store, registry *model.Registry, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "store is required")
	}
	if registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "model registry is required")
	}

	s := &Service{
		store:        st,
		registry:     registry,
		featureTTL:   defaults.FeatureCacheTTL,
		modelVersion: model.DefaultVersion,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.versions == nil {
		s.versions = cache.NewVersionStore(s.cache, s.modelVersion)
	}

	s.predictor = model.NewPredictor(registry, s.versions, s.modelVersion)
	s.engine = optimizer.New(s.predictor, s.engineOpts...)

	if err := s.engine.Config().Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid engine configuration", err)
	}

	return s, nil
}

// Engine returns the optimizer engine used for suggestions.
func (s *Service) Engine() *optimizer.Engine {
	return s.engine
}

// Store returns the backing store.
func (s *Service) Store() *store.Store {
	return s.store
}

// cacheGet reads a JSON value, treating cache errors as misses.
func cacheGet[T any](ctx context.Context, c cache.Cache, key string) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, defaults.CacheOperationTimeout)
	defer cancel()

	v, ok, err := cache.GetJSON[T](ctx, c, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		return v, false
	}
	return v, ok
}

// cacheSet writes a JSON value; failures are logged and otherwise ignored.
func cacheSet(ctx context.Context, c cache.Cache, key string, v any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, defaults.CacheOperationTimeout)
	defer cancel()

	if err := cache.SetJSON(ctx, c, key, v, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
