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

package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/inframind/build-advisor/pkg/errors"
)

// Key layout shared by every backend.
const (
	featurePrefix        = "im:feat:"
	lastSuggestionPrefix = "im:last_suggest:"

	// ActiveModelKey holds the model version used for predictions.
	ActiveModelKey = "im:model:active"
)

// FeatureKey is the key of the cached features of a run.
func FeatureKey(runID string) string {
	return featurePrefix + runID
}

// LastSuggestionKey is the key of the latest suggestion for a pipeline.
func LastSuggestionKey(pipeline string) string {
	return lastSuggestionPrefix + pipeline
}

// Cache is a byte-oriented key/value store with optional expiry.
// A zero TTL stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the cache described by url: empty or memory:// for an
// in-process cache, redis:// or rediss:// for Redis.
func Open(url string) (Cache, error) {
	switch {
	case url == "", strings.HasPrefix(url, "memory://"):
		return NewMemory(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedis(url)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "unsupported cache URL",
			map[string]any{"scheme": scheme(url)})
	}
}

func scheme(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i]
	}
	return url
}

// GetJSON decodes the JSON value under key into a T.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, errors.WrapWithContext(errors.ErrCodeInternal, "cached value is not valid JSON", err,
			map[string]any{"key": key})
	}
	return v, true, nil
}

// SetJSON stores v as JSON under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "value is not serializable", err,
			map[string]any{"key": key})
	}
	return c.Set(ctx, key, data, ttl)
}
