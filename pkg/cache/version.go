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
	"log/slog"

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/model"
)

// VersionStore keeps the active model version in a Cache.
type VersionStore struct {
	cache    Cache
	fallback string
}

// NewVersionStore returns a model.VersionSource reading ActiveModelKey from c.
// fallback is reported while the key is unset.
func NewVersionStore(c Cache, fallback string) *VersionStore {
	if fallback == "" {
		fallback = model.DefaultVersion
	}
	return &VersionStore{cache: c, fallback: fallback}
}

// ActiveVersion implements model.VersionSource.
func (v *VersionStore) ActiveVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.CacheOperationTimeout)
	defer cancel()

	data, ok, err := v.cache.Get(ctx, ActiveModelKey)
	if err != nil {
		return v.fallback, err
	}
	if !ok || len(data) == 0 {
		return v.fallback, nil
	}
	return string(data), nil
}

// SetActiveVersion implements model.VersionSource.
func (v *VersionStore) SetActiveVersion(ctx context.Context, version string) error {
	if err := model.ValidateVersion(version); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.CacheOperationTimeout)
	defer cancel()

	if err := v.cache.Set(ctx, ActiveModelKey, []byte(version), 0); err != nil {
		return err
	}
	slog.Info("active model version changed", "version", version)
	return nil
}
