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

package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/config"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/logging"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/server"
	"github.com/inframind/build-advisor/pkg/store"
)

const (
	name           = "imd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/inframind/build-advisor/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve loads settings from the environment, starts the API server and
// blocks until SIGINT or SIGTERM.
func Serve() error {
	ctx := context.Background()

	settings, err := config.Load()
	if err != nil {
		logging.SetDefaultStructuredLogger(name, version)
		slog.Error("invalid settings", "error", err)
		return err
	}

	logging.SetDefaultStructuredLoggerWithLevel(name, version, settings.LogLevel)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	app, err := New(ctx, settings)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			slog.Warn("failed to release resources", "error", cerr)
		}
	}()

	if err := app.Server.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// App is a fully wired advisor daemon.
type App struct {
	Server  *server.Server
	Service *advisor.Service

	store *store.Store
	cache cache.Cache
}

// New opens the store and cache named by settings and wires the advisor
// service into an HTTP server. Close releases both.
func New(ctx context.Context, settings *config.Settings) (*App, error) {
	openCtx, cancel := context.WithTimeout(ctx, defaults.StoreOpenTimeout)
	defer cancel()

	st, err := store.Open(openCtx, settings.DatabaseURL)
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(settings.RedisURL)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc, err := advisor.New(st, model.NewRegistry(settings.ModelPath),
		advisor.WithCache(c),
		advisor.WithVersions(cache.NewVersionStore(c, settings.ModelVersion)),
		advisor.WithModelVersion(settings.ModelVersion),
		advisor.WithEngineOptions(settings.EngineOptions()...),
		advisor.WithFeatureTTL(settings.FeatureTTL()),
	)
	if err != nil {
		_ = c.Close()
		_ = st.Close()
		return nil, err
	}

	cfg := server.NewConfig()
	cfg.Port = settings.Port
	cfg.ShutdownTimeout = settings.ShutdownTimeout()

	srv := server.New(
		server.WithConfig(cfg),
		server.WithName(name),
		server.WithVersion(version),
		server.WithAPIKey(settings.APIKey),
		server.WithHandler(svc.Handlers()),
		server.WithReadinessCheck("store", st.Ping),
		server.WithReadinessCheck("cache", c.Ping),
	)

	return &App{
		Server:  srv,
		Service: svc,
		store:   st,
		cache:   c,
	}, nil
}

// Close releases the cache and the store.
func (a *App) Close() error {
	return errors.Join(a.cache.Close(), a.store.Close())
}
