/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/config"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/serializer"
	"github.com/inframind/build-advisor/pkg/store"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage: `Output destination: file path, ConfigMap URI (cm://namespace/name), or stdout when empty.
	ConfigMap output uses the current kubeconfig context.`,
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Usage:   "Path to kubeconfig file for ConfigMap input/output (default: KUBECONFIG, then ~/.kube/config)",
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Usage:   "Database DSN: SQLite file path or postgres:// URL",
		Value:   store.DefaultDSN,
		Sources: cli.EnvVars(config.EnvDatabaseURL),
	}
}

func cacheFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "cache",
		Usage:   "Cache URL (memory:// or redis://host:port/db). Active model versions persist only in Redis.",
		Sources: cli.EnvVars(config.EnvRedisURL),
	}
}

func modelDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "model-dir",
		Usage:   "Directory holding model artifacts",
		Value:   config.DefaultModelPath,
		Sources: cli.EnvVars(config.EnvModelPath),
	}
}

func modelVersionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "model-version",
		Usage:   "Model version used when none is active (default: newest in --model-dir, else v1)",
		Sources: cli.EnvVars(config.EnvModelVersion),
	}
}

// engineFlags configure candidate scoring and exploration.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:    "safe-multiplier",
			Usage:   "Minimum memory as a multiple of the observed peak RSS",
			Value:   optimizer.DefaultSafeMultiplier,
			Sources: cli.EnvVars(config.EnvSafeMultiplier),
		},
		&cli.FloatFlag{
			Name:    "exploration-rate",
			Usage:   "Probability of adding one random candidate (0 disables exploration)",
			Value:   optimizer.DefaultExplorationRate,
			Sources: cli.EnvVars(config.EnvExplorationRate),
		},
		&cli.Uint64Flag{
			Name:    "seed",
			Usage:   "Exploration seed for reproducible suggestions (0 seeds from the clock)",
			Sources: cli.EnvVars(config.EnvExplorationSeed),
		},
	}
}

// parseOutputFormat returns the --format value or an error naming the supported formats.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported values: %s)",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// engineOptions validates the engine flags and turns them into optimizer options.
func engineOptions(cmd *cli.Command) ([]optimizer.Option, error) {
	cfg := optimizer.Config{
		SafeMultiplier:  cmd.Float("safe-multiplier"),
		ExplorationRate: cmd.Float("exploration-rate"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine flags: %w", err)
	}
	opts := []optimizer.Option{optimizer.WithConfig(cfg)}
	if seed := cmd.Uint64("seed"); seed != 0 {
		opts = append(opts, optimizer.WithSeed(seed))
	}
	return opts, nil
}

// resolveModelVersion picks --model-version, else the newest artifact, else the default.
func resolveModelVersion(cmd *cli.Command, registry *model.Registry) string {
	if v := cmd.String("model-version"); v != "" {
		return v
	}
	if latest, err := registry.Latest(); err == nil {
		return latest
	}
	return model.DefaultVersion
}

// document is the envelope of every imctl output.
type document struct {
	header.Header `json:",inline" yaml:",inline"`
	Spec          any `json:"spec" yaml:"spec"`
}

func newDocument(kind header.Kind, spec any) *document {
	doc := &document{Spec: spec}
	doc.Init(kind, version)
	return doc
}

// writeOutput serializes doc to the --output destination in --format.
func writeOutput(ctx context.Context, cmd *cli.Command, doc any) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	if cm, ok := ser.(*serializer.ConfigMapWriter); ok {
		cm.WithKubeconfig(cmd.String("kubeconfig"))
	}
	defer func() {
		if err := serializer.Close(ser); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()

	return ser.Serialize(ctx, doc)
}

// backend is the local advisor stack opened by commands that need the store.
type backend struct {
	svc      *advisor.Service
	store    *store.Store
	cache    cache.Cache
	registry *model.Registry
}

// openBackend opens the store, cache and model registry named by the command flags.
func openBackend(ctx context.Context, cmd *cli.Command, opts ...advisor.Option) (*backend, error) {
	openCtx, cancel := context.WithTimeout(ctx, defaults.StoreOpenTimeout)
	defer cancel()

	st, err := store.Open(openCtx, cmd.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	c, err := cache.Open(cmd.String("cache"))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	registry := model.NewRegistry(cmd.String("model-dir"))
	fallback := resolveModelVersion(cmd, registry)

	base := []advisor.Option{
		advisor.WithCache(c),
		advisor.WithVersions(cache.NewVersionStore(c, fallback)),
		advisor.WithModelVersion(fallback),
	}
	svc, err := advisor.New(st, registry, append(base, opts...)...)
	if err != nil {
		_ = c.Close()
		_ = st.Close()
		return nil, err
	}

	return &backend{svc: svc, store: st, cache: c, registry: registry}, nil
}

func (b *backend) Close() {
	if err := errors.Join(b.cache.Close(), b.store.Close()); err != nil {
		slog.Warn("failed to close backend", "error", err)
	}
}
