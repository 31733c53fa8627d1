/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/cache"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/serializer"
)

func suggestCmd() *cli.Command {
	return &cli.Command{
		Name:                  "suggest",
		EnableShellCompletion: true,
		Usage:                 "Suggest a build configuration for a context",
		Description: `Run the optimizer locally against a build context and print the
configuration with the lowest predicted duration.

The context is a flat map of build features, for example:

  last_success:
    concurrency: 4
    cpu_req: 4
    mem_req_gb: 8
    cache_size_gb: 10
  max_rss_gb: 6.5
  num_steps: 12
  avg_step_duration_s: 40

A document written by "imctl features" is accepted as well. Individual keys
can be set or overridden with --set key=value.

# Examples

  imctl suggest --context ctx.yaml --max-concurrency 8
  imctl suggest --set num_steps=20 --seed 7 --format json
  imctl suggest --context cm://ci/build-context --output cm://ci/build-advice`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "context",
				Aliases: []string{"f"},
				Usage: `Path/URI of the build context.
	Supports: file paths, HTTP/HTTPS URLs, or ConfigMap URIs (cm://namespace/name).`,
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Context value as key=value (can be repeated)",
			},
			&cli.IntFlag{
				Name:  "max-concurrency",
				Usage: "Cap the suggested concurrency (0 for no cap)",
			},
			&cli.FloatFlag{
				Name:  "min-ram-gb",
				Usage: "Floor for the suggested memory in GiB (0 for no floor)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for computing the suggestion",
				Value: defaults.CLISuggestTimeout,
			},
			modelDirFlag(),
			modelVersionFlag(),
			cacheFlag(),
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		}, engineFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			engineOpts, err := engineOptions(cmd)
			if err != nil {
				return err
			}

			cons := optimizer.Constraints{
				MaxConcurrency: cmd.Int("max-concurrency"),
				MinRAMGB:       cmd.Float("min-ram-gb"),
			}
			if cons.MaxConcurrency < 0 || cons.MinRAMGB < 0 {
				return fmt.Errorf("constraints must not be negative")
			}

			bc, err := loadContext(cmd.String("context"), cmd.String("kubeconfig"), cmd.StringSlice("set"))
			if err != nil {
				return err
			}

			registry := model.NewRegistry(cmd.String("model-dir"))
			fallback := resolveModelVersion(cmd, registry)

			var versions model.VersionSource
			if url := cmd.String("cache"); url != "" {
				c, err := cache.Open(url)
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}
				defer func() { _ = c.Close() }()
				versions = cache.NewVersionStore(c, fallback)
			}

			engine := optimizer.New(model.NewPredictor(registry, versions, fallback), engineOpts...)

			sctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			s, err := engine.Suggest(sctx, bc, cons)
			if err != nil {
				return fmt.Errorf("failed to compute suggestion: %w", err)
			}

			slog.Info("suggestion computed",
				"concurrency", s.Config.Concurrency,
				"cpu_req", s.Config.CPUReq,
				"mem_req_gb", s.Config.MemReqGB,
				"predicted_s", s.PredictedSeconds,
				"model_version", s.ModelVersion)

			return writeOutput(ctx, cmd, newDocument(header.KindBuildSuggestion, s))
		},
	}
}

// loadContext reads the build context from path, if any, and applies key=value overrides.
func loadContext(path, kubeconfig string, sets []string) (optimizer.Context, error) {
	bc := optimizer.Context{}
	if path != "" {
		raw, err := serializer.FromFileWithKubeconfig[map[string]any](path, kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load context from %q: %w", path, err)
		}
		bc = contextFromDocument(*raw)
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		bc[key] = parseScalar(strings.TrimSpace(value))
	}
	return bc, nil
}

// contextFromDocument unwraps a features document (spec.vector) or returns raw as is.
func contextFromDocument(raw map[string]any) optimizer.Context {
	if spec, ok := raw["spec"].(map[string]any); ok {
		if vector, ok := spec["vector"].(map[string]any); ok {
			return optimizer.Context(vector)
		}
	}
	return optimizer.Context(raw)
}

func parseScalar(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
