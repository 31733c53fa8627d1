/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/oci"
)

// modelList is the model list output.
type modelList struct {
	Active   string              `json:"active" yaml:"active"`
	Latest   string              `json:"latest,omitempty" yaml:"latest,omitempty"`
	Versions []string            `json:"versions" yaml:"versions"`
	Records  []modelRecordOutput `json:"records,omitempty" yaml:"records,omitempty"`
}

type modelRecordOutput struct {
	Version string         `json:"version" yaml:"version"`
	Algo    string         `json:"algo" yaml:"algo"`
	Metrics map[string]any `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Created string         `json:"created" yaml:"created"`
}

func modelCmd() *cli.Command {
	return &cli.Command{
		Name:                  "model",
		EnableShellCompletion: true,
		Usage:                 "Manage trained models",
		Commands: []*cli.Command{
			modelListCmd(),
			modelActivateCmd(),
			modelPushCmd(),
		},
	}
}

func modelListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List trained model versions and the active one",
		Flags: []cli.Flag{
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
			modelVersionFlag(),
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			b, err := openBackend(ctx, cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			resp, err := b.svc.Models(ctx)
			if err != nil {
				return err
			}

			out := modelList{
				Active:   resp.Active,
				Versions: resp.Versions,
			}
			if latest, err := b.registry.Latest(); err == nil {
				out.Latest = latest
			}
			for _, r := range resp.Models {
				out.Records = append(out.Records, modelRecordOutput{
					Version: r.Version,
					Algo:    r.Algo,
					Metrics: r.Metrics,
					Created: r.CreatedAt.UTC().Format(time.RFC3339),
				})
			}

			return writeOutput(ctx, cmd, newDocument(header.KindModelList, out))
		},
	}
}

func modelActivateCmd() *cli.Command {
	return &cli.Command{
		Name:      "activate",
		Usage:     "Make a saved model version the active one",
		ArgsUsage: "VERSION",
		Description: `Record VERSION as the active model in the cache shared with the advisor.
The version must have an artifact in --model-dir.

  imctl model activate v20260102_030405 --cache redis://localhost:6379/0`,
		Flags: []cli.Flag{
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			v := cmd.Args().First()
			if v == "" {
				return fmt.Errorf("model version argument is required")
			}
			if cmd.String("cache") == "" {
				slog.Warn("no --cache given, activation only lasts for this command")
			}

			b, err := openBackend(ctx, cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.svc.Activate(ctx, v); err != nil {
				return fmt.Errorf("failed to activate %s: %w", v, err)
			}
			slog.Info("model activated", "version", v)
			return nil
		},
	}
}

func modelPushCmd() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Push a saved model to an OCI registry",
		ArgsUsage: "[VERSION]",
		Description: `Push the artifact and metrics files of a model version (default: the
newest in --model-dir) as one OCI artifact. Registry credentials come from
the Docker credential store.

  imctl model push v20260102_030405 --target oci://ghcr.io/acme/build-models
  imctl model push --target oci://localhost:5000/models:latest --plain-http`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "target",
				Usage:    "Destination (oci://registry/repository[:tag], tag defaults to the model version)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry (local registries)",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the registry",
			},
			modelDirFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			ref, err := oci.ParseReference(cmd.String("target"))
			if err != nil {
				return err
			}

			registry := model.NewRegistry(cmd.String("model-dir"))
			v := cmd.Args().First()
			if v == "" {
				if v, err = registry.Latest(); err != nil {
					return err
				}
			}

			files, err := registry.Files(v)
			if err != nil {
				return err
			}

			res, err := pushModel(ctx, cmd, ref, v, files)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, res)
		},
	}
}
