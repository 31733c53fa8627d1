/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/oci"
)

// trainReport is the train command output.
type trainReport struct {
	advisor.TrainResult `json:",inline" yaml:",inline"`
	Push                *oci.PushResult `json:"push,omitempty" yaml:"push,omitempty"`
}

func trainCmd() *cli.Command {
	return &cli.Command{
		Name:                  "train",
		EnableShellCompletion: true,
		Usage:                 "Train a duration model from recorded runs",
		Description: `Fit a ridge regression of build duration on the features of the most
recent successful runs, save it to --model-dir, record it in the store and,
unless --no-activate is given, make it the active version.

At least 10 runs with a duration are required.

# Examples

  imctl train --pipeline demo/example-app
  imctl train --limit 200 --push oci://ghcr.io/acme/build-models`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "pipeline",
				Usage: "Train on one pipeline only (default: all pipelines)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of most recent successful runs to use",
				Value: defaults.TrainingRunLimit,
			},
			&cli.BoolFlag{
				Name:  "no-activate",
				Usage: "Save the model without making it the active version",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for training",
				Value: defaults.CLITrainTimeout,
			},
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		}, pushFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}

			var ref *oci.Reference
			if target := cmd.String("push"); target != "" {
				r, err := oci.ParseReference(target)
				if err != nil {
					return err
				}
				ref = r
			}

			b, err := openBackend(ctx, cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			tctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			activate := !cmd.Bool("no-activate")
			res, err := b.svc.Train(tctx, advisor.TrainRequest{
				Pipeline: cmd.String("pipeline"),
				Limit:    cmd.Int("limit"),
				Activate: &activate,
			})
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}
			if activate && cmd.String("cache") == "" {
				slog.Warn("active version is not persisted without --cache; servers fall back to MODEL_VERSION",
					"version", res.Version)
			}

			report := &trainReport{TrainResult: *res}
			if ref != nil {
				pushed, err := pushModel(ctx, cmd, ref, res.Version, res.Files)
				if err != nil {
					return err
				}
				report.Push = pushed
			}

			return writeOutput(ctx, cmd, newDocument(header.KindTrainResult, report))
		},
	}
}

func pushFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "push",
			Usage: "Push the model artifacts to an OCI registry (oci://registry/repository[:tag], tag defaults to the model version)",
		},
		&cli.BoolFlag{
			Name:  "plain-http",
			Usage: "Use HTTP instead of HTTPS for the registry (local registries)",
		},
		&cli.BoolFlag{
			Name:  "insecure-tls",
			Usage: "Skip TLS certificate verification for the registry",
		},
	}
}

func pushModel(ctx context.Context, cmd *cli.Command, ref *oci.Reference, modelVersion string, files []string) (*oci.PushResult, error) {
	pctx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
	defer cancel()

	res, err := oci.Push(pctx, oci.PushOptions{
		Files:       files,
		Reference:   ref,
		Version:     modelVersion,
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure-tls"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to push model %s: %w", modelVersion, err)
	}

	slog.Info("model pushed", "version", modelVersion, "reference", res.Reference, "digest", res.Digest)
	return res, nil
}
