/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/advisor"
)

// seedReport is the seed command output.
type seedReport struct {
	advisor.DemoResult `json:",inline" yaml:",inline"`
	Model              *advisor.TrainResult `json:"model,omitempty" yaml:"model,omitempty"`
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:                  "seed",
		EnableShellCompletion: true,
		Usage:                 "Generate demo runs",
		Description: `Record synthetic successful runs of a demo pipeline so suggestions and
training can be tried without a CI system. Larger resources give shorter
durations, with noise.

# Examples

  imctl seed --runs 50 --train
  imctl seed --pipeline acme/web --runs 20 --seed 42`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pipeline",
				Usage: "Pipeline name",
				Value: advisor.DemoPipeline,
			},
			&cli.IntFlag{
				Name:  "runs",
				Usage: "Number of runs to generate",
				Value: advisor.DemoRuns,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed (0 seeds from the clock)",
			},
			&cli.BoolFlag{
				Name:  "train",
				Usage: "Train and activate a model once the runs are recorded",
			},
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
			outputFlag(),
			formatFlag(),
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

			res, err := b.svc.SeedDemo(ctx, advisor.DemoOptions{
				Pipeline: cmd.String("pipeline"),
				Runs:     cmd.Int("runs"),
				Seed:     cmd.Uint64("seed"),
			})
			if err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}

			report := &seedReport{DemoResult: *res}
			if cmd.Bool("train") {
				trained, err := b.svc.Train(ctx, advisor.TrainRequest{Pipeline: res.Pipeline})
				if err != nil {
					return fmt.Errorf("training failed: %w", err)
				}
				report.Model = trained
			}

			return writeOutput(ctx, cmd, report)
		},
	}
}
