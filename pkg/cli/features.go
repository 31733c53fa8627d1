/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/config"
	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/serializer"
	"github.com/inframind/build-advisor/pkg/server"
	"github.com/inframind/build-advisor/pkg/store"
)

func featuresCmd() *cli.Command {
	return &cli.Command{
		Name:                  "features",
		EnableShellCompletion: true,
		Usage:                 "Show the feature vector of a recorded run",
		Description: `Print the features computed when a run completed. The features are read
from the local store, or from a running advisor when --server is given.

# Examples

  imctl features --run-id 1234 --db ./data/inframind.db
  imctl features --run-id 1234 --recompute
  imctl features --run-id 1234 --server http://advisor:8080 --token $API_KEY`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "run-id",
				Usage:    "Run to show",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "recompute",
				Usage: "Recompute the features from the stored run and steps instead of reading the saved vector",
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Base URL of a running advisor (reads over HTTP instead of the local store)",
				Sources: cli.EnvVars("IM_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API key sent to --server",
				Sources: cli.EnvVars(config.EnvAPIKey),
			},
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			runID := cmd.String("run-id")

			var (
				rec store.FeatureRecord
				err error
			)
			if base := cmd.String("server"); base != "" {
				if cmd.Bool("recompute") {
					return fmt.Errorf("--recompute is not supported with --server")
				}
				rec, err = fetchFeatures(ctx, base, cmd.String("token"), runID)
			} else {
				rec, err = localFeatures(ctx, cmd, runID)
			}
			if err != nil {
				return err
			}

			return writeOutput(ctx, cmd, newDocument(header.KindRunFeatures, rec))
		},
	}
}

func localFeatures(ctx context.Context, cmd *cli.Command, runID string) (store.FeatureRecord, error) {
	b, err := openBackend(ctx, cmd)
	if err != nil {
		return store.FeatureRecord{}, err
	}
	defer b.Close()

	if cmd.Bool("recompute") {
		return b.svc.ComputeFeatures(ctx, runID)
	}
	return b.svc.Features(ctx, runID)
}

// fetchFeatures reads GET /v1/features/{run_id} from a running advisor.
func fetchFeatures(ctx context.Context, base, token, runID string) (store.FeatureRecord, error) {
	var rec store.FeatureRecord

	opts := []serializer.HttpReaderOption{}
	if token != "" {
		opts = append(opts, serializer.WithHeader(server.APIKeyHeader, token))
	}
	reader := serializer.NewHttpReader(opts...)

	endpoint := strings.TrimRight(base, "/") + "/v1/features/" + url.PathEscape(runID)
	data, err := reader.ReadWithContext(ctx, endpoint)
	if err != nil {
		return rec, fmt.Errorf("failed to fetch features for %q: %w", runID, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode features response: %w", err)
	}
	return rec, nil
}
