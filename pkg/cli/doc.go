/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
// Package cli implements imctl, the command-line interface of the build advisor.
//
// # Commands
//
// suggest - Compute a suggestion locally:
//
//	imctl suggest --context ctx.yaml [--max-concurrency N] [--min-ram-gb G] [--output cm://ns/name]
//
// Scores candidate configurations around the context's last successful one
// with the active model (or the duration heuristic when none is trained).
//
// features - Show the features of a run:
//
//	imctl features --run-id ID [--recompute] [--server URL --token KEY]
//
// train - Fit a duration model from recorded runs:
//
//	imctl train [--pipeline P] [--limit N] [--push oci://registry/repo[:tag]]
//
// seed - Generate demo runs:
//
//	imctl seed [--runs 50] [--seed S] [--train]
//
// model - Manage trained models:
//
//	imctl model list
//	imctl model activate VERSION --cache redis://host:6379/0
//	imctl model push [VERSION] --target oci://registry/repo
//
// mcp - Serve suggest and features as MCP tools over stdio:
//
//	imctl mcp --db ./data/inframind.db
//
// # Output
//
// Commands that print documents accept:
//
//	--output, -o   file path, cm://namespace/name, or stdout when empty
//	--format, -t   yaml (default), json, table
//
// Documents carry a kind, apiVersion and metadata header.
//
// # Environment
//
// DATABASE_URL, REDIS_URL, MODEL_PATH, MODEL_VERSION, SAFE_MULTIPLIER,
// EXPLORATION_RATE, EXPLORATION_SEED and LOG_LEVEL provide flag defaults.
package cli
