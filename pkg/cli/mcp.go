/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/mcp"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:                  "mcp",
		EnableShellCompletion: true,
		Usage:                 "Serve the advisor as MCP tools over stdio",
		Description: `Run a Model Context Protocol server on stdin/stdout backed by the local
store and model directory. Tools: suggest_build_config, get_run_features,
list_models. Logs go to stderr.

Example client configuration:

  {"command": "imctl", "args": ["mcp", "--db", "./data/inframind.db"]}`,
		Flags: append([]cli.Flag{
			dbFlag(),
			cacheFlag(),
			modelDirFlag(),
			modelVersionFlag(),
		}, engineFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			engineOpts, err := engineOptions(cmd)
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, cmd, advisor.WithEngineOptions(engineOpts...))
			if err != nil {
				return err
			}
			defer b.Close()

			return mcp.Serve(ctx, b.svc, version, os.Stdin, os.Stdout)
		},
	}
}
