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

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/store"
)

const serverName = "build-advisor"

// Advisor is the part of the advisor service the tools call.
type Advisor interface {
	Optimize(ctx context.Context, req advisor.OptimizeRequest) (*advisor.OptimizeResponse, error)
	Features(ctx context.Context, runID string) (store.FeatureRecord, error)
	Models(ctx context.Context) (*advisor.ModelsResponse, error)
}

// NewServer returns an MCP server with every advisor tool registered.
func NewServer(a Advisor, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	suggest := NewSuggestTool(a)
	s.AddTool(suggest.Definition(), suggest.Handle)

	features := NewFeaturesTool(a)
	s.AddTool(features.Definition(), features.Handle)

	models := NewModelsTool(a)
	s.AddTool(models.Definition(), models.Handle)

	return s
}

// Serve runs the advisor tools over stdin and stdout until ctx is done or
// the input closes.
func Serve(ctx context.Context, a Advisor, version string, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(NewServer(a, version))
	slog.Info("mcp server listening on stdio", "name", serverName, "version", version)

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

const instructions = `Build advisor: suggests CI build resources (concurrency, CPU, memory, build cache).
Call suggest_build_config before a build of a pipeline and apply the returned suggestions.
Pass run_id of a finished run to reuse its telemetry, or context with observed values
such as max_rss_gb, num_steps and avg_step_duration_s.`

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns a service error into a tool error carrying its code.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errors.CodeOf(err), err))
}

// numberArg extracts a numeric argument. JSON numbers arrive as float64.
func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}
