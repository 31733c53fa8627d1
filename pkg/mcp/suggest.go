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
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inframind/build-advisor/pkg/advisor"
	"github.com/inframind/build-advisor/pkg/optimizer"
)

// SuggestTool handles the suggest_build_config tool.
type SuggestTool struct {
	advisor Advisor
}

// NewSuggestTool creates a SuggestTool.
func NewSuggestTool(a Advisor) *SuggestTool {
	return &SuggestTool{advisor: a}
}

// Definition returns the tool schema.
func (t *SuggestTool) Definition() mcp.Tool {
	return mcp.NewTool("suggest_build_config",
		mcp.WithDescription(
			"Suggest resources for the next build of a pipeline. "+
				"Returns concurrency, cpu_req, mem_req_gb and cache settings with the predicted duration, "+
				"a rationale and a confidence. The suggestion is recorded for the pipeline.",
		),
		mcp.WithString("pipeline",
			mcp.Required(),
			mcp.Description("Pipeline name, for example 'acme/web'."),
		),
		mcp.WithString("run_id",
			mcp.Description("A finished run whose stored features seed the context."),
		),
		mcp.WithObject("context",
			mcp.Description("Build context values, for example {\"max_rss_gb\": 6, \"num_steps\": 12}."),
		),
		mcp.WithNumber("max_concurrency",
			mcp.Description("Cap for the suggested concurrency."),
		),
		mcp.WithNumber("min_ram_gb",
			mcp.Description("Floor for the suggested memory in GiB."),
		),
	)
}

// Handle serves a suggest_build_config call.
func (t *SuggestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline := strings.TrimSpace(req.GetString("pipeline", ""))
	if pipeline == "" {
		return mcp.NewToolResultError("'pipeline' is required"), nil
	}

	oreq := advisor.OptimizeRequest{
		Pipeline: pipeline,
		RunID:    strings.TrimSpace(req.GetString("run_id", "")),
	}
	if raw, ok := req.GetArguments()["context"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("'context' must be an object"), nil
		}
		oreq.Context = optimizer.Context(m)
	}
	if v, ok := numberArg(req, "max_concurrency"); ok {
		oreq.Constraints.MaxConcurrency = int(v)
	}
	if v, ok := numberArg(req, "min_ram_gb"); ok {
		oreq.Constraints.MinRAMGB = v
	}

	resp, err := t.advisor.Optimize(ctx, oreq)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(resp)
}
