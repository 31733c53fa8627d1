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
)

// FeaturesTool handles the get_run_features tool.
type FeaturesTool struct {
	advisor Advisor
}

// NewFeaturesTool creates a FeaturesTool.
func NewFeaturesTool(a Advisor) *FeaturesTool {
	return &FeaturesTool{advisor: a}
}

// Definition returns the tool schema.
func (t *FeaturesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_run_features",
		mcp.WithDescription(
			"Return the feature vector computed when a run completed: requested resources, "+
				"peak memory, CPU time, I/O, cache hit ratio, step counts and duration.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier as reported by the CI system."),
		),
	)
}

// Handle serves a get_run_features call.
func (t *FeaturesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := strings.TrimSpace(req.GetString("run_id", ""))
	if runID == "" {
		return mcp.NewToolResultError("'run_id' is required"), nil
	}

	rec, err := t.advisor.Features(ctx, runID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

// ModelsTool handles the list_models tool.
type ModelsTool struct {
	advisor Advisor
}

// NewModelsTool creates a ModelsTool.
func NewModelsTool(a Advisor) *ModelsTool {
	return &ModelsTool{advisor: a}
}

// Definition returns the tool schema.
func (t *ModelsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_models",
		mcp.WithDescription("List trained duration models with their metrics and the active version."),
	)
}

// Handle serves a list_models call.
func (t *ModelsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := t.advisor.Models(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(resp)
}
