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

package advisor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/serializer"
	"github.com/inframind/build-advisor/pkg/server"
)

// Handlers returns the service routes keyed by method and path pattern,
// ready for server.WithHandler.
func (s *Service) Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"POST /v1/optimize":                      s.HandleOptimize,
		"POST /v1/builds/start":                  s.HandleBuildStart,
		"POST /v1/builds/step":                   s.HandleBuildStep,
		"POST /v1/builds/complete":               s.HandleBuildComplete,
		"GET /v1/features/{run_id}":              s.HandleFeatures,
		"GET /v1/suggestions/{pipeline}":         s.HandleLastSuggestion,
		"GET /v1/suggestions/{pipeline}/history": s.HandleSuggestionHistory,
		"POST /v1/suggestions/{id}/applied":      s.HandleSuggestionApplied,
		"GET /v1/models":                         s.HandleModels,
		"POST /v1/models/train":                  s.HandleTrain,
		"POST /v1/models/{version}/activate":     s.HandleActivate,
	}
}

// HandleOptimize serves POST /v1/optimize.
func (s *Service) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.OptimizeHandlerTimeout)
	defer cancel()

	var req OptimizeRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request body", nil)
		return
	}

	resp, err := s.Optimize(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to compute suggestion", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleBuildStart serves POST /v1/builds/start.
func (s *Service) HandleBuildStart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.IngestHandlerTimeout)
	defer cancel()

	var req BuildStartRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request body", nil)
		return
	}

	if _, err := s.StartBuild(ctx, req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to record build start", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusCreated, map[string]any{"ok": true, "run_id": req.RunID})
}

// HandleBuildStep serves POST /v1/builds/step.
func (s *Service) HandleBuildStep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.IngestHandlerTimeout)
	defer cancel()

	var req BuildStepRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request body", nil)
		return
	}

	if err := s.RecordStep(ctx, req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to record build step", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleBuildComplete serves POST /v1/builds/complete.
func (s *Service) HandleBuildComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.IngestHandlerTimeout)
	defer cancel()

	var req BuildCompleteRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid request body", nil)
		return
	}

	resp, err := s.CompleteBuild(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to record build completion", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleFeatures serves GET /v1/features/{run_id}.
func (s *Service) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Features(r.Context(), r.PathValue("run_id"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to load features", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, rec)
}

// HandleLastSuggestion serves GET /v1/suggestions/{pipeline}.
func (s *Service) HandleLastSuggestion(w http.ResponseWriter, r *http.Request) {
	resp, err := s.LastSuggestion(r.Context(), r.PathValue("pipeline"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to load suggestion", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleSuggestionHistory serves GET /v1/suggestions/{pipeline}/history?limit=N.
func (s *Service) HandleSuggestionHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid limit", nil)
		return
	}

	records, err := s.SuggestionHistory(r.Context(), r.PathValue("pipeline"), limit)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to list suggestions", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, map[string]any{
		"pipeline":    r.PathValue("pipeline"),
		"suggestions": records,
	})
}

// HandleSuggestionApplied serves POST /v1/suggestions/{id}/applied.
func (s *Service) HandleSuggestionApplied(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		server.WriteError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Suggestion id must be a positive integer", false, map[string]any{"id": r.PathValue("id")})
		return
	}

	if err := s.MarkApplied(r.Context(), id); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to update suggestion", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// HandleModels serves GET /v1/models.
func (s *Service) HandleModels(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Models(r.Context())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to list models", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleTrain serves POST /v1/models/train. An empty body trains on every pipeline.
func (s *Service) HandleTrain(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.TrainHandlerTimeout)
	defer cancel()

	var req TrainRequest
	if err := decodeBody(r, &req); err != nil && !stderrors.Is(err, errEmptyBody) {
		server.WriteErrorFromErr(w, r, err, "Invalid request body", nil)
		return
	}

	start := time.Now()
	res, err := s.Train(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to train model", nil)
		return
	}
	slog.Debug("training request served", "version", res.Version, "duration", time.Since(start).String())

	serializer.RespondJSON(w, http.StatusCreated, res)
}

// HandleActivate serves POST /v1/models/{version}/activate.
func (s *Service) HandleActivate(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")
	if err := s.Activate(r.Context(), version); err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to activate model", nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "active": version})
}

var errEmptyBody = errors.New(errors.ErrCodeInvalidRequest, "request body is required")

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.Is(err, io.EOF):
			return errEmptyBody
		case stderrors.As(err, &maxErr):
			return errors.NewWithContext(errors.ErrCodeInvalidRequest, "request body too large",
				map[string]any{"limit": maxErr.Limit})
		default:
			return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid JSON body", err)
		}
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewWithContext(errors.ErrCodeInvalidRequest, name+" must be a non-negative integer",
			map[string]any{name: raw})
	}
	return n, nil
}
