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


// Package features turns recorded run telemetry into the context consumed by
// the optimizer and the duration model.
package features

import (
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/store"
)

const (
	bytesPerGiB = 1 << 30
	bytesPerMiB = 1 << 20

	unknown = "unknown"

	defaultCPUReq      = 4.0
	defaultMemReqGB    = 8.0
	defaultConcurrency = 4
)

// Feature keys beyond those the optimizer defines.
const (
	KeyImage         = "image"
	KeyBranch        = "branch"
	KeyNode          = "node"
	KeyTotalCPUTimeS = "total_cpu_time_s"
	KeyIOReadBytes   = "io_read_bytes"
	KeyIOWriteBytes  = "io_write_bytes"
	KeyIOReadGB      = "io_read_gb"
	KeyIOWriteGB     = "io_write_gb"
	KeyCacheHitRatio = "cache_hit_ratio"
	KeyCacheHits     = "cache_hits"
	KeyCacheMisses   = "cache_misses"
	KeyArtifactBytes = "artifact_bytes"
	KeyArtifactMB    = "artifact_mb"
	KeyStatus        = "status"
)

// Compute aggregates run and its steps into a feature context. Unrequested
// resources take the usual defaults and the average step duration only
// counts steps with both timestamps. duration_s is set once the run has one.
func Compute(run store.Run, steps []store.Step) optimizer.Context {
	var (
		cpuTime         float64
		maxRSS          int64
		ioRead, ioWrite int64
		hits, misses    int64
		stepTotal       float64
		timedSteps      int
	)
	for _, s := range steps {
		cpuTime += s.CPUTimeS
		maxRSS = max(maxRSS, s.RSSMaxBytes)
		ioRead += s.IOReadBytes
		ioWrite += s.IOWriteBytes
		hits += s.CacheHits
		misses += s.CacheMisses
		if d, ok := s.Duration(); ok {
			stepTotal += d.Seconds()
			timedSteps++
		}
	}

	hitRatio := 0.0
	if hits+misses > 0 {
		hitRatio = float64(hits) / float64(hits+misses)
	}

	avgStep := 0.0
	if timedSteps > 0 {
		avgStep = stepTotal / float64(timedSteps)
	}

	c := optimizer.Context{
		KeyImage:  orUnknown(run.Image),
		KeyBranch: orUnknown(run.Branch),
		KeyNode:   orUnknown(run.Node),

		optimizer.KeyCPUReq:      orDefault(run.CPUReq, defaultCPUReq),
		optimizer.KeyMemReqGB:    orDefault(run.MemReqGB, defaultMemReqGB),
		optimizer.KeyConcurrency: orDefaultInt(run.Concurrency, defaultConcurrency),

		KeyTotalCPUTimeS:              cpuTime,
		optimizer.KeyMaxRSSBytes:      maxRSS,
		optimizer.KeyMaxRSSGB:         float64(maxRSS) / bytesPerGiB,
		KeyIOReadBytes:                ioRead,
		KeyIOWriteBytes:               ioWrite,
		KeyIOReadGB:                   float64(ioRead) / bytesPerGiB,
		KeyIOWriteGB:                  float64(ioWrite) / bytesPerGiB,
		KeyCacheHitRatio:              hitRatio,
		KeyCacheHits:                  hits,
		KeyCacheMisses:                misses,
		optimizer.KeyNumSteps:         len(steps),
		optimizer.KeyAvgStepDurationS: avgStep,
		KeyArtifactBytes:              run.ArtifactBytes,
		KeyArtifactMB:                 float64(run.ArtifactBytes) / bytesPerMiB,
	}
	if run.DurationS != nil {
		c[optimizer.KeyDurationS] = *run.DurationS
	}
	return c
}

// Label returns the training target of run: its duration and final status.
// Runs without a duration have no label.
func Label(run store.Run) map[string]any {
	if run.DurationS == nil {
		return nil
	}
	return map[string]any{
		optimizer.KeyDurationS: *run.DurationS,
		KeyStatus:              run.Status,
	}
}

// LastSuccess returns the resources of run in the shape the optimizer
// expects under last_success.
func LastSuccess(run store.Run) map[string]any {
	cacheSize := 10.0
	if v, ok := optimizer.Context(run.Cache).Lookup("size_gb"); ok && v > 0 {
		cacheSize = v
	}
	return map[string]any{
		optimizer.KeyConcurrency: float64(orDefaultInt(run.Concurrency, defaultConcurrency)),
		optimizer.KeyCPUReq:      orDefault(run.CPUReq, defaultCPUReq),
		optimizer.KeyMemReqGB:    orDefault(run.MemReqGB, defaultMemReqGB),
		optimizer.KeyCacheSizeGB: cacheSize,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
