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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/model"
	"github.com/inframind/build-advisor/pkg/store"
)

func TestSeedDemo(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.SeedDemo(ctx, DemoOptions{Runs: 12, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, DemoPipeline, res.Pipeline)
	require.Len(t, res.RunIDs, 12)
	assert.Equal(t, demoRunID(DemoPipeline, 3, 0), res.RunIDs[0])

	runs, err := svc.Store().ListRuns(ctx, store.RunFilter{Pipeline: DemoPipeline, Status: store.StatusSuccess})
	require.NoError(t, err)
	assert.Len(t, runs, 12)
	for _, r := range runs {
		require.NotNil(t, r.DurationS)
		assert.GreaterOrEqual(t, *r.DurationS, demoMinDurationS)
	}

	rec, err := svc.Features(ctx, res.RunIDs[5])
	require.NoError(t, err)
	assert.Contains(t, rec.Vector, "num_steps")

	trained, err := svc.Train(ctx, TrainRequest{Pipeline: DemoPipeline})
	require.NoError(t, err)
	assert.Equal(t, model.VersionAt(testNow), trained.Version)
	assert.Equal(t, 12, trained.Metrics.NSamples)
}

func TestSeedDemoRunIDsAreStable(t *testing.T) {
	a := demoRunID("p", 9, 1)
	assert.Equal(t, a, demoRunID("p", 9, 1))
	assert.NotEqual(t, a, demoRunID("p", 9, 2))
	assert.NotEqual(t, a, demoRunID("p", 10, 1))
}

func TestSeedDemoErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SeedDemo(context.Background(), DemoOptions{Runs: -1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SeedDemo(ctx, DemoOptions{Runs: 2, Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}
