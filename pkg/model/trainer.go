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

package model

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/inframind/build-advisor/pkg/errors"
	"github.com/inframind/build-advisor/pkg/optimizer"
	"github.com/inframind/build-advisor/pkg/version"
)

// Training defaults.
const (
	// MinTrainingSamples is the smallest data set Train accepts.
	MinTrainingSamples = 10

	// DefaultRidgeLambda is the L2 penalty on standardized coefficients.
	DefaultRidgeLambda = 1.0

	// DefaultTrainSeed makes the train/test split reproducible.
	DefaultTrainSeed uint64 = 42

	testFraction = 0.2
)

// Sample is one labelled training example.
type Sample struct {
	Features  optimizer.Context
	DurationS float64
}

type trainer struct {
	lambda float64
	seed   uint64
	now    func() time.Time
}

// TrainOption configures Train.
type TrainOption func(*trainer)

// WithLambda sets the ridge penalty.
func WithLambda(l float64) TrainOption {
	return func(t *trainer) {
		if l >= 0 {
			t.lambda = l
		}
	}
}

// WithTrainSeed sets the shuffle seed of the train/test split.
func WithTrainSeed(seed uint64) TrainOption {
	return func(t *trainer) {
		t.seed = seed
	}
}

// WithClock sets the time source used for the version and timestamp.
func WithClock(now func() time.Time) TrainOption {
	return func(t *trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// VersionAt returns the model version for a training run finished at t.
func VersionAt(t time.Time) string {
	return version.At(t).String()
}

// Train fits a ridge regression of duration on Features. The data is shuffled
// with a fixed seed, 80% is used for fitting and the rest for MAE and R².
func Train(samples []Sample, opts ...TrainOption) (*Linear, Metrics, error) {
	t := &trainer{
		lambda: DefaultRidgeLambda,
		seed:   DefaultTrainSeed,
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}

	start := time.Now()
	defer func() {
		trainingDuration.Observe(time.Since(start).Seconds())
	}()

	if len(samples) < MinTrainingSamples {
		return nil, Metrics{}, errors.NewWithContext(errors.ErrCodeInsufficientData,
			fmt.Sprintf("need at least %d samples to train", MinTrainingSamples),
			map[string]any{"samples": len(samples)})
	}
	for i, s := range samples {
		if math.IsNaN(s.DurationS) || math.IsInf(s.DurationS, 0) {
			return nil, Metrics{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"sample has non-finite duration", map[string]any{"index": i})
		}
	}

	rng := rand.New(rand.NewPCG(t.seed, t.seed))
	order := rng.Perm(len(samples))

	nTest := int(math.Ceil(float64(len(samples)) * testFraction))
	train, test := order[nTest:], order[:nTest]

	m, err := fit(samples, train, t.lambda)
	if err != nil {
		return nil, Metrics{}, err
	}
	now := t.now()
	m.ModelVersion = VersionAt(now)
	m.TrainedAt = now.UTC()

	metrics := evaluate(m, samples, test)
	metrics.NSamples = len(samples)
	metrics.NFeatures = len(Features)

	return m, metrics, nil
}

func fit(samples []Sample, rows []int, lambda float64) (*Linear, error) {
	p := len(Features)
	n := len(rows)

	raw := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i, idx := range rows {
		raw.SetRow(i, ContextVector(samples[idx].Features))
		y[i] = samples[idx].DurationS
	}

	means := make([]float64, p)
	scales := make([]float64, p)
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, raw)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		means[j], scales[j] = mean, std
	}

	x := mat.NewDense(n, p, nil)
	x.Apply(func(_, j int, v float64) float64 {
		return (v - means[j]) / scales[j]
	}, raw)

	intercept := stat.Mean(y, nil)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - intercept
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 0; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, centered))

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "ridge solve failed", err)
	}

	return &Linear{
		Features:     FeatureNames(),
		Intercept:    intercept,
		Coefficients: mat.Col(nil, 0, &beta),
		Means:        means,
		Scales:       scales,
		Lambda:       lambda,
	}, nil
}

func evaluate(m *Linear, samples []Sample, rows []int) Metrics {
	estimates := make([]float64, len(rows))
	values := make([]float64, len(rows))
	var absErr float64
	for i, idx := range rows {
		est, err := m.Predict(ContextVector(samples[idx].Features))
		if err != nil {
			est = optimizer.HeuristicSeconds(samples[idx].Features)
		}
		estimates[i] = est
		values[i] = samples[idx].DurationS
		absErr += math.Abs(est - values[i])
	}

	r2 := stat.RSquaredFrom(estimates, values, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}

	return Metrics{
		MAE: absErr / float64(len(rows)),
		R2:  r2,
	}
}
