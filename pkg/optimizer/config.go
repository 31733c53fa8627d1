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

package optimizer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"
)

// Engine defaults.
const (
	DefaultSafeMultiplier  = 1.2
	DefaultExplorationRate = 0.15

	// MaxCandidates caps how many candidates a single request scores.
	MaxCandidates = 20
)

// Config holds the tunables of the engine.
type Config struct {
	// SafeMultiplier is applied to observed peak memory to derive the memory floor.
	SafeMultiplier float64 `json:"safeMultiplier" yaml:"safeMultiplier"`
	// ExplorationRate is the probability of appending one random candidate.
	ExplorationRate float64 `json:"explorationRate" yaml:"explorationRate"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SafeMultiplier:  DefaultSafeMultiplier,
		ExplorationRate: DefaultExplorationRate,
	}
}

// Validate checks the tunables are usable.
func (c Config) Validate() error {
	if c.SafeMultiplier <= 0 {
		return fmt.Errorf("safe multiplier must be positive, got %v", c.SafeMultiplier)
	}
	if c.ExplorationRate < 0 || c.ExplorationRate > 1 {
		return fmt.Errorf("exploration rate must be within [0, 1], got %v", c.ExplorationRate)
	}
	return nil
}

// Predictor estimates the build duration in seconds of a candidate for a context.
// Implementations never fail; they degrade to a heuristic instead.
type Predictor interface {
	Predict(ctx context.Context, c Context, candidate Candidate) float64
}

// Pinner is implemented by predictors that resolve a model version.
// Suggest pins once per call so every candidate is scored by the same model.
type Pinner interface {
	Pin(ctx context.Context) Predictor
}

// Versioned is implemented by predictors bound to a named model.
type Versioned interface {
	Version() string
}

// HeuristicSeconds is the model-free duration estimate: average step duration times step count.
func HeuristicSeconds(c Context) float64 {
	return c.Float(KeyAvgStepDurationS, DefaultAvgStepDurationS) * c.Float(KeyNumSteps, DefaultNumSteps)
}

// HeuristicPredictor scores every candidate with HeuristicSeconds.
type HeuristicPredictor struct{}

// Predict implements Predictor.
func (HeuristicPredictor) Predict(_ context.Context, c Context, candidate Candidate) float64 {
	return HeuristicSeconds(c.Merge(candidate.Context()))
}

// Option is a functional option for configuring Engine instances.
type Option func(*Engine)

// WithConfig sets the engine tunables.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithRand injects the random source used for exploration.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds the exploration random source.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithParallelism bounds how many candidates are scored concurrently.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// Engine generates, guards, scores and selects build configurations.
type Engine struct {
	cfg         Config
	predictor   Predictor
	parallelism int

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Engine scoring candidates with p.
// A nil predictor scores with HeuristicPredictor.
func New(p Predictor, opts ...Option) *Engine {
	if p == nil {
		p = HeuristicPredictor{}
	}

	e := &Engine{
		cfg:         DefaultConfig(),
		predictor:   p,
		parallelism: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return e
}

// Config returns the engine tunables.
func (e *Engine) Config() Config {
	return e.cfg
}
