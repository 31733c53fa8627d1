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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	suggestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "im_optimizer_suggest_duration_seconds",
			Help:    "Duration of suggestion computation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	candidatesEvaluated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "im_optimizer_candidates_evaluated",
			Help:    "Number of candidates scored per suggestion",
			Buckets: []float64{1, 5, 10, 15, 20, 25},
		},
	)

	explorationTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "im_optimizer_exploration_total",
			Help: "Total number of random exploration candidates generated",
		},
	)
)
