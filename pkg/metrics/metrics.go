// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

// Package metrics provides Prometheus metrics for institution matching.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts normalization cache lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instmatch",
			Subsystem: "normalizer_cache",
			Name:      "lookups_total",
			Help:      "Normalization cache lookups by result",
		},
		[]string{"result"},
	)

	// CacheEvictions counts entries removed by capacity sweeps.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "instmatch",
			Subsystem: "normalizer_cache",
			Name:      "evictions_total",
			Help:      "Normalization cache entries evicted by capacity sweeps",
		},
	)

	// TargetsMatched counts matched targets by confidence tier.
	TargetsMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instmatch",
			Subsystem: "matching",
			Name:      "targets_total",
			Help:      "Target institutions evaluated by resulting tier",
		},
		[]string{"tier"},
	)

	// GroupingDuration tracks how long one grouping call takes.
	GroupingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "instmatch",
			Subsystem: "grouping",
			Name:      "duration_seconds",
			Help:      "Duration of institution grouping calls in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// GroupsFound counts duplicate groups by confidence tier.
	GroupsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instmatch",
			Subsystem: "grouping",
			Name:      "groups_total",
			Help:      "Duplicate institution groups found by tier",
		},
		[]string{"tier"},
	)
)
