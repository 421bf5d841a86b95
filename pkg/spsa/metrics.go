// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package-level Prometheus metrics for the engine, mirroring
// internal/ratelimiter/telemetry/churn's package-level counters: the
// engine has no per-instance telemetry configuration of its own, so these
// are global, cheap atomics under the hood, safe to leave registered even
// when nobody scrapes them.
package spsa

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spsa_dispatches_total",
		Help: "Total probe batches dispatched across all runs.",
	})
	reportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spsa_reports_total",
		Help: "Total reports processed by Arrive, partitioned by outcome.",
	}, []string{"outcome"})
	historySamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spsa_history_samples_total",
		Help: "Total history records appended across all runs.",
	})
)

func init() {
	prometheus.MustRegister(dispatchesTotal, reportsTotal, historySamplesTotal)
}

const (
	outcomeAccepted          = "accepted"
	outcomeSignatureMismatch = "signature_mismatch"
	outcomeEmptyReport       = "empty_report"
	outcomeMalformedFlips    = "malformed_flips"
)

func observeOutcome(err error) {
	switch err {
	case nil:
		reportsTotal.WithLabelValues(outcomeAccepted).Inc()
	case ErrSignatureMismatch:
		reportsTotal.WithLabelValues(outcomeSignatureMismatch).Inc()
	case ErrEmptyReport:
		reportsTotal.WithLabelValues(outcomeEmptyReport).Inc()
	case ErrMalformedFlips:
		reportsTotal.WithLabelValues(outcomeMalformedFlips).Inc()
	default:
		reportsTotal.WithLabelValues("error").Inc()
	}
}
