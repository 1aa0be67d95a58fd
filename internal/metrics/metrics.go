// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ClientMetrics interface {
	RecordOperation(operation string, outcome string, duration time.Duration)
}

var METRICS_SUBSYSTEM = "bns_client"

const (
	OutcomeSuccess     = "success"
	OutcomeRemoteError = "remote_error"
	OutcomeError       = "error"
)

type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func InitMetrics(ctx context.Context, registry *prometheus.Registry) ClientMetrics {
	metrics := &clientMetrics{}

	metrics.operations = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "operations_total",
		Help: "Name service operations by outcome", Subsystem: METRICS_SUBSYSTEM}, []string{"operation", "outcome"})
	metrics.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "operation_seconds",
		Help: "Name service operation latency", Subsystem: METRICS_SUBSYSTEM}, []string{"operation"})

	registry.MustRegister(metrics.operations, metrics.duration)
	return metrics
}

func (cm *clientMetrics) RecordOperation(operation string, outcome string, duration time.Duration) {
	cm.operations.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
	cm.duration.With(prometheus.Labels{"operation": operation}).Observe(duration.Seconds())
}

type noopMetrics struct{}

// Noop is used when the caller does not supply a registry
func Noop() ClientMetrics { return noopMetrics{} }

func (noopMetrics) RecordOperation(string, string, time.Duration) {}
