/*
 * This file is part of the Hopsworks Feature Store Metadata Server
 * Copyright (c) 2023 Hopsworks AB
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type FSMSMetrics struct {
	HTTPMetrics *HTTPMetrics
}

type HTTPMetrics struct {
	ResponseTimeSummary *prometheus.SummaryVec
	ResponseStatusCount *prometheus.CounterVec
	HttpConnectionGauge HttpConnectionGauge
}

func NewFSMSMetrics() (*FSMSMetrics, func()) {
	httpMetrics, httpMetricsCleanup := newHTTPMetrics()
	return &FSMSMetrics{HTTPMetrics: httpMetrics}, httpMetricsCleanup
}

func newHTTPMetrics() (*HTTPMetrics, func()) {
	protocol := "fsms_http"
	metrics := HTTPMetrics{}

	metrics.ResponseTimeSummary =
		prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       protocol + "_response_time_summary",
				Help:       "Response time per " + protocol + " endpoint. Time is in nanoseconds",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.01, 0.99: 0.001},
			}, []string{"endpoint", "method"})

	metrics.ResponseStatusCount =
		prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: protocol + "_response_status_count",
				Help: "No of responses per " + protocol + " endpoint and status code",
			}, []string{"endpoint", "method", "status"})

	metrics.HttpConnectionGauge = HttpConnectionGauge{}
	metrics.HttpConnectionGauge.ConnectionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: protocol + "_connection_count",
			Help: "No of open " + protocol + " connections",
		},
	)

	prometheus.MustRegister(metrics.ResponseTimeSummary)
	prometheus.MustRegister(metrics.ResponseStatusCount)
	prometheus.MustRegister(metrics.HttpConnectionGauge.ConnectionGauge)

	cleanup := func() {
		prometheus.Unregister(metrics.ResponseTimeSummary)
		prometheus.Unregister(metrics.ResponseStatusCount)
		prometheus.Unregister(metrics.HttpConnectionGauge.ConnectionGauge)
	}
	return &metrics, cleanup
}

func (m *HTTPMetrics) AddResponseTime(endpoint string, method string, timeNanos float64) {
	m.ResponseTimeSummary.WithLabelValues(endpoint, method).Observe(timeNanos)
}

func (m *HTTPMetrics) AddResponseStatus(endpoint string, method string, status int) {
	m.ResponseStatusCount.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
}
