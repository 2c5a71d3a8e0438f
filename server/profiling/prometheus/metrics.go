/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scieloorg/kernel/internal/version"
)

const (
	namespace       = "kernel"
	commandLabel    = "command"
	statusLabel     = "status"
	eventLabel      = "event"
	subscriberLabel = "subscriber"
	methodLabel     = "method"
	routeLabel      = "route"
	codeLabel       = "code"
	taskTypeLabel   = "task_type"
)

// Metrics manages the metric information that the kernel is trying to
// measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	commandHandledTotal    *prometheus.CounterVec
	commandDurationSeconds *prometheus.HistogramVec
	commandRetriesTotal    *prometheus.CounterVec

	eventsNotifiedTotal     *prometheus.CounterVec
	subscriberFailuresTotal *prometheus.CounterVec

	httpRequestsTotal     *prometheus.CounterVec
	httpDurationSeconds   *prometheus.HistogramVec
	watchConnectionsTotal prometheus.Gauge

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		commandHandledTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "handled_total",
			Help:      "Total number of commands completed, regardless of success or failure.",
		}, []string{commandLabel, statusLabel}),
		commandDurationSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "The time taken by commands, including retries.",
		}, []string{commandLabel}),
		commandRetriesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "retries_total",
			Help:      "The total count of retries after a concurrent update.",
		}, []string{commandLabel}),
		eventsNotifiedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "notified_total",
			Help:      "The total count of events notified to subscribers.",
		}, []string{eventLabel}),
		subscriberFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "subscriber_failures_total",
			Help:      "The total count of subscriber callbacks that failed or panicked.",
		}, []string{eventLabel, subscriberLabel}),
		httpRequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{methodLabel, routeLabel, codeLabel}),
		httpDurationSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "The response time of HTTP requests.",
		}, []string{methodLabel, routeLabel}),
		watchConnectionsTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "watch_connections_total",
			Help:      "The number of open change stream connections.",
		}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by the backend.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// ObserveCommand records a completed command and its duration.
func (m *Metrics) ObserveCommand(command, status string, seconds float64) {
	m.commandHandledTotal.With(prometheus.Labels{
		commandLabel: command,
		statusLabel:  status,
	}).Inc()
	m.commandDurationSeconds.With(prometheus.Labels{
		commandLabel: command,
	}).Observe(seconds)
}

// AddCommandRetry counts a retry of the given command.
func (m *Metrics) AddCommandRetry(command string) {
	m.commandRetriesTotal.With(prometheus.Labels{
		commandLabel: command,
	}).Inc()
}

// AddEventNotified counts a notified event.
func (m *Metrics) AddEventNotified(event string) {
	m.eventsNotifiedTotal.With(prometheus.Labels{
		eventLabel: event,
	}).Inc()
}

// AddSubscriberFailure counts a failed subscriber callback.
func (m *Metrics) AddSubscriberFailure(event, subscriber string) {
	m.subscriberFailuresTotal.With(prometheus.Labels{
		eventLabel:      event,
		subscriberLabel: subscriber,
	}).Inc()
}

// ObserveHTTPRequest records a served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, code int, seconds float64) {
	m.httpRequestsTotal.With(prometheus.Labels{
		methodLabel: method,
		routeLabel:  route,
		codeLabel:   strconv.Itoa(code),
	}).Inc()
	m.httpDurationSeconds.With(prometheus.Labels{
		methodLabel: method,
		routeLabel:  route,
	}).Observe(seconds)
}

// AddWatchConnections adds the number of change stream connections.
func (m *Metrics) AddWatchConnections() {
	m.watchConnectionsTotal.Inc()
}

// RemoveWatchConnections removes the number of change stream connections.
func (m *Metrics) RemoveWatchConnections() {
	m.watchConnectionsTotal.Dec()
}

// AddBackgroundGoroutines adds the number of goroutines attached by the
// backend.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by the
// backend.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
