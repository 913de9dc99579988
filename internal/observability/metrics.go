// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Package-level metrics so the session core can record without holding a
// Server reference.
var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadside_commands_total",
			Help: "Total number of client commands by name and ack status",
		},
		[]string{"command", "status"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadside_events_published_total",
			Help: "Total number of events published by event kind",
		},
		[]string{"event"},
	)

	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broadside_connections_total",
			Help: "Total number of client connections handled",
		},
	)

	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadside_active_connections",
			Help: "Number of currently connected clients",
		},
	)

	instancesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broadside_instances_created_total",
			Help: "Total number of game instances created",
		},
	)
)

// RecordCommand counts one handled command with its ack status.
func RecordCommand(command, status string) {
	if command == "" {
		command = "none"
	}
	commandsTotal.WithLabelValues(command, status).Inc()
}

// RecordEventPublished counts one published event.
func RecordEventPublished(event string) {
	eventsPublishedTotal.WithLabelValues(event).Inc()
}

// RecordConnectionOpened counts a new client connection.
func RecordConnectionOpened() {
	connectionsTotal.Inc()
	activeConnections.Inc()
}

// RecordConnectionClosed marks a client connection as gone.
func RecordConnectionClosed() {
	activeConnections.Dec()
}

// RecordInstanceCreated counts a newly created game instance.
func RecordInstanceCreated() {
	instancesCreatedTotal.Inc()
}

func registerDomainMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		commandsTotal,
		eventsPublishedTotal,
		connectionsTotal,
		activeConnections,
		instancesCreatedTotal,
	)
}
