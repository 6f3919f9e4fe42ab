package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_events_received",
	Help: "Number of long-poll events received",
}, []string{"type"})

var pollErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_poll_errors",
	Help: "Number of failed long-poll requests",
})
