package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "boha_registry_lookups",
	Help: "Identifier lookups against the registry by outcome",
}, []string{"outcome"})
