package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics makes spec §5's "resource model" observable, grounded on the
// pack's promauto.NewGaugeVec/NewCounterVec style
// (jinterlante1206-AleutianLocal's services/trace/graph metrics).
var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyrechk_schedule_queue_depth",
		Help: "Number of modules currently waiting in the priority work queue.",
	})

	inFlightModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyrechk_schedule_in_flight_modules",
		Help: "Number of modules currently being processed by a worker.",
	})

	stageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyrechk_schedule_stage_transitions_total",
		Help: "Module stage transitions, by destination stage.",
	}, []string{"stage"})

	crossModuleLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyrechk_schedule_cross_module_lookups_total",
		Help: "Cross-module answer lookups, by hit/miss.",
	}, []string{"result"})
)
