package decharge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("decharge")

var (
	// stageDuration measures each pipeline stage.
	// Labels: stage (build, filter, select, group)
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "decharger",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of decharging pipeline stages in seconds",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"stage"})

	edgesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "graph",
		Name:      "edges_built_total",
		Help:      "Total pair-graph edges created",
	})

	// edgesRejected counts inactive edges.
	// Labels: reason (complex, intensity)
	edgesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "graph",
		Name:      "edges_rejected_total",
		Help:      "Total edges marked inactive by reason",
	}, []string{"reason"})

	edgesInferred = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "graph",
		Name:      "edges_inferred_total",
		Help:      "Total complex edges activated by inference",
	})

	edgesSelected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "selector",
		Name:      "edges_selected_total",
		Help:      "Total edges selected by the optimizer",
	})

	// solverDuration measures one component solve.
	// Labels: status (optimal, node_limit, interrupted, heuristic, infeasible, failed)
	solverDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "decharger",
		Subsystem: "selector",
		Name:      "solve_duration_seconds",
		Help:      "Component solve duration in seconds",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"status"})

	groupsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "grouper",
		Name:      "groups_total",
		Help:      "Total charge groups emitted",
	})

	singletonsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decharger",
		Subsystem: "grouper",
		Name:      "singletons_total",
		Help:      "Total ungrouped features emitted",
	})
)
