package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lutra_optimizer_pass_runs_total",
			Help: "Number of times each optimizer pass has been applied.",
		},
		[]string{"pass"},
	)
	passRewrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lutra_optimizer_pass_rewrites_total",
			Help: "Number of pass applications that rewrote the program.",
		},
		[]string{"pass"},
	)
)
