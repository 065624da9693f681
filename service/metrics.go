package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// operation results
const (
	resultOK        = "ok"
	resultDuplicate = "duplicate"
	resultNotFound  = "not_found"
	resultInvalid   = "invalid"
	resultError     = "error"
)

type metrics struct {
	ops    *prometheus.CounterVec
	keys   prometheus.GaugeFunc
	height prometheus.GaugeFunc
}

// newMetrics registers the service collectors on reg. A nil reg builds
// unregistered collectors. The gauges read the tree at scrape time.
func newMetrics(reg prometheus.Registerer, s *TreeService) *metrics {
	f := promauto.With(reg)
	return &metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rbtree",
			Name:      "operations_total",
			Help:      "Tree operations by kind and outcome.",
		}, []string{"op", "result"}),
		keys: f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "rbtree",
			Name:      "keys",
			Help:      "Number of keys in the tree.",
		}, func() float64 { return float64(s.Stats().Keys) }),
		height: f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "rbtree",
			Name:      "height",
			Help:      "Nodes on the longest root-to-leaf path.",
		}, func() float64 { return float64(s.Stats().Height) }),
	}
}

func (m *metrics) observe(op, result string) {
	m.ops.WithLabelValues(op, result).Inc()
}
