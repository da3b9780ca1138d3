package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func counterValue(counter prometheus.Counter) float64 {
	return testutil.ToFloat64(counter)
}
