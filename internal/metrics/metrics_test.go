package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLoad(t *testing.T) {
	before := testutil.ToFloat64(DatasetLoads.WithLabelValues("error"))
	ObserveLoad(0, time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(DatasetLoads.WithLabelValues("error")))

	ObserveLoad(1002, time.Millisecond, nil)
	assert.Equal(t, float64(1002), testutil.ToFloat64(DatasetRecords))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "2xx", StatusClass(204))
	assert.Equal(t, "3xx", StatusClass(302))
	assert.Equal(t, "4xx", StatusClass(429))
	assert.Equal(t, "5xx", StatusClass(503))
}
