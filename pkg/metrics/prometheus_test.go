package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordStaleLookup()
	r.RecordStaleLookup()
	r.RecordDispatch("redirect", "opened-external")
	r.RecordValidationError("amount", "ERR_FORMAT")
	r.RecordSessions(4)
	r.RecordLookup("found", 0.01)
	r.RecordLatency("dispatch_local", 0.2)
	r.RecordError("encode")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.staleLookups))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dispatches.WithLabelValues("redirect", "opened-external")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validationErrors.WithLabelValues("amount", "ERR_FORMAT")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.openSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("encode")))
}

func TestRecordersDoNotCollideOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
