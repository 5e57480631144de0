package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEvaluation(t *testing.T) {
	c := NewCollector()

	score := 85
	c.RecordEvaluation("approved", &score, 5*time.Millisecond)
	c.RecordEvaluation("approved", &score, 5*time.Millisecond)
	c.RecordEvaluation("declined", nil, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lendersEvaluated.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lendersEvaluated.WithLabelValues("declined")))
}

func TestRecordBatchOutcomes(t *testing.T) {
	c := NewCollector()

	c.RecordBatchComplete()
	c.RecordBatchComplete()
	c.RecordBatchFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.batchesCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batchesFailed))
}
