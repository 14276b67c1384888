package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "calculate-fit-score", "completed")
		o.RecordJobDuration(context.Background(), "calculate-fit-score", time.Second, "completed")
		o.Shutdown()
	})

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordJobProcessed(context.Background(), "calculate-fit-score", "failed")
	})
}
