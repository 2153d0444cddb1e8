package metrics_collectors_test

import (
	"context"
	"testing"

	"github.com/benmeehan/device-bootstrapper/internal/metrics_collectors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMetricCollector_Collect(t *testing.T) {
	var c metrics_collectors.MetricCollector = metrics_collectors.NewMemoryMetricCollector(zerolog.Nop())

	used := c.Collect(context.Background())

	require.NotNil(t, used)
	assert.GreaterOrEqual(t, *used, 0.0)
	assert.LessOrEqual(t, *used, 100.0)
	assert.Equal(t, "memory", c.Name())
	assert.Equal(t, "percentage", c.Unit())
}
