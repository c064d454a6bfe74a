package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNamespace(t *testing.T) {
	assert.Equal(t, "staff_portal", metricsNamespace("staff-portal"))
	assert.Equal(t, "hr_api_v2", metricsNamespace("HR API.v2"))
	assert.Equal(t, "staff_portal", metricsNamespace(""))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)
}
