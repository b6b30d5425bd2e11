package photon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ParsePoolConfig tests page-embedded configuration parsing
func Test_ParsePoolConfig(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectError bool
		expectPools []int64
		description string
	}{
		{
			name:        "Pool only",
			data:        `{"show": {"pool-id": 42, "pump-pool_id": null}}`,
			expectPools: []int64{42},
			description: "Should resolve the active pool",
		},
		{
			name:        "Pool with pump pool",
			data:        `{"show": {"pool-id": 42, "pump-pool_id": 77}}`,
			expectPools: []int64{42, 77},
			description: "Should include the pump pool when present",
		},
		{
			name:        "Missing pool id",
			data:        `{"show": {}}`,
			expectError: true,
			description: "Should reject configuration without a pool id",
		},
		{
			name:        "Invalid JSON",
			data:        `<html>`,
			expectError: true,
			description: "Should reject malformed configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParsePoolConfig([]byte(tt.data))

			if tt.expectError {
				assert.Error(t, err, tt.description)
				return
			}

			require.NoError(t, err, tt.description)
			assert.Equal(t, tt.expectPools[0], cfg.CurrentPoolID())
			assert.Equal(t, tt.expectPools, cfg.AllPoolIDs())
		})
	}
}
