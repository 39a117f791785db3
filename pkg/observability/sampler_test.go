package observability //nolint:testpackage // sampler selection is unexported.

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ratio  float64
		envArg string
		env    string
		want   string
	}{
		{"default", 0, "", "", "ParentBased{root:AlwaysOnSampler"},
		{"ratio", 0.5, "", "", "ParentBased{root:TraceIDRatioBased{0.5}"},
		{"env_on", 0.5, "", "always_on", "AlwaysOnSampler"},
		{"env_off", 0, "", "always_off", "AlwaysOffSampler"},
		{"env_ratio", 0, "0.25", "traceidratio", "TraceIDRatioBased{0.25}"},
		{"env_ratio_garbage", 0, "lots", "traceidratio", "AlwaysOnSampler"},
		{"env_unknown", 0.5, "", "jaeger_remote", "ParentBased{root:AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Contains(t, sampler(tt.ratio, tt.env, tt.envArg).Description(), tt.want)
		})
	}
}
