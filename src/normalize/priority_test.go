package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		input     string
		want      Priority
		confident bool
	}{
		{"urgent", PriorityUrgent, true},
		{"URGENT", PriorityUrgent, true},
		{"critical", PriorityUrgent, true},
		{"asap", PriorityUrgent, true},
		{"  ASAP  ", PriorityUrgent, true},
		{"high", PriorityHigh, true},
		{"important", PriorityHigh, true},
		{"medium", PriorityMedium, true},
		{"normal", PriorityMedium, true},
		{"low", PriorityLow, true},
		{"whenever", PriorityLow, true},
		{"someday", PriorityLow, true},

		// unrecognized input falls back to the default with the flag cleared
		{"", DefaultPriority, false},
		{"super mega urgent", DefaultPriority, false},
		{"p1", DefaultPriority, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, confident := NormalizePriority(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.confident, confident)
		})
	}
}

func TestIsCanonicalPriority(t *testing.T) {
	for _, s := range []string{"Low", "Medium", "High", "Urgent"} {
		assert.True(t, IsCanonicalPriority(s), s)
	}
	for _, s := range []string{"low", "URGENT", "", "Critical"} {
		assert.False(t, IsCanonicalPriority(s), s)
	}
}
