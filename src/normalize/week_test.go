package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStartForLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   time.Weekday
	}{
		{"en-US", time.Sunday},
		{"en_US", time.Sunday},
		{"ja-JP", time.Sunday},
		{"pt-BR", time.Sunday},
		{"de-DE", time.Monday},
		{"en-GB", time.Monday},
		{"fr", time.Monday},
		{"", time.Monday},
		{"nonsense", time.Monday},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStartForLocale(tt.locale))
		})
	}
}

func TestWeekRange(t *testing.T) {
	// Wednesday, 2026-03-18.
	ref := time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

	monday := WeekRange(ref, time.Monday)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), monday.From)
	assert.Equal(t, time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC), monday.To)

	sunday := WeekRange(ref, time.Sunday)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), sunday.From)
	assert.Equal(t, time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC), sunday.To)
}

func TestWeekRangeOnWeekStart(t *testing.T) {
	// A Monday should be the first day of its own Monday-start week.
	ref := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	r := WeekRange(ref, time.Monday)
	assert.Equal(t, ref, r.From)
}

func TestNextWeekRange(t *testing.T) {
	ref := time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

	next := NextWeekRange(ref, time.Monday)
	assert.Equal(t, time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC), next.From)
	assert.Equal(t, time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), next.To)
}
