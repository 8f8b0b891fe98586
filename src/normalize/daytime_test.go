package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDayEndOfDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-15 noon UTC is still March 15 in New York.
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	result := TimeOfDay("end of day", ref, ny)
	require.True(t, result.Matched)
	assert.True(t, result.Confident)

	local := result.Time.In(ny)
	assert.Equal(t, 2026, local.Year())
	assert.Equal(t, time.March, local.Month())
	assert.Equal(t, 15, local.Day())
	assert.Equal(t, 23, local.Hour())
	assert.Equal(t, 59, local.Minute())
	assert.Equal(t, 59, local.Second())
}

func TestTimeOfDayCloseOfBusiness(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	result := TimeOfDay("COB", ref, ny)
	require.True(t, result.Matched)

	local := result.Time.In(ny)
	assert.Equal(t, 17, local.Hour())
	assert.Equal(t, 0, local.Minute())
}

func TestTimeOfDayPhrases(t *testing.T) {
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	matched := []string{"eod", "EOD", "end of day", "by end of day", "tonight", "cob", "close of business", "by COB."}
	for _, phrase := range matched {
		assert.True(t, TimeOfDay(phrase, ref, time.UTC).Matched, phrase)
	}

	unmatched := []string{"", "tomorrow", "next friday", "5pm", "end of week"}
	for _, phrase := range unmatched {
		assert.False(t, TimeOfDay(phrase, ref, time.UTC).Matched, phrase)
	}
}

func TestTimeOfDayNoTimezone(t *testing.T) {
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	result := TimeOfDay("eod", ref, nil)
	require.True(t, result.Matched)
	assert.False(t, result.Confident)
	assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), result.Time)
}

func TestTimeOfDayCustomClocks(t *testing.T) {
	d := DayTimes{
		EndOfDay:        Clock{Hour: 22},
		CloseOfBusiness: Clock{Hour: 18, Minute: 30},
	}
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	result := d.TimeOfDay("eod", ref, time.UTC)
	require.True(t, result.Matched)
	assert.Equal(t, 22, result.Time.Hour())

	result = d.TimeOfDay("cob", ref, time.UTC)
	require.True(t, result.Matched)
	assert.Equal(t, 18, result.Time.Hour())
	assert.Equal(t, 30, result.Time.Minute())
}
