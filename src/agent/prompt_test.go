package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPrompt(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC)
	prompt := BuildSystemPrompt("America/New_York", now, ny, "en-US")

	assert.Contains(t, prompt, "task management assistant")
	assert.Contains(t, prompt, "task_ref")
	assert.Contains(t, prompt, "Low, Medium, High, Urgent")
	// 16:00 UTC is noon in New York in March.
	assert.Contains(t, prompt, "2026-03-15 12:00:00 America/New_York")
	// en-US weeks start on Sunday; March 15 2026 is itself a Sunday.
	assert.Contains(t, prompt, "week starts on Sunday")
	assert.Contains(t, prompt, "2026-03-15 through 2026-03-21")
	assert.Contains(t, prompt, "2026-03-22 through 2026-03-28")
}

func TestBuildSystemPromptNoTimezone(t *testing.T) {
	now := time.Date(2026, 3, 17, 16, 0, 0, 0, time.UTC)
	prompt := BuildSystemPrompt("", now, nil, "")

	assert.Contains(t, prompt, "2026-03-17 16:00:00 UTC")
	// Unknown locale defaults to Monday weeks.
	assert.Contains(t, prompt, "week starts on Monday")
	assert.Contains(t, prompt, "2026-03-16 through 2026-03-22")
}
