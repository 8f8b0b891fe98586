package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskchat/taskchat/src/normalize"
)

// baseSystemPrompt carries the assistant's standing instructions. The data
// freshness rules exist because conversation history routinely mentions
// tasks the user has since deleted.
const baseSystemPrompt = `You are a helpful task management assistant. Use the available tools to help users manage their tasks.

Data freshness rules:
- Tool results are the only source of truth for task data. When list_tasks returns results, those are the only tasks that exist right now.
- Conversation history is unreliable for task data: tasks mentioned earlier may have been deleted. Never combine task ids from history with current tool results.
- When the user asks about a task, call list_tasks first and use only ids from its result.

Referring to listed tasks:
- When the user refers to a task by its position in the list you just showed ("the second one", "the last task"), do not guess the id. Pass the positional phrase in the tool's task_ref argument and the service resolves it.

Task attributes:
- priority is one of: Low, Medium, High, Urgent.
- due_date is ISO 8601 UTC. Phrases like "end of day" or "close of business" may be passed verbatim; the service resolves them in the user's timezone.`

// BuildSystemPrompt appends the caller's timezone and calendar context to
// the standing instructions, mirroring what users mean by "today", "EOD" or
// "next week".
func BuildSystemPrompt(timezone string, now time.Time, loc *time.Location, locale string) string {
	if loc == nil {
		loc = time.UTC
		timezone = "UTC"
	}
	local := now.In(loc)

	weekStart := normalize.WeekStartForLocale(locale)
	thisWeek := normalize.WeekRange(local, weekStart)
	nextWeek := normalize.NextWeekRange(local, weekStart)

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current time in the user's timezone: %s %s\n", local.Format("2006-01-02 15:04:05"), timezone)
	fmt.Fprintf(&b, "When parsing dates and times from user input, use the timezone %s: \"today\" and \"tomorrow\" are relative to it, and all stored timestamps are UTC.\n", timezone)
	fmt.Fprintf(&b, "The user's week starts on %s. \"This week\" is %s through %s; \"next week\" is %s through %s.",
		weekStart,
		thisWeek.From.Format("2006-01-02"), thisWeek.To.Format("2006-01-02"),
		nextWeek.From.Format("2006-01-02"), nextWeek.To.Format("2006-01-02"))
	return b.String()
}
