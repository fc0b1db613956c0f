package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ScheduleCheckTool validates a cron expression and reports its next
// occurrences, so a reasoning loop can hand a well-formed schedule to
// whatever external system eventually consumes it, without the
// orchestrator itself running a scheduler.
type ScheduleCheckTool struct{}

func NewScheduleCheckTool() *ScheduleCheckTool { return &ScheduleCheckTool{} }

func (t *ScheduleCheckTool) Descriptor() Descriptor {
	return NewDescriptor("check_schedule", "Validate a cron expression and report its next few occurrences").
		WithCapabilities("schedule:validate").
		WithParameter(ParameterSpec{Name: "expression", Type: "string", Required: true, Description: "A 5 or 6-field cron expression"}).
		WithParameter(ParameterSpec{Name: "count", Type: "number", Required: false, Description: "Number of upcoming occurrences to report; default 3"})
}

func (t *ScheduleCheckTool) Execute(ctx context.Context, tc *Context) *Result {
	expr, ok := tc.Param("expression")
	if !ok || expr == "" {
		return Fail("expression is required")
	}

	g := gronx.New()
	if !g.IsValid(expr) {
		return Fail(fmt.Sprintf("%q is not a valid cron expression", expr))
	}

	count := 3
	if c, ok := tc.Parameters["count"]; ok {
		if f, ok := c.(float64); ok && int(f) > 0 {
			count = int(f)
		}
	}

	now := time.Now()
	occurrences := make([]string, 0, count)
	cursor := now
	for i := 0; i < count; i++ {
		next, err := gronx.NextTickAfter(expr, cursor, false)
		if err != nil {
			return Fail(fmt.Sprintf("compute next occurrence: %v", err))
		}
		occurrences = append(occurrences, next.Format(time.RFC3339))
		cursor = next
	}

	return OK(map[string]any{
		"expression":  expr,
		"occurrences": occurrences,
	})
}

func (t *ScheduleCheckTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}
