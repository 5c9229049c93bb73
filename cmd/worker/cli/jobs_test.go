package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/jobs"
)

func TestBuildTaskDefaults(t *testing.T) {
	task, err := BuildTask(jobs.TaskCreditReminderScan)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskCreditReminderScan, task.Type())

	var scan jobs.ReminderScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &scan))
	require.Equal(t, -1, scan.WithinDays)

	task, err = BuildTask(jobs.TaskAnalyticsWarmup)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(task.Payload()))

	_, err = BuildTask("mail:send")
	require.Error(t, err)
}

func TestTriggerWithoutClient(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskAnalyticsWarmup)
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)
}
