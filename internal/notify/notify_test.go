package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

func TestShouldNotifySuccessOnlyFiltersOutFailures(t *testing.T) {
	require.True(t, shouldNotify(model.EmailTriggerSuccess, model.StatusSuccess))
	require.False(t, shouldNotify(model.EmailTriggerSuccess, model.StatusFailed))
}

func TestShouldNotifyFailureIncludesTimeout(t *testing.T) {
	require.True(t, shouldNotify(model.EmailTriggerFailure, model.StatusFailed))
	require.True(t, shouldNotify(model.EmailTriggerFailure, model.StatusTimeout))
	require.False(t, shouldNotify(model.EmailTriggerFailure, model.StatusSuccess))
}

func TestShouldNotifyAllMatchesEverything(t *testing.T) {
	require.True(t, shouldNotify(model.EmailTriggerAll, model.StatusSuccess))
	require.True(t, shouldNotify(model.EmailTriggerAll, model.StatusFailed))
}

func TestNotifyCompletionSkipsWhenDisabledOrNoRecipients(t *testing.T) {
	n := NewLoggingNotifier()
	ctx := context.Background()

	// Neither call should panic even though nothing is subscribed to
	// observe the (intentionally absent) SMTP side effect.
	n.NotifyCompletion(ctx, model.Script{EmailOnCompletion: false, EmailRecipients: "a@b.com"}, model.ExecutionRecord{Status: model.StatusSuccess})
	n.NotifyCompletion(ctx, model.Script{EmailOnCompletion: true, EmailRecipients: ""}, model.ExecutionRecord{Status: model.StatusSuccess})
}

func TestNotifyCompletionLogsWhenEnabledAndMatching(t *testing.T) {
	n := NewLoggingNotifier()
	script := model.Script{
		Name:              "alerts",
		EmailOnCompletion: true,
		EmailRecipients:   "ops@example.com",
		EmailTriggerType:  model.EmailTriggerFailure,
	}
	n.NotifyCompletion(context.Background(), script, model.ExecutionRecord{ID: 1, Status: model.StatusFailed})
}
