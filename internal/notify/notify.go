// Package notify is the completion-notification hook (spec §3's
// email_on_completion/email_recipients/email_trigger_type fields,
// supplemented from original_source/backend/tasks.py which emails
// recipients after a run finishes). Actual SMTP delivery is outside
// this repo's scope (spec §1 treats the mail transport as external);
// this package applies the trigger-type filter and logs what would be
// sent rather than dialing an SMTP server directly.
package notify

import (
	"context"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// Notifier reacts to a finished run.
type Notifier interface {
	NotifyCompletion(ctx context.Context, script model.Script, rec model.ExecutionRecord)
}

// LoggingNotifier applies the EmailTriggerType filter and logs the
// notification it would send, standing in for a real SMTP client.
type LoggingNotifier struct{}

func NewLoggingNotifier() *LoggingNotifier { return &LoggingNotifier{} }

func (n *LoggingNotifier) NotifyCompletion(ctx context.Context, script model.Script, rec model.ExecutionRecord) {
	if !script.EmailOnCompletion || script.EmailRecipients == "" {
		return
	}
	if !shouldNotify(script.EmailTriggerType, rec.Status) {
		return
	}

	log := common.GetLogger().Sugar()
	log.Infow("completion notification",
		"script", script.Name,
		"recipients", script.EmailRecipients,
		"status", rec.Status,
		"run_id", rec.ID,
	)
}

// shouldNotify applies the email_trigger_type filter from spec §3: a
// script can ask to be notified on every run, only successes, or only
// failures (which also covers timeouts).
func shouldNotify(trigger model.EmailTrigger, status model.ExecutionStatus) bool {
	switch trigger {
	case model.EmailTriggerSuccess:
		return status == model.StatusSuccess
	case model.EmailTriggerFailure:
		return status == model.StatusFailed || status == model.StatusTimeout
	case model.EmailTriggerAll:
		return true
	default:
		return true
	}
}
