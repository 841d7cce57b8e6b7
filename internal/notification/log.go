package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/routing"
)

// LogNotifier writes notifications to the log instead of a chat platform.
// Used in demo mode when no Lark credentials are configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyApprover logs the decision request
func (n *LogNotifier) NotifyApprover(ctx context.Context, approver routing.Approver, summary RequestSummary) error {
	n.logger.Info("Notification (demo mode): approval requested",
		zap.String("approver_id", approver.ID),
		zap.String("approver_email", approver.Email),
		zap.String("reference", summary.Reference),
		zap.String("title", summary.Title),
		zap.Bool("reminder", summary.Reminder))
	return nil
}

// NotifyRequester logs the outcome notification
func (n *LogNotifier) NotifyRequester(ctx context.Context, requester Recipient, outcome Outcome) error {
	n.logger.Info("Notification (demo mode): request outcome",
		zap.String("requester_id", requester.ID),
		zap.String("requester_email", requester.Email),
		zap.String("reference", outcome.Reference),
		zap.String("status", outcome.Status))
	return nil
}
