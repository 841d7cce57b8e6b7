package notification

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/routing"
)

// LarkConfig holds Lark app credentials
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// LarkNotifier delivers notifications as Lark IM text messages, addressed by
// the recipient's email
type LarkNotifier struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkNotifier creates a Lark-backed notifier
func NewLarkNotifier(cfg LarkConfig, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &LarkNotifier{
		client: client,
		logger: logger,
	}
}

// NotifyApprover sends the approver a decision-request message
func (n *LarkNotifier) NotifyApprover(ctx context.Context, approver routing.Approver, summary RequestSummary) error {
	header := "Approval needed"
	if summary.Reminder {
		header = "Reminder: approval still needed"
	}

	text := fmt.Sprintf("%s\n[%s] %s (from %s, priority %s)\n%s",
		header, summary.Reference, summary.Title, summary.Requester, summary.Priority, summary.Summary)

	return n.sendText(ctx, approver.Email, text)
}

// NotifyRequester sends the requester the final outcome of their request
func (n *LarkNotifier) NotifyRequester(ctx context.Context, requester Recipient, outcome Outcome) error {
	if requester.Email == "" {
		return fmt.Errorf("requester %s has no email address", requester.ID)
	}

	text := fmt.Sprintf("Your request [%s] %s is %s", outcome.Reference, outcome.Title, outcome.Status)
	if outcome.Comments != "" {
		text += fmt.Sprintf("\nComments: %s", outcome.Comments)
	}

	return n.sendText(ctx, requester.Email, text)
}

func (n *LarkNotifier) sendText(ctx context.Context, receiveID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("Lark API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	n.logger.Info("Message sent",
		zap.String("message_id", messageID),
		zap.String("receive_id", receiveID))
	return nil
}
