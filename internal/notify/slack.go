// internal/notify/slack.go
package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

const (
	colorDanger  = "danger"
	colorWarning = "warning"
	colorInfo    = "#2eb886"
)

type slackAPI interface {
	PostMessageContext(ctx context.Context, channel string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts allocation events as attachment messages to a fixed
// channel. With DryRun set it only logs what it would post.
type SlackNotifier struct {
	api     slackAPI
	channel string
	dryRun  bool
}

func NewSlackNotifier(token, channel string, dryRun bool) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
		dryRun:  dryRun,
	}
}

func (n *SlackNotifier) ShortageDetected(ctx context.Context, alert ShortageAlert) error {
	return n.post(ctx, "Insufficient stock to cover open orders", shortageAttachment(alert))
}

func (n *SlackNotifier) SellableLotChanged(ctx context.Context, alert LotShiftAlert) error {
	return n.post(ctx, "Sellable inventory lot changed", lotShiftAttachment(alert))
}

func (n *SlackNotifier) NegativeInventory(ctx context.Context, skuCode string, inventory int) error {
	return n.post(ctx, "Negative physical inventory", slack.Attachment{
		Color: colorWarning,
		Title: skuCode,
		Fields: []slack.AttachmentField{
			{Title: "SKU", Value: skuCode, Short: true},
			{Title: "Inventory", Value: strconv.Itoa(inventory), Short: true},
		},
	})
}

func (n *SlackNotifier) SKUFailed(ctx context.Context, skuCode string, cause error) error {
	return n.post(ctx, "SKU allocation failed", slack.Attachment{
		Color: colorDanger,
		Title: skuCode,
		Fields: []slack.AttachmentField{
			{Title: "SKU", Value: skuCode, Short: true},
			{Title: "Error", Value: cause.Error()},
		},
	})
}

func (n *SlackNotifier) post(ctx context.Context, text string, attachment slack.Attachment) error {
	if n.dryRun {
		log.Info().
			Str("channel", n.channel).
			Str("text", text).
			Interface("attachment", attachment).
			Msg("dry run: skipping slack post")
		return nil
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("slack: failed to post message: %w", err)
	}
	return nil
}

func shortageAttachment(alert ShortageAlert) slack.Attachment {
	return slack.Attachment{
		Color: colorDanger,
		Title: fmt.Sprintf("%s (%s)", alert.SKUName, alert.SKUCode),
		Text:  "Open orders exceed every known inventory lot. Additional supply is required.",
		Fields: []slack.AttachmentField{
			{Title: "SKU", Value: alert.SKUCode, Short: true},
			{Title: "Uncovered quantity", Value: strconv.Itoa(alert.UnmetCount), Short: true},
		},
	}
}

func lotShiftAttachment(alert LotShiftAlert) slack.Attachment {
	return slack.Attachment{
		Color: colorInfo,
		Title: fmt.Sprintf("%s (%s)", alert.SKUName, alert.SKUCode),
		Fields: []slack.AttachmentField{
			{Title: "SKU", Value: alert.SKUCode, Short: true},
			{Title: "Previous lot", Value: alert.PreviousLot, Short: true},
			{Title: "New lot", Value: alert.NextLot, Short: true},
		},
	}
}

var _ Notifier = (*SlackNotifier)(nil)
