package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"acquisition-pdf-pipeline/internal/domain"
	"acquisition-pdf-pipeline/internal/pdf"
)

type ChatConfig struct {
	WebhookURL string
	Channel    string
	Timeout    time.Duration
	Enabled    bool
}

// ChatChannel posts a structured submission summary to the team webhook,
// with the storage link attached when the upload produced one.
type ChatChannel struct {
	cfg    ChatConfig
	client *http.Client
}

func NewChatChannel(cfg ChatConfig) *ChatChannel {
	return &ChatChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *ChatChannel) Enabled() bool { return c.cfg.Enabled }

func (c *ChatChannel) Notify(ctx context.Context, sub domain.Submission, filename string, storageLink string) error {
	msg := &slack.WebhookMessage{
		Channel: c.cfg.Channel,
		Blocks:  &slack.Blocks{BlockSet: c.buildBlocks(sub, filename, storageLink)},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, c.cfg.WebhookURL, c.client, msg); err != nil {
		return &domain.NotificationError{Op: "post", Err: err}
	}
	return nil
}

func (c *ChatChannel) buildBlocks(sub domain.Submission, filename string, storageLink string) []slack.Block {
	header := "New " + subjectPrefix(sub.FormType) + " Submission Processed"

	fields := []*slack.TextBlockObject{
		markdown("*Submitter:*\n" + orFallback(sub.FullName(), "Unknown")),
		markdown("*Email:*\n" + orFallback(sub.Email(), "Not provided")),
		markdown("*Purchase Price:*\n" + pdf.FormatCurrency(sub.Fields[domain.FieldPurchasePrice], "Not specified")),
		markdown("*Revenue:*\n" + pdf.FormatCurrency(sub.Fields[domain.FieldRevenue], "Not specified")),
		markdown("*Industry:*\n" + orFallback(sub.Fields[domain.FieldIndustry], "Not specified")),
		markdown("*Location:*\n" + orFallback(sub.Fields[domain.FieldLocation], "Not specified")),
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, header, false, false)),
		slack.NewSectionBlock(nil, fields, nil),
		slack.NewSectionBlock(markdown("*PDF File:* `"+filename+"`"), nil, nil),
	}

	if storageLink != "" {
		button := slack.NewButtonBlockElement("view_pdf", "view_pdf",
			slack.NewTextBlockObject(slack.PlainTextType, "View PDF", false, false))
		button.URL = storageLink
		button.Style = slack.StylePrimary
		blocks = append(blocks, slack.NewActionBlock("", button))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(markdown("*Storage link:* Not available"), nil, nil))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		markdown("Submitted "+sub.CreatedAt.UTC().Format("2006-01-02 15:04:05")+" UTC")))

	return blocks
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}
