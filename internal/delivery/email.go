package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"acquisition-pdf-pipeline/internal/domain"
	"acquisition-pdf-pipeline/internal/pdf"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Enabled  bool
}

// EmailChannel sends the confirmation email with the rendered report
// attached. The connection is STARTTLS-mandatory; credentials never travel
// in the clear.
type EmailChannel struct {
	cfg EmailConfig
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Enabled() bool { return c.cfg.Enabled }

func (c *EmailChannel) Send(ctx context.Context, sub domain.Submission, doc domain.RenderedDocument) error {
	to := sub.Email()
	if to == "" {
		return &domain.DeliveryError{Op: "send", Err: errors.New("submission has no email address")}
	}

	msg := mail.NewMsg()
	if err := msg.From(c.cfg.From); err != nil {
		return &domain.DeliveryError{Op: "compose", Err: err}
	}
	if err := msg.To(to); err != nil {
		return &domain.DeliveryError{Op: "compose", Err: err}
	}
	msg.Subject(fmt.Sprintf("%s Analysis Report - %s", subjectPrefix(sub.FormType), sub.FullName()))
	msg.SetBodyString(mail.TypeTextPlain, emailBody(sub))
	if err := msg.AttachReader(doc.Filename, bytes.NewReader(doc.Content)); err != nil {
		return &domain.DeliveryError{Op: "attach", Err: err}
	}

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(c.cfg.Timeout),
	)
	if err != nil {
		return &domain.DeliveryError{Op: "connect", Err: err}
	}
	defer func() { _ = client.Close() }()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &domain.DeliveryError{Op: "send", Err: err}
	}
	return nil
}

func subjectPrefix(formType domain.FormType) string {
	switch formType {
	case domain.FormTypeCIM:
		return "CIM Questions"
	case domain.FormTypeCIMTraining:
		return "CIM Training"
	case domain.FormTypeLoL:
		return "Player Questionnaire"
	default:
		return "LOI Questions"
	}
}

func emailBody(sub domain.Submission) string {
	return fmt.Sprintf(`Dear %s,

Thank you for submitting your %s. Please find your analysis report attached.

Submission details:
  - Purchase Price: %s
  - Annual Revenue: %s
  - Industry: %s
  - Location: %s

The attached PDF contains the full overview of your submission.

Best regards,
Business Acquisition Services Team
`,
		sub.FullName(),
		subjectPrefix(sub.FormType),
		pdf.FormatCurrency(sub.Fields[domain.FieldPurchasePrice], "Not specified"),
		pdf.FormatCurrency(sub.Fields[domain.FieldRevenue], "Not specified"),
		orFallback(sub.Fields[domain.FieldIndustry], "Not specified"),
		orFallback(sub.Fields[domain.FieldLocation], "Not specified"),
	)
}

func orFallback(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
