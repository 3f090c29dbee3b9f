package temporal

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"acquisition-pdf-pipeline/internal/domain"
	"acquisition-pdf-pipeline/internal/pdf"
)

const channelDisabledDetail = "channel disabled"

const (
	errTypeValidation = "ValidationError"
	errTypeNotFound   = "NotFoundError"
)

type ActivityStore interface {
	GetSubmission(ctx context.Context, submissionID int64) (domain.Submission, error)
	SetPDFGenerated(ctx context.Context, submissionID int64, generated bool) error
	MarkRenderFailed(ctx context.Context, submissionID int64, reason string) error
	SaveDeliveryOutcome(ctx context.Context, submissionID int64, status domain.SubmissionStatus, storageURL *string, emailSent bool, failureDetail *string) error
	RecordDeliveryAttempt(ctx context.Context, submissionID int64, channel domain.DeliveryChannel, ok bool, detail string, link string) error
	InsertAudit(ctx context.Context, submissionID int64, state domain.AuditState, detail any) error
}

type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, sub domain.Submission, doc domain.RenderedDocument) (string, error)
}

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, sub domain.Submission, doc domain.RenderedDocument) error
}

type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, sub domain.Submission, filename string, storageLink string) error
}

type Activities struct {
	Store    ActivityStore
	Renderer *pdf.Renderer
	Uploader Uploader
	Mailer   Mailer
	Notifier Notifier
	SpoolDir string
}

type LoadSubmissionInput struct {
	SubmissionID int64
}

type LoadSubmissionOutput struct {
	Submission domain.Submission
}

type RenderDocumentInput struct {
	Submission domain.Submission
}

type RenderDocumentOutput struct {
	Path     string
	Filename string
	Content  []byte
}

type MarkRenderFailedInput struct {
	SubmissionID int64
	Reason       string
}

type UploadDocumentInput struct {
	Submission domain.Submission
	Document   domain.RenderedDocument
}

type UploadDocumentOutput struct {
	Link    string
	Skipped bool
}

type SendEmailInput struct {
	Submission domain.Submission
	Document   domain.RenderedDocument
}

type SendEmailOutput struct {
	Skipped bool
}

type NotifyChatInput struct {
	Submission  domain.Submission
	Filename    string
	StorageLink string
}

type NotifyChatOutput struct {
	Skipped bool
}

type FinalizeDeliveryInput struct {
	SubmissionID int64
	Results      []domain.ChannelResult
}

type FinalizeDeliveryOutput struct {
	Status domain.SubmissionStatus
	Audit  domain.AuditState
}

type CleanupInput struct {
	SubmissionID int64
	Path         string
}

func (a *Activities) LoadSubmissionActivity(ctx context.Context, input LoadSubmissionInput) (LoadSubmissionOutput, error) {
	sub, err := a.Store.GetSubmission(ctx, input.SubmissionID)
	if errors.Is(err, sql.ErrNoRows) {
		nf := &domain.NotFoundError{SubmissionID: input.SubmissionID}
		return LoadSubmissionOutput{}, temporal.NewNonRetryableApplicationError(nf.Error(), errTypeNotFound, nf)
	}
	if err != nil {
		return LoadSubmissionOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, sub.ID, domain.AuditReceived, map[string]any{"form_type": sub.FormType, "status": sub.Status}); err != nil {
		return LoadSubmissionOutput{}, err
	}
	return LoadSubmissionOutput{Submission: sub}, nil
}

func (a *Activities) RenderDocumentActivity(ctx context.Context, input RenderDocumentInput) (RenderDocumentOutput, error) {
	var buf bytes.Buffer
	if err := a.Renderer.Render(input.Submission, &buf); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			// Defective data: re-running cannot succeed, so no retry.
			return RenderDocumentOutput{}, temporal.NewNonRetryableApplicationError(vErr.Error(), errTypeValidation, err)
		}
		return RenderDocumentOutput{}, err
	}

	filename := pdf.FileName(input.Submission)
	spoolPath := filepath.Join(a.SpoolDir, fmt.Sprintf("%d_%s_%s", input.Submission.ID, uuid.NewString()[:8], filename))
	if err := os.WriteFile(spoolPath, buf.Bytes(), 0o600); err != nil {
		return RenderDocumentOutput{}, fmt.Errorf("spool document: %w", err)
	}

	// On any failure past this point the spool file must not outlive the
	// activity: the workflow's render-failure branch has no path to it.
	if err := a.Store.SetPDFGenerated(ctx, input.Submission.ID, true); err != nil {
		_ = os.Remove(spoolPath)
		return RenderDocumentOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, input.Submission.ID, domain.AuditRendered, map[string]any{"filename": filename, "bytes": buf.Len()}); err != nil {
		_ = os.Remove(spoolPath)
		return RenderDocumentOutput{}, err
	}
	return RenderDocumentOutput{Path: spoolPath, Filename: filename, Content: buf.Bytes()}, nil
}

func (a *Activities) MarkRenderFailedActivity(ctx context.Context, input MarkRenderFailedInput) error {
	if err := a.Store.MarkRenderFailed(ctx, input.SubmissionID, input.Reason); err != nil {
		return err
	}
	return a.Store.InsertAudit(ctx, input.SubmissionID, domain.AuditRenderFailed, map[string]any{"reason": input.Reason})
}

func (a *Activities) UploadDocumentActivity(ctx context.Context, input UploadDocumentInput) (UploadDocumentOutput, error) {
	if !a.Uploader.Enabled() {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelStorage, true, channelDisabledDetail, "")
		return UploadDocumentOutput{Skipped: true}, nil
	}
	link, err := a.Uploader.Upload(ctx, input.Submission, input.Document)
	if err != nil {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelStorage, false, err.Error(), "")
		return UploadDocumentOutput{}, err
	}
	if err := a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelStorage, true, "", link); err != nil {
		return UploadDocumentOutput{}, err
	}
	return UploadDocumentOutput{Link: link}, nil
}

func (a *Activities) SendEmailActivity(ctx context.Context, input SendEmailInput) (SendEmailOutput, error) {
	if !a.Mailer.Enabled() {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelEmail, true, channelDisabledDetail, "")
		return SendEmailOutput{Skipped: true}, nil
	}
	if err := a.Mailer.Send(ctx, input.Submission, input.Document); err != nil {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelEmail, false, err.Error(), "")
		return SendEmailOutput{}, err
	}
	if err := a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelEmail, true, "", ""); err != nil {
		return SendEmailOutput{}, err
	}
	return SendEmailOutput{}, nil
}

func (a *Activities) NotifyChatActivity(ctx context.Context, input NotifyChatInput) (NotifyChatOutput, error) {
	if !a.Notifier.Enabled() {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelChat, true, channelDisabledDetail, "")
		return NotifyChatOutput{Skipped: true}, nil
	}
	if err := a.Notifier.Notify(ctx, input.Submission, input.Filename, input.StorageLink); err != nil {
		_ = a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelChat, false, err.Error(), "")
		return NotifyChatOutput{}, err
	}
	if err := a.Store.RecordDeliveryAttempt(ctx, input.Submission.ID, domain.ChannelChat, true, "", ""); err != nil {
		return NotifyChatOutput{}, err
	}
	return NotifyChatOutput{}, nil
}

func (a *Activities) FinalizeDeliveryActivity(ctx context.Context, input FinalizeDeliveryInput) (FinalizeDeliveryOutput, error) {
	var (
		okCount     int
		storageLink string
		emailSent   bool
		failures    []string
	)
	for _, res := range input.Results {
		if res.OK {
			okCount++
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", res.Channel, res.Detail))
		}
		if res.Channel == domain.ChannelStorage && res.OK && res.Link != "" {
			storageLink = res.Link
		}
		if res.Channel == domain.ChannelEmail && res.OK && res.Detail != channelDisabledDetail {
			emailSent = true
		}
	}

	status := domain.StatusFailed
	auditState := domain.AuditDeliveryFailed
	switch {
	case okCount == len(input.Results):
		status = domain.StatusDelivered
		auditState = domain.AuditDelivered
	case okCount > 0:
		auditState = domain.AuditPartiallyDelivered
	}

	var linkPtr *string
	if storageLink != "" {
		linkPtr = &storageLink
	}
	var failureDetail *string
	if len(failures) > 0 {
		joined := strings.Join(failures, "; ")
		failureDetail = &joined
	}

	if err := a.Store.SaveDeliveryOutcome(ctx, input.SubmissionID, status, linkPtr, emailSent, failureDetail); err != nil {
		return FinalizeDeliveryOutput{}, err
	}
	if err := a.Store.InsertAudit(ctx, input.SubmissionID, auditState, map[string]any{"results": input.Results}); err != nil {
		return FinalizeDeliveryOutput{}, err
	}
	return FinalizeDeliveryOutput{Status: status, Audit: auditState}, nil
}

// CleanupActivity removes the spooled document. It runs on every exit path
// of a run; a missing or never-created file is not an error.
func (a *Activities) CleanupActivity(ctx context.Context, input CleanupInput) error {
	if input.Path != "" {
		if err := os.Remove(input.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove spool file: %w", err)
		}
	}
	return a.Store.InsertAudit(ctx, input.SubmissionID, domain.AuditCleanedUp, map[string]any{"path": input.Path})
}
