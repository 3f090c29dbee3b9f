package temporal

import (
	"go.temporal.io/sdk/workflow"

	"acquisition-pdf-pipeline/internal/domain"
)

const SubmissionPipelineWorkflowName = "SubmissionPipelineWorkflow"

type WorkflowInput struct {
	SubmissionID int64
}

type WorkflowResult struct {
	SubmissionID int64
	Status       domain.SubmissionStatus
	Channels     []domain.ChannelResult
}

// SubmissionPipelineWorkflow runs one processing pass over a submission:
// load, render, fan out to the three delivery channels, finalize the row,
// clean up the spooled document. The three channels are independent; a
// failure in one never prevents the others from being attempted. Re-running
// the workflow for the same submission id is the retry mechanism and is
// safe: the row's fields are never touched here and every storage upload
// creates a fresh object.
func SubmissionPipelineWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	var loaded LoadSubmissionOutput
	if err := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyLoadSubmission),
		(*Activities).LoadSubmissionActivity,
		LoadSubmissionInput{SubmissionID: input.SubmissionID},
	).Get(ctx, &loaded); err != nil {
		return WorkflowResult{}, err
	}
	sub := loaded.Submission

	var rendered RenderDocumentOutput
	if err := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyRenderDocument),
		(*Activities).RenderDocumentActivity,
		RenderDocumentInput{Submission: sub},
	).Get(ctx, &rendered); err != nil {
		// Terminal for this run: defective data (or an exhausted render).
		// No delivery channel is invoked.
		_ = workflow.ExecuteActivity(
			mustActivityContext(ctx, ActivityPolicyMarkRenderFailed),
			(*Activities).MarkRenderFailedActivity,
			MarkRenderFailedInput{SubmissionID: sub.ID, Reason: err.Error()},
		).Get(ctx, nil)
		_ = workflow.ExecuteActivity(
			mustActivityContext(ctx, ActivityPolicyCleanup),
			(*Activities).CleanupActivity,
			CleanupInput{SubmissionID: sub.ID},
		).Get(ctx, nil)
		return WorkflowResult{SubmissionID: sub.ID, Status: domain.StatusFailed}, nil
	}

	doc := domain.RenderedDocument{Filename: rendered.Filename, Content: rendered.Content}
	results := make([]domain.ChannelResult, 0, 3)

	var uploaded UploadDocumentOutput
	uploadErr := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyUploadDocument),
		(*Activities).UploadDocumentActivity,
		UploadDocumentInput{Submission: sub, Document: doc},
	).Get(ctx, &uploaded)
	results = append(results, channelResult(domain.ChannelStorage, uploadErr, uploaded.Link, uploaded.Skipped))

	var mailed SendEmailOutput
	mailErr := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicySendEmail),
		(*Activities).SendEmailActivity,
		SendEmailInput{Submission: sub, Document: doc},
	).Get(ctx, &mailed)
	results = append(results, channelResult(domain.ChannelEmail, mailErr, "", mailed.Skipped))

	var notified NotifyChatOutput
	notifyErr := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyNotifyChat),
		(*Activities).NotifyChatActivity,
		NotifyChatInput{Submission: sub, Filename: rendered.Filename, StorageLink: uploaded.Link},
	).Get(ctx, &notified)
	results = append(results, channelResult(domain.ChannelChat, notifyErr, "", notified.Skipped))

	var finalized FinalizeDeliveryOutput
	finalizeErr := workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyFinalizeDelivery),
		(*Activities).FinalizeDeliveryActivity,
		FinalizeDeliveryInput{SubmissionID: sub.ID, Results: results},
	).Get(ctx, &finalized)

	// Cleanup runs on every exit path, including a failed finalize.
	_ = workflow.ExecuteActivity(
		mustActivityContext(ctx, ActivityPolicyCleanup),
		(*Activities).CleanupActivity,
		CleanupInput{SubmissionID: sub.ID, Path: rendered.Path},
	).Get(ctx, nil)

	if finalizeErr != nil {
		return WorkflowResult{}, finalizeErr
	}
	return WorkflowResult{SubmissionID: sub.ID, Status: finalized.Status, Channels: results}, nil
}

func channelResult(channel domain.DeliveryChannel, err error, link string, skipped bool) domain.ChannelResult {
	if err != nil {
		return domain.ChannelResult{Channel: channel, OK: false, Detail: err.Error()}
	}
	detail := ""
	if skipped {
		detail = channelDisabledDetail
	}
	return domain.ChannelResult{Channel: channel, OK: true, Detail: detail, Link: link}
}
