package temporal

import (
	"context"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"

	"acquisition-pdf-pipeline/internal/domain"
)

func TestWorkflowBlackbox(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workflow Blackbox Suite")
}

type activityTrace struct {
	mu sync.Mutex

	startedOrder   []string
	completedOrder []string

	loadIn     *LoadSubmissionInput
	loadOut    *LoadSubmissionOutput
	renderIn   *RenderDocumentInput
	renderOut  *RenderDocumentOutput
	uploadIn   *UploadDocumentInput
	uploadOut  *UploadDocumentOutput
	mailIn     *SendEmailInput
	notifyIn   *NotifyChatInput
	finalizeIn *FinalizeDeliveryInput
	cleanupIn  *CleanupInput

	markRenderFailedCalls int
}

func (t *activityTrace) recordStarted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedOrder = append(t.startedOrder, name)
}

func (t *activityTrace) recordCompleted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completedOrder = append(t.completedOrder, name)
}

var _ = Describe("SubmissionPipelineWorkflow blackbox happy path", func() {
	It("loads a submission, renders the report, fans out all channels, and cleans up", func() {
		var suite testsuite.WorkflowTestSuite
		env := suite.NewTestWorkflowEnvironment()

		store := newFakeStore()
		store.subs[31] = validSubmission(31)
		acts := testActivities(store, GinkgoT().TempDir())

		trace := &activityTrace{}

		env.SetOnActivityStartedListener(func(info *activity.Info, _ context.Context, args converter.EncodedValues) {
			trace.recordStarted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "LoadSubmissionActivity":
				var in LoadSubmissionInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.loadIn = &in
				trace.mu.Unlock()
			case "RenderDocumentActivity":
				var in RenderDocumentInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.renderIn = &in
				trace.mu.Unlock()
			case "UploadDocumentActivity":
				var in UploadDocumentInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.uploadIn = &in
				trace.mu.Unlock()
			case "SendEmailActivity":
				var in SendEmailInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.mailIn = &in
				trace.mu.Unlock()
			case "NotifyChatActivity":
				var in NotifyChatInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.notifyIn = &in
				trace.mu.Unlock()
			case "FinalizeDeliveryActivity":
				var in FinalizeDeliveryInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.finalizeIn = &in
				trace.mu.Unlock()
			case "CleanupActivity":
				var in CleanupInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.cleanupIn = &in
				trace.mu.Unlock()
			case "MarkRenderFailedActivity":
				trace.mu.Lock()
				trace.markRenderFailedCalls++
				trace.mu.Unlock()
			}
		})

		env.SetOnActivityCompletedListener(func(info *activity.Info, result converter.EncodedValue, _ error) {
			trace.recordCompleted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "LoadSubmissionActivity":
				var out LoadSubmissionOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.loadOut = &out
				trace.mu.Unlock()
			case "RenderDocumentActivity":
				var out RenderDocumentOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.renderOut = &out
				trace.mu.Unlock()
			case "UploadDocumentActivity":
				var out UploadDocumentOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.uploadOut = &out
				trace.mu.Unlock()
			}
		})

		env.RegisterWorkflow(SubmissionPipelineWorkflow)
		env.RegisterActivity(acts.LoadSubmissionActivity)
		env.RegisterActivity(acts.RenderDocumentActivity)
		env.RegisterActivity(acts.MarkRenderFailedActivity)
		env.RegisterActivity(acts.UploadDocumentActivity)
		env.RegisterActivity(acts.SendEmailActivity)
		env.RegisterActivity(acts.NotifyChatActivity)
		env.RegisterActivity(acts.FinalizeDeliveryActivity)
		env.RegisterActivity(acts.CleanupActivity)

		By("triggering the workflow execution")
		env.ExecuteWorkflow(SubmissionPipelineWorkflow, WorkflowInput{SubmissionID: 31})

		By("validating workflow completes successfully")
		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).ToNot(HaveOccurred())

		var wfResult WorkflowResult
		Expect(env.GetWorkflowResult(&wfResult)).To(Succeed())
		Expect(wfResult.SubmissionID).To(Equal(int64(31)))
		Expect(wfResult.Status).To(Equal(domain.StatusDelivered))

		By("validating activity order and inputs for the happy path")
		expectedOrder := []string{
			"LoadSubmissionActivity",
			"RenderDocumentActivity",
			"UploadDocumentActivity",
			"SendEmailActivity",
			"NotifyChatActivity",
			"FinalizeDeliveryActivity",
			"CleanupActivity",
		}
		Expect(trace.startedOrder).To(Equal(expectedOrder))
		Expect(trace.completedOrder).To(Equal(expectedOrder))
		Expect(trace.markRenderFailedCalls).To(Equal(0))

		Expect(trace.loadIn).ToNot(BeNil())
		Expect(trace.loadIn.SubmissionID).To(Equal(int64(31)))

		Expect(trace.loadOut).ToNot(BeNil())
		Expect(trace.loadOut.Submission.FormType).To(Equal(domain.FormTypeLOI))

		Expect(trace.renderIn).ToNot(BeNil())
		Expect(trace.renderIn.Submission.ID).To(Equal(int64(31)))

		Expect(trace.renderOut).ToNot(BeNil())
		Expect(trace.renderOut.Filename).To(Equal("loi_overview_Jane_Doe_31.pdf"))
		Expect(trace.renderOut.Content).ToNot(BeEmpty())

		Expect(trace.uploadIn).ToNot(BeNil())
		Expect(trace.uploadIn.Document.Filename).To(Equal(trace.renderOut.Filename))
		Expect(trace.uploadIn.Document.Content).To(Equal(trace.renderOut.Content))

		Expect(trace.uploadOut).ToNot(BeNil())
		Expect(trace.uploadOut.Link).To(Equal("https://blob/report.pdf"))

		Expect(trace.mailIn).ToNot(BeNil())
		Expect(trace.mailIn.Document.Content).To(Equal(trace.renderOut.Content))

		Expect(trace.notifyIn).ToNot(BeNil())
		Expect(trace.notifyIn.StorageLink).To(Equal(trace.uploadOut.Link))
		Expect(trace.notifyIn.Filename).To(Equal(trace.renderOut.Filename))

		Expect(trace.finalizeIn).ToNot(BeNil())
		Expect(trace.finalizeIn.Results).To(HaveLen(3))
		for _, res := range trace.finalizeIn.Results {
			Expect(res.OK).To(BeTrue())
		}

		Expect(trace.cleanupIn).ToNot(BeNil())
		Expect(trace.cleanupIn.Path).To(Equal(trace.renderOut.Path))

		By("validating persisted side effects")
		store.mu.Lock()
		outcome := store.outcomes[31]
		auditStates := append([]domain.AuditState(nil), store.audit[31]...)
		attempts := append([]domain.DeliveryAttempt(nil), store.attempts[31]...)
		store.mu.Unlock()

		Expect(outcome.Status).To(Equal(domain.StatusDelivered))
		Expect(outcome.EmailSent).To(BeTrue())
		Expect(outcome.StorageURL).ToNot(BeNil())
		Expect(auditStates).To(Equal([]domain.AuditState{
			domain.AuditReceived,
			domain.AuditRendered,
			domain.AuditDelivered,
			domain.AuditCleanedUp,
		}))
		Expect(attempts).To(HaveLen(3))
	})
})
