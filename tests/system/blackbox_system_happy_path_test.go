//go:build system

package system_test

import (
	"context"
	"database/sql"
	"os"
	"strings"

	_ "github.com/lib/pq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/client"

	"acquisition-pdf-pipeline/internal/domain"
)

var _ = Describe("System blackbox happy path", Ordered, func() {
	var repoRoot string
	var cfg systemTestConfig

	BeforeAll(func() {
		if os.Getenv("RUN_BLACKBOX_SYSTEM_TEST") != "1" {
			Skip("set RUN_BLACKBOX_SYSTEM_TEST=1 to run real blackbox system test")
		}

		cfg = loadSystemTestConfig()

		var err error
		repoRoot, err = findRepoRoot()
		Expect(err).ToNot(HaveOccurred())

		By("verifying required docker compose services (including worker) are already running")
		Expect(requireComposeServicesRunning(repoRoot, cfg.RequiredComposeServices)).To(Succeed())

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForTemporal(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(cfg.MinioReadyURL, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(strings.TrimRight(cfg.APIBaseURL, "/")+cfg.APIHealthPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(strings.TrimRight(cfg.APIBaseURL, "/")+cfg.APIReadyPath, 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForWorkerPoller(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TemporalTaskQueue, cfg.WorkerPollerTimeout)).To(Succeed())
		Expect(applySchema(repoRoot, cfg.PostgresDSN)).To(Succeed())
	})

	It("accepts a submission over HTTP and delivers it via a real worker", func() {
		apiBaseURL := strings.TrimRight(cfg.APIBaseURL, "/")

		By("submitting an intake form exactly like a user")
		created, err := createSubmission(apiBaseURL, domain.FormTypeLOI, map[string]string{
			domain.FieldFullName:      "Jane Doe",
			domain.FieldEmail:         "jane@example.com",
			domain.FieldIndustry:      "Manufacturing",
			domain.FieldLocation:      "Austin, TX",
			domain.FieldPurchasePrice: "1250000",
			domain.FieldRevenue:       "3400000",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(created.SubmissionID).To(BeNumerically(">", 0))
		Expect(created.WorkflowID).ToNot(BeEmpty())
		Expect(created.Status).To(Equal(domain.StatusPending))

		By("polling submission status until the pipeline finishes")
		Eventually(func() domain.SubmissionStatus {
			status, statusErr := getStatus(apiBaseURL, created.SubmissionID)
			Expect(statusErr).ToNot(HaveOccurred())
			return status.Status
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(domain.StatusDelivered))

		By("checking the final submission record")
		record, err := getSubmission(apiBaseURL, created.SubmissionID)
		Expect(err).ToNot(HaveOccurred())
		Expect(record.Status).To(Equal(domain.StatusDelivered))
		Expect(record.PDFGenerated).To(BeTrue())
		Expect(record.Processed).To(BeTrue())
		Expect(record.DeliveryAttempts).To(HaveLen(3))
		for _, attempt := range record.DeliveryAttempts {
			Expect(attempt.OK).To(BeTrue(), "channel %s", attempt.Channel)
		}

		By("validating activity order from Temporal workflow history")
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		Expect(err).ToNot(HaveOccurred())
		defer temporalClient.Close()

		scheduled, completed, err := collectActivityOrder(context.Background(), temporalClient, created.WorkflowID)
		Expect(err).ToNot(HaveOccurred())
		Expect(scheduled).To(Equal(cfg.ExpectedActivityOrder))
		Expect(completed).To(Equal(cfg.ExpectedActivityOrder))

		By("verifying audit records in Postgres")
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		Expect(err).ToNot(HaveOccurred())
		defer db.Close()

		Expect(db.Ping()).To(Succeed())

		auditStates, err := fetchStringRows(db, `SELECT state FROM audit_log WHERE submission_id = $1 ORDER BY id`, created.SubmissionID)
		Expect(err).ToNot(HaveOccurred())
		Expect(auditStates).To(ContainElement("RECEIVED"))
		Expect(auditStates).To(ContainElement("RENDERED"))
		Expect(auditStates).To(ContainElement("DELIVERED"))
		Expect(auditStates).To(ContainElement("CLEANED_UP"))

		channels, err := fetchStringRows(db, `SELECT channel FROM delivery_attempts WHERE submission_id = $1 ORDER BY id`, created.SubmissionID)
		Expect(err).ToNot(HaveOccurred())
		Expect(channels).To(ConsistOf("storage", "email", "chat"))
	})
})
