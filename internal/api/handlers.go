package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"acquisition-pdf-pipeline/internal/config"
	"acquisition-pdf-pipeline/internal/domain"
	"acquisition-pdf-pipeline/internal/storage"
	appTemporal "acquisition-pdf-pipeline/internal/temporal"
)

type Handler struct {
	cfg            config.Config
	store          *storage.PostgresStore
	blob           attachmentBlobStore
	temporalClient client.Client
}

type attachmentBlobStore interface {
	PutAttachment(ctx context.Context, filename string, content []byte, contentType string) (string, error)
}

type createSubmissionRequest struct {
	FormType string            `json:"form_type"`
	Fields   map[string]string `json:"fields"`
}

type statusResponse struct {
	SubmissionID int64                   `json:"submission_id"`
	Status       domain.SubmissionStatus `json:"status"`
	FormType     domain.FormType         `json:"form_type"`
}

type submissionResponse struct {
	domain.Submission
	DeliveryAttempts []domain.DeliveryAttempt `json:"delivery_attempts"`
	Review           *domain.ReviewRecord     `json:"review,omitempty"`
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
}

func NewHandler(cfg config.Config, store *storage.PostgresStore, blob attachmentBlobStore, temporalClient client.Client) *Handler {
	return &Handler{cfg: cfg, store: store, blob: blob, temporalClient: temporalClient}
}

// CreateSubmission writes the row, stores an optional attachment, and
// enqueues the pipeline. It returns as soon as the job is dispatched;
// rendering and delivery happen on the worker.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var (
		formType        domain.FormType
		fields          map[string]string
		uploadedFileURL *string
		attachmentCount int
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.cfg.AllowedUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart payload"})
			return
		}
		formType = domain.FormType(r.FormValue("form_type"))
		fields = make(map[string]string)
		for key, values := range r.MultipartForm.Value {
			if key == "form_type" || len(values) == 0 {
				continue
			}
			fields[key] = values[0]
		}

		file, header, err := r.FormFile("attachment")
		if err == nil {
			defer file.Close()
			if !allowedAttachment(header.Filename) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "attachment type not allowed"})
				return
			}
			body, err := io.ReadAll(io.LimitReader(file, h.cfg.AllowedUploadBytes+1))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read attachment"})
				return
			}
			if int64(len(body)) > h.cfg.AllowedUploadBytes {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "attachment exceeds size limit"})
				return
			}
			link, err := h.blob.PutAttachment(ctx, header.Filename, body, header.Header.Get("Content-Type"))
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to store attachment"})
				return
			}
			uploadedFileURL = &link
			attachmentCount = 1
		} else if !errors.Is(err, http.ErrMissingFile) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid attachment field"})
			return
		}
	} else {
		var req createSubmissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			return
		}
		formType = domain.FormType(req.FormType)
		fields = req.Fields
		if fields == nil {
			fields = make(map[string]string)
		}
	}

	if !domain.KnownFormType(formType) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported form_type"})
		return
	}

	submissionID, err := h.store.CreateSubmission(ctx, formType, fields, uploadedFileURL, attachmentCount)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to create submission"})
		return
	}

	if err := h.startPipeline(ctx, submissionID); err != nil {
		// The row exists; the redispatcher will pick it up. Still report
		// the dispatch problem to the caller.
		writeJSON(w, http.StatusAccepted, map[string]any{
			"submission_id": submissionID,
			"status":        domain.StatusPending,
			"warning":       "pipeline dispatch delayed",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"submission_id": submissionID,
		"workflow_id":   h.workflowID(submissionID),
		"status":        domain.StatusPending,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	submissionID, ok := parseSubmissionID(w, rawID)
	if !ok {
		return
	}

	status, formType, err := h.store.GetSubmissionStatus(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "submission not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch status"})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{SubmissionID: submissionID, Status: status, FormType: formType})
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request, rawID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	submissionID, ok := parseSubmissionID(w, rawID)
	if !ok {
		return
	}

	sub, err := h.store.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "submission not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch submission"})
		return
	}

	attempts, err := h.store.ListDeliveryAttempts(ctx, submissionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch delivery attempts"})
		return
	}
	review, err := h.store.GetReview(ctx, submissionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch review"})
		return
	}

	writeJSON(w, http.StatusOK, submissionResponse{Submission: sub, DeliveryAttempts: attempts, Review: review})
}

// SubmitReview records a human review of a processed submission. One review
// per submission.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request, rawID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	submissionID, ok := parseSubmissionID(w, rawID)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Reviewer) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "reviewer is required"})
		return
	}

	rec, err := h.store.CreateReview(ctx, submissionID, req.Reviewer)
	if err != nil {
		var nf *domain.NotFoundError
		switch {
		case errors.As(err, &nf):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "submission not found"})
		case errors.Is(err, storage.ErrAlreadyReviewed):
			writeJSON(w, http.StatusConflict, map[string]any{"error": "submission already reviewed"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record review"})
		}
		return
	}
	_ = h.store.InsertAudit(ctx, submissionID, domain.AuditReviewed, map[string]any{"reviewer": req.Reviewer})

	writeJSON(w, http.StatusCreated, rec)
}

// Dispatch re-runs the pipeline for an existing submission. This is the
// operator-facing retry for failed or partially delivered runs.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request, rawID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	submissionID, ok := parseSubmissionID(w, rawID)
	if !ok {
		return
	}

	if _, _, err := h.store.GetSubmissionStatus(ctx, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "submission not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch submission"})
		return
	}

	if err := h.startPipeline(ctx, submissionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to dispatch pipeline"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"submission_id": submissionID,
		"workflow_id":   h.workflowID(submissionID),
		"status":        "dispatched",
	})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	subs, err := h.store.ListUnfinished(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch pending submissions"})
		return
	}
	total, err := h.store.CountSubmissions(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to count submissions"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": subs, "total_submissions": total})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// startPipeline dispatches the workflow. A duplicate dispatch while a run
// for the same submission is still in flight is deduplicated by workflow id.
func (h *Handler) startPipeline(ctx context.Context, submissionID int64) error {
	_, err := h.temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        h.workflowID(submissionID),
		TaskQueue: h.cfg.TemporalTaskQueue,
	}, appTemporal.SubmissionPipelineWorkflowName, appTemporal.WorkflowInput{SubmissionID: submissionID})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

func (h *Handler) workflowID(submissionID int64) string {
	return fmt.Sprintf("%s-%d", h.cfg.WorkflowIDPrefix, submissionID)
}

func parseSubmissionID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid submission id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
