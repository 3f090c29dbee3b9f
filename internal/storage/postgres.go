package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"acquisition-pdf-pipeline/internal/domain"
)

// ErrAlreadyReviewed is returned when a second review record is attempted
// for the same submission.
var ErrAlreadyReviewed = errors.New("submission already reviewed")

const fkViolation = "23503"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, formType domain.FormType, fields map[string]string, uploadedFileURL *string, attachmentCount int) (int64, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("encode fields: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO submissions (form_type, fields, status, uploaded_file_url, attachment_count)
		VALUES ($1, $2::jsonb, $3, $4, $5)
		RETURNING id
	`, formType, string(payload), domain.StatusPending, uploadedFileURL, attachmentCount).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, submissionID int64) (domain.Submission, error) {
	var sub domain.Submission
	var fields []byte
	var storageURL, uploadedFileURL, failureDetail sql.NullString
	var updatedAt sql.NullTime
	row := s.db.QueryRowContext(ctx, `
		SELECT id, form_type, fields, status, pdf_generated, email_sent,
		       storage_url, uploaded_file_url, attachment_count, failure_detail,
		       processed, created_at, updated_at
		FROM submissions
		WHERE id = $1
	`, submissionID)
	if err := row.Scan(
		&sub.ID,
		&sub.FormType,
		&fields,
		&sub.Status,
		&sub.PDFGenerated,
		&sub.EmailSent,
		&storageURL,
		&uploadedFileURL,
		&sub.AttachmentCount,
		&failureDetail,
		&sub.Processed,
		&sub.CreatedAt,
		&updatedAt,
	); err != nil {
		return domain.Submission{}, err
	}
	if err := json.Unmarshal(fields, &sub.Fields); err != nil {
		return domain.Submission{}, fmt.Errorf("decode fields for submission %d: %w", submissionID, err)
	}
	if storageURL.Valid {
		sub.StorageURL = &storageURL.String
	}
	if uploadedFileURL.Valid {
		sub.UploadedFileURL = &uploadedFileURL.String
	}
	if failureDetail.Valid {
		sub.FailureDetail = &failureDetail.String
	}
	if updatedAt.Valid {
		sub.UpdatedAt = updatedAt.Time
	}
	return sub, nil
}

func (s *PostgresStore) GetSubmissionStatus(ctx context.Context, submissionID int64) (domain.SubmissionStatus, domain.FormType, error) {
	var status domain.SubmissionStatus
	var formType domain.FormType
	row := s.db.QueryRowContext(ctx, `SELECT status, form_type FROM submissions WHERE id = $1`, submissionID)
	if err := row.Scan(&status, &formType); err != nil {
		return "", "", err
	}
	return status, formType, nil
}

func (s *PostgresStore) SetPDFGenerated(ctx context.Context, submissionID int64, generated bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET pdf_generated = $2, updated_at = NOW()
		WHERE id = $1
	`, submissionID, generated)
	return err
}

// MarkRenderFailed records a terminal render failure. The run is over, so
// the row is also marked processed.
func (s *PostgresStore) MarkRenderFailed(ctx context.Context, submissionID int64, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = $2, pdf_generated = FALSE, failure_detail = $3, processed = TRUE, updated_at = NOW()
		WHERE id = $1
	`, submissionID, domain.StatusFailed, reason)
	return err
}

// SaveDeliveryOutcome records the terminal delivering outcome of a run.
// Partial results (storage link, email flag) are kept even when the overall
// status is failed so operators can retry only the failed channels.
func (s *PostgresStore) SaveDeliveryOutcome(ctx context.Context, submissionID int64, status domain.SubmissionStatus, storageURL *string, emailSent bool, failureDetail *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = $2,
		    storage_url = COALESCE($3, storage_url),
		    email_sent = $4,
		    failure_detail = $5,
		    processed = TRUE,
		    updated_at = NOW()
		WHERE id = $1
	`, submissionID, status, storageURL, emailSent, failureDetail)
	return err
}

func (s *PostgresStore) RecordDeliveryAttempt(ctx context.Context, submissionID int64, channel domain.DeliveryChannel, ok bool, detail string, link string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_attempts (submission_id, channel, ok, detail, link)
		VALUES ($1, $2, $3, $4, $5)
	`, submissionID, channel, ok, detail, link)
	return err
}

func (s *PostgresStore) ListDeliveryAttempts(ctx context.Context, submissionID int64) ([]domain.DeliveryAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT submission_id, channel, ok, detail, link, created_at
		FROM delivery_attempts
		WHERE submission_id = $1
		ORDER BY created_at ASC, id ASC
	`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]domain.DeliveryAttempt, 0)
	for rows.Next() {
		var a domain.DeliveryAttempt
		if err := rows.Scan(&a.SubmissionID, &a.Channel, &a.OK, &a.Detail, &a.Link, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (s *PostgresStore) InsertAudit(ctx context.Context, submissionID int64, state domain.AuditState, detail any) error {
	var payload []byte
	switch v := detail.(type) {
	case nil:
		payload = []byte("{}")
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = b
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (submission_id, state, detail)
		VALUES ($1, $2, $3::jsonb)
	`, submissionID, state, string(payload))
	return err
}

// CreateReview records that a human reviewed the submission. One review per
// submission; duplicates return ErrAlreadyReviewed, unknown submissions a
// NotFoundError.
func (s *PostgresStore) CreateReview(ctx context.Context, submissionID int64, reviewer string) (domain.ReviewRecord, error) {
	rec := domain.ReviewRecord{SubmissionID: submissionID, Reviewer: reviewer}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO review_records (submission_id, reviewer)
		VALUES ($1, $2)
		ON CONFLICT (submission_id) DO NOTHING
		RETURNING id, reviewed_at
	`, submissionID, reviewer).Scan(&rec.ID, &rec.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ReviewRecord{}, ErrAlreadyReviewed
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
		return domain.ReviewRecord{}, &domain.NotFoundError{SubmissionID: submissionID}
	}
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) GetReview(ctx context.Context, submissionID int64) (*domain.ReviewRecord, error) {
	var rec domain.ReviewRecord
	row := s.db.QueryRowContext(ctx, `
		SELECT id, submission_id, reviewer, reviewed_at
		FROM review_records
		WHERE submission_id = $1
	`, submissionID)
	if err := row.Scan(&rec.ID, &rec.SubmissionID, &rec.Reviewer, &rec.ReviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListStalled returns pending submissions older than cutoff that never
// reached a terminal outcome, for the redispatcher sweep.
func (s *PostgresStore) ListStalled(ctx context.Context, cutoff time.Time) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_type, status
		FROM submissions
		WHERE status = $1 AND processed = FALSE AND created_at < $2
		ORDER BY created_at ASC
	`, domain.StatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]domain.Submission, 0)
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.FormType, &sub.Status); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

// ListUnfinished returns pending and failed submissions for operator review.
func (s *PostgresStore) ListUnfinished(ctx context.Context) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_type, fields, status, failure_detail, created_at
		FROM submissions
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC
	`, domain.StatusPending, domain.StatusFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]domain.Submission, 0)
	for rows.Next() {
		var sub domain.Submission
		var fields []byte
		var failureDetail sql.NullString
		if err := rows.Scan(&sub.ID, &sub.FormType, &fields, &sub.Status, &failureDetail, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &sub.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for submission %d: %w", sub.ID, err)
		}
		if failureDetail.Valid {
			sub.FailureDetail = &failureDetail.String
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *PostgresStore) CountSubmissions(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}
