package domain

import "fmt"

// ValidationError reports defective submission data. It is terminal for a
// pipeline run: the data itself is wrong, so re-dispatching will not help.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// NotFoundError reports a dispatched submission id with no backing row.
type NotFoundError struct {
	SubmissionID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("submission %d not found", e.SubmissionID)
}

// StorageError wraps a failed upload to the remote shared folder.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// DeliveryError wraps an SMTP-level email failure.
type DeliveryError struct {
	Op  string
	Err error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("email %s: %v", e.Op, e.Err) }
func (e *DeliveryError) Unwrap() error { return e.Err }

// NotificationError wraps a chat webhook rejection.
type NotificationError struct {
	Op  string
	Err error
}

func (e *NotificationError) Error() string { return fmt.Sprintf("notification %s: %v", e.Op, e.Err) }
func (e *NotificationError) Unwrap() error { return e.Err }
