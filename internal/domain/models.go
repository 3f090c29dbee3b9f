package domain

import "time"

type FormType string

const (
	FormTypeLOI         FormType = "LOI"
	FormTypeCIM         FormType = "CIM"
	FormTypeCIMTraining FormType = "CIM_TRAINING"
	// FormTypeLoL is the legacy player-questionnaire variant kept for old rows.
	FormTypeLoL FormType = "LOL"
)

// Field keys shared across form layouts. Submissions carry free-form
// key/value pairs; these are the keys the renderer and delivery channels
// depend on by name.
const (
	FieldFullName         = "full_name"
	FieldEmail            = "email"
	FieldIndustry         = "industry"
	FieldLocation         = "location"
	FieldSellerRole       = "seller_role"
	FieldPurchasePrice    = "purchase_price"
	FieldRevenue          = "revenue"
	FieldAvgSDE           = "avg_sde"
	FieldTotalAdjustments = "total_adjustments"
)

type Submission struct {
	ID              int64             `json:"id"`
	FormType        FormType          `json:"form_type"`
	Fields          map[string]string `json:"fields"`
	Status          SubmissionStatus  `json:"status"`
	PDFGenerated    bool              `json:"pdf_generated"`
	EmailSent       bool              `json:"email_sent"`
	StorageURL      *string           `json:"storage_url,omitempty"`
	UploadedFileURL *string           `json:"uploaded_file_url,omitempty"`
	AttachmentCount int               `json:"attachment_count"`
	FailureDetail   *string           `json:"failure_detail,omitempty"`
	Processed       bool              `json:"processed"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FullName returns the submitter name or an empty string.
func (s Submission) FullName() string { return s.Fields[FieldFullName] }

// Email returns the submitter address or an empty string.
func (s Submission) Email() string { return s.Fields[FieldEmail] }

type ReviewRecord struct {
	ID           int64     `json:"id"`
	SubmissionID int64     `json:"submission_id"`
	Reviewer     string    `json:"reviewer"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// RenderedDocument is the transient output of one render. It lives only for
// the duration of a pipeline run; the durable copy is whatever the storage
// channel uploads.
type RenderedDocument struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ChannelResult is the per-channel outcome of one pipeline run. The
// orchestrator collects one per delivery channel rather than a single
// aggregate boolean.
type ChannelResult struct {
	Channel DeliveryChannel `json:"channel"`
	OK      bool            `json:"ok"`
	Detail  string          `json:"detail,omitempty"`
	Link    string          `json:"link,omitempty"`
}

type DeliveryAttempt struct {
	SubmissionID int64           `json:"submission_id"`
	Channel      DeliveryChannel `json:"channel"`
	OK           bool            `json:"ok"`
	Detail       string          `json:"detail,omitempty"`
	Link         string          `json:"link,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func KnownFormType(v FormType) bool {
	switch v {
	case FormTypeLOI, FormTypeCIM, FormTypeCIMTraining, FormTypeLoL:
		return true
	}
	return false
}
