package domain

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusDelivered SubmissionStatus = "delivered"
	StatusFailed    SubmissionStatus = "failed"
)

// AuditState tracks the fine-grained run state machine in the audit log.
// The submission row itself only ever carries pending/delivered/failed.
type AuditState string

const (
	AuditReceived           AuditState = "RECEIVED"
	AuditRendered           AuditState = "RENDERED"
	AuditRenderFailed       AuditState = "RENDER_FAILED"
	AuditDelivered          AuditState = "DELIVERED"
	AuditPartiallyDelivered AuditState = "PARTIALLY_DELIVERED"
	AuditDeliveryFailed     AuditState = "DELIVERY_FAILED"
	AuditCleanedUp          AuditState = "CLEANED_UP"
	AuditReviewed           AuditState = "REVIEWED"
)

type DeliveryChannel string

const (
	ChannelStorage DeliveryChannel = "storage"
	ChannelEmail   DeliveryChannel = "email"
	ChannelChat    DeliveryChannel = "chat"
)
