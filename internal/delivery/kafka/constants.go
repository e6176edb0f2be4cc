package kafka

const (
	TopicBookingEvents      = "booking.events"
	TopicPaymentEvents      = "payment.events"
	TopicNotificationEvents = "notification.events"
	TopicAuditEvents        = "audit.events"
)

const (
	EventTypeBookingCreated   = "booking.created"
	EventTypeBookingCancelled = "booking.cancelled"
	EventTypeBookingConfirmed = "booking.confirmed"
	EventTypePaymentRequired  = "payment.required"
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeNotificationSend = "notification.send"
	EventTypeAuditLog         = "audit.log"
)

// EnvelopeVersion is the schema version stamped on every published envelope.
const EnvelopeVersion = "1.0"
