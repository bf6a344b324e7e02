package notifications

// NotificationInterface defines the contract for delivering a finished daily
// summary. The summary text is treated as opaque payload.
type NotificationInterface interface {
	SendSummary(subject, body string) error
}
