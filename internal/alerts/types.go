package alerts

import "time"

// Task type constants
const (
	TaskRedemptionFulfilled = "email:redemption_fulfilled"
	TaskOperatorAlert       = "email:operator_alert"
)

// EmailEnvelope is the rendered message handed to the mailer.
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type RedemptionFulfilledPayload struct {
	RequestID string        `json:"request_id"`
	AccountID string        `json:"account_id"`
	Username  string        `json:"username"`
	Recipient string        `json:"recipient"`
	Code      string        `json:"code"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

type OperatorAlertPayload struct {
	RequestID string        `json:"request_id"`
	Message   string        `json:"message"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}
