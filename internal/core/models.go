package core

import (
	"time"
)

// Mib is a scheduled "message in a bottle": a message owned by a user, due
// to be delivered at SendTime to one or more recipients.
type Mib struct {
	MessageID       int64            `json:"message_id"`
	UserID          string           `json:"user_id"`
	Message         string           `json:"message"`
	SendTime        time.Time        `json:"send_time"`
	Sent            bool             `json:"sent"`
	LastSentTime    *time.Time       `json:"last_sent_time"`
	EmailRecipients []EmailRecipient `json:"email_recipients,omitempty"`
}

// EmailRecipient is one email destination of a Mib. Rows never outlive their
// owning message.
type EmailRecipient struct {
	ID              int64      `json:"id"`
	MessageID       int64      `json:"message_id"`
	Email           string     `json:"email"`
	Sent            bool       `json:"sent"`
	SendAttemptTime *time.Time `json:"send_attempt_time"`
}
