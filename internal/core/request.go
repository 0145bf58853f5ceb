package core

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"
)

// RequestError is a validation rejection carrying the plain-text body and
// HTTP status the handler must return verbatim. Reason is a stable label
// for metrics.
type RequestError struct {
	Message string
	Status  int
	Reason  string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(reason, msg string) *RequestError {
	return &RequestError{Message: msg, Status: http.StatusBadRequest, Reason: reason}
}

// CreateRequest is a validated POST /mibs body.
type CreateRequest struct {
	Message    string
	SendTime   time.Time
	Recipients Recipients
}

// sendTimeLayouts are the ISO-8601 shapes accepted for sendTime.
var sendTimeLayouts = []string{
	time.RFC3339, // covers fractional seconds too
	"2006-01-02T15:04:05",
}

// ParseCreateRequest validates a message-creation request. Checks run in a
// fixed order and the first failure wins; note that a body holding only
// unsupported recipient types fails on the unknown-recipient check, not on
// the at-least-one-recipient check.
func ParseCreateRequest(contentType string, body []byte) (*CreateRequest, *RequestError) {
	if !isJSONContentType(contentType) {
		return nil, badRequest("not_json", "Request is not JSON")
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil || m == nil {
		return nil, badRequest("not_json", "Request is not JSON")
	}

	rawMessage, ok := m["message"]
	if !ok {
		return nil, badRequest("missing_message", `"message" missing from request body`)
	}

	rawRecipients, ok := m["recipients"]
	if !ok {
		return nil, badRequest("missing_recipients", `"recipients" missing from request body`)
	}
	list, ok := rawRecipients.([]any)
	if !ok {
		return nil, badRequest("not_json", "Request is not JSON")
	}

	recipients := ClassifyRecipients(list)
	if len(recipients.Unknown) > 0 {
		serialized, _ := json.Marshal(recipients.Unknown)
		return nil, badRequest("unknown_recipient", "Unknown recipient types: "+string(serialized))
	}

	if recipients.Supported() <= 0 {
		return nil, badRequest("no_recipients", "Must have atleast 1 recipient")
	}

	rawSendTime, ok := m["sendTime"]
	if !ok {
		return nil, badRequest("missing_send_time", `"sendTime" missing from request body`)
	}
	sendTime, ok := parseSendTime(rawSendTime)
	if !ok {
		return nil, badRequest("bad_send_time", `"sendTime" is not an ISO-8601 UTC date time string`)
	}

	text, _ := rawMessage.(string)
	return &CreateRequest{
		Message:    text,
		SendTime:   sendTime,
		Recipients: recipients,
	}, nil
}

func parseSendTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range sendTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isJSONContentType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
