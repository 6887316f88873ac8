/*
messages.go - Wire envelope and message payloads

PURPOSE:
  Request/response data structures for the socket protocol. Every
  message is one JSON text frame:

      { "message_type": <tag>, "data": <payload> }

  Each request tag has exactly one response tag; any failure, whatever
  the operation, is a common_error_response.

SEE ALSO:
  - router.go: Tag dispatch and error conversion
  - socket.go: Framing over the WebSocket
*/
package api

import "encoding/json"

// =============================================================================
// ENVELOPE
// =============================================================================

// Message tags. Requests arrive with a *_request tag and leave with
// the matching *_response tag, or with TagCommonError on any failure.
const (
	TagSetCreditRequest       = "set_credit_request"
	TagSetCreditResponse      = "set_credit_response"
	TagGetCreditRequest       = "get_credit_request"
	TagGetCreditResponse      = "get_credit_response"
	TagAlterCreditRequest     = "alter_credit_request"
	TagAlterCreditResponse    = "alter_credit_response"
	TagTransferCreditRequest  = "transfer_credit_request"
	TagTransferCreditResponse = "transfer_credit_response"
	TagCommonError            = "common_error_response"
)

// Envelope is the outer wrapper of every message. Data stays raw until
// the tag selects a payload shape.
type Envelope struct {
	MessageType string          `json:"message_type"`
	Data        json.RawMessage `json:"data"`
}

// =============================================================================
// REQUEST PAYLOADS
// =============================================================================

type SetCreditRequest struct {
	UserID string `json:"user_id"`
	Credit int64  `json:"credit"`
}

type GetCreditRequest struct {
	UserID string `json:"user_id"`
}

type AlterCreditRequest struct {
	UserID string `json:"user_id"`
	Credit int64  `json:"credit"`
	Reason string `json:"reason,omitempty"`
}

type TransferCreditRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Credit     int64  `json:"credit"`
	Reason     string `json:"reason,omitempty"`
}

// =============================================================================
// RESPONSE PAYLOADS
// =============================================================================

type SetCreditResponse struct {
	UserID string `json:"user_id"`
	Credit int64  `json:"credit"`
}

type GetCreditResponse struct {
	UserID       string           `json:"user_id"`
	Credit       int64            `json:"credit"`
	AlterRecords []AlterRecordDTO `json:"alter_records"`
}

// AlterRecordDTO is one history entry on the wire.
type AlterRecordDTO struct {
	Time   int64  `json:"time"`
	Credit int64  `json:"credit"`
	Reason string `json:"reason"`
}

type AlterCreditResponse struct {
	UserID string `json:"user_id"`
	Credit int64  `json:"credit"`
}

type TransferCreditResponse struct {
	FromUserID     string `json:"from_user_id"`
	FromUserCredit int64  `json:"from_user_credit"`
	ToUserID       string `json:"to_user_id"`
	ToUserCredit   int64  `json:"to_user_credit"`
}

type CommonErrorResponse struct {
	Message string `json:"message"`
}
