/*
router.go - Message dispatch

PURPOSE:
  Maps each request tag to its ledger operation and wraps the result
  (or error) in the matching response envelope. Stateless: no retries,
  no business logic, no per-connection memory.

ERROR HANDLING:
  This is the single place ledger errors become wire errors. Every
  failure - unknown tag, malformed payload, domain rejection, storage
  fault - comes back as a common_error_response; nothing here can take
  the connection down.
*/
package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/warp/credit-ledger/ledger"
)

// Router dispatches decoded envelopes to the ledger service.
type Router struct {
	svc *ledger.Service
}

func NewRouter(svc *ledger.Service) *Router {
	return &Router{svc: svc}
}

// Dispatch handles one request envelope and always returns a response
// envelope: the operation's response on success, a common error
// otherwise. raw is the full message as received on the wire.
func (rt *Router) Dispatch(ctx context.Context, raw []byte) Envelope {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errorEnvelope("invalid message")
	}

	switch env.MessageType {
	case TagSetCreditRequest:
		return rt.setCredit(ctx, env.Data)
	case TagGetCreditRequest:
		return rt.getCredit(ctx, env.Data)
	case TagAlterCreditRequest:
		return rt.alterCredit(ctx, env.Data)
	case TagTransferCreditRequest:
		return rt.transferCredit(ctx, env.Data)
	default:
		return errorEnvelope("unknown message type")
	}
}

func (rt *Router) setCredit(ctx context.Context, data json.RawMessage) Envelope {
	var req SetCreditRequest
	if err := json.Unmarshal(data, &req); err != nil || req.UserID == "" {
		return errorEnvelope("invalid set_credit_request data")
	}
	credit, err := rt.svc.SetCredit(ctx, ledger.AccountID(req.UserID), req.Credit)
	if err != nil {
		return errorFrom(err)
	}
	return responseEnvelope(TagSetCreditResponse, SetCreditResponse{
		UserID: req.UserID,
		Credit: credit,
	})
}

func (rt *Router) getCredit(ctx context.Context, data json.RawMessage) Envelope {
	var req GetCreditRequest
	if err := json.Unmarshal(data, &req); err != nil || req.UserID == "" {
		return errorEnvelope("invalid get_credit_request data")
	}
	credit, history, err := rt.svc.GetCredit(ctx, ledger.AccountID(req.UserID))
	if err != nil {
		return errorFrom(err)
	}
	records := make([]AlterRecordDTO, 0, len(history))
	for _, alt := range history {
		records = append(records, AlterRecordDTO{Time: alt.Time, Credit: alt.Delta, Reason: alt.Reason})
	}
	return responseEnvelope(TagGetCreditResponse, GetCreditResponse{
		UserID:       req.UserID,
		Credit:       credit,
		AlterRecords: records,
	})
}

func (rt *Router) alterCredit(ctx context.Context, data json.RawMessage) Envelope {
	var req AlterCreditRequest
	if err := json.Unmarshal(data, &req); err != nil || req.UserID == "" {
		return errorEnvelope("invalid alter_credit_request data")
	}
	credit, err := rt.svc.AdjustCredit(ctx, ledger.AccountID(req.UserID), req.Credit, req.Reason)
	if err != nil {
		return errorFrom(err)
	}
	return responseEnvelope(TagAlterCreditResponse, AlterCreditResponse{
		UserID: req.UserID,
		Credit: credit,
	})
}

func (rt *Router) transferCredit(ctx context.Context, data json.RawMessage) Envelope {
	var req TransferCreditRequest
	if err := json.Unmarshal(data, &req); err != nil || req.FromUserID == "" || req.ToUserID == "" {
		return errorEnvelope("invalid transfer_credit_request data")
	}
	fromCredit, toCredit, err := rt.svc.TransferCredit(ctx,
		ledger.AccountID(req.FromUserID), ledger.AccountID(req.ToUserID), req.Credit, req.Reason)
	if err != nil {
		return errorFrom(err)
	}
	return responseEnvelope(TagTransferCreditResponse, TransferCreditResponse{
		FromUserID:     req.FromUserID,
		FromUserCredit: fromCredit,
		ToUserID:       req.ToUserID,
		ToUserCredit:   toCredit,
	})
}

// =============================================================================
// ENVELOPE BUILDERS
// =============================================================================

func responseEnvelope(tag string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs; this should be unreachable.
		log.Printf("api: marshal %s payload: %v", tag, err)
		return errorEnvelope("internal error")
	}
	return Envelope{MessageType: tag, Data: data}
}

func errorEnvelope(message string) Envelope {
	data, _ := json.Marshal(CommonErrorResponse{Message: message})
	return Envelope{MessageType: TagCommonError, Data: data}
}

// errorFrom converts a ledger error to the wire error. Client-caused
// failures carry the ledger's own message; storage faults are logged
// in full and reported generically.
func errorFrom(err error) Envelope {
	if ledger.IsClientError(err) {
		return errorEnvelope(err.Error())
	}
	log.Printf("api: storage failure: %v", err)
	return errorEnvelope("storage unavailable")
}
