package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/credit-ledger/ledger"
	"github.com/warp/credit-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(ledger.NewService(memory.New()))
}

func dispatch(t *testing.T, rt *Router, tag string, payload any) Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Envelope{MessageType: tag, Data: data})
	require.NoError(t, err)
	return rt.Dispatch(context.Background(), raw)
}

func decodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorMessage(t *testing.T, env Envelope) string {
	t.Helper()
	require.Equal(t, TagCommonError, env.MessageType)
	return decodeData[CommonErrorResponse](t, env).Message
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestDispatch_SetGetRoundtrip(t *testing.T) {
	rt := newTestRouter(t)

	env := dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u1", Credit: 100})
	require.Equal(t, TagSetCreditResponse, env.MessageType)
	set := decodeData[SetCreditResponse](t, env)
	assert.Equal(t, "u1", set.UserID)
	assert.Equal(t, int64(100), set.Credit)

	env = dispatch(t, rt, TagGetCreditRequest, GetCreditRequest{UserID: "u1"})
	require.Equal(t, TagGetCreditResponse, env.MessageType)
	got := decodeData[GetCreditResponse](t, env)
	assert.Equal(t, int64(100), got.Credit)
	assert.NotNil(t, got.AlterRecords)
	assert.Empty(t, got.AlterRecords)
}

func TestDispatch_AlterCredit(t *testing.T) {
	rt := newTestRouter(t)
	dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u1", Credit: 100})

	env := dispatch(t, rt, TagAlterCreditRequest, AlterCreditRequest{UserID: "u1", Credit: -30, Reason: "purchase"})
	require.Equal(t, TagAlterCreditResponse, env.MessageType)
	assert.Equal(t, int64(70), decodeData[AlterCreditResponse](t, env).Credit)

	env = dispatch(t, rt, TagGetCreditRequest, GetCreditRequest{UserID: "u1"})
	got := decodeData[GetCreditResponse](t, env)
	require.Len(t, got.AlterRecords, 1)
	assert.Equal(t, int64(-30), got.AlterRecords[0].Credit)
	assert.Equal(t, "purchase", got.AlterRecords[0].Reason)
}

func TestDispatch_TransferCredit(t *testing.T) {
	rt := newTestRouter(t)
	dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u1", Credit: 100})
	dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u2", Credit: 0})

	env := dispatch(t, rt, TagTransferCreditRequest, TransferCreditRequest{
		FromUserID: "u1", ToUserID: "u2", Credit: 40,
	})
	require.Equal(t, TagTransferCreditResponse, env.MessageType)
	resp := decodeData[TransferCreditResponse](t, env)
	assert.Equal(t, "u1", resp.FromUserID)
	assert.Equal(t, int64(60), resp.FromUserCredit)
	assert.Equal(t, "u2", resp.ToUserID)
	assert.Equal(t, int64(40), resp.ToUserCredit)
}

// =============================================================================
// ERROR CONVERSION
// =============================================================================

func TestDispatch_UnknownTag(t *testing.T) {
	rt := newTestRouter(t)

	env := rt.Dispatch(context.Background(), []byte(`{"message_type":"mystery_request","data":{}}`))
	assert.Equal(t, "unknown message type", errorMessage(t, env))
}

func TestDispatch_MalformedEnvelope(t *testing.T) {
	rt := newTestRouter(t)

	env := rt.Dispatch(context.Background(), []byte(`this is not json`))
	assert.Equal(t, "invalid message", errorMessage(t, env))
}

func TestDispatch_MalformedPayload(t *testing.T) {
	rt := newTestRouter(t)

	env := rt.Dispatch(context.Background(), []byte(`{"message_type":"set_credit_request","data":{"user_id":42}}`))
	assert.Contains(t, errorMessage(t, env), "invalid set_credit_request data")

	env = rt.Dispatch(context.Background(), []byte(`{"message_type":"get_credit_request","data":{}}`))
	assert.Contains(t, errorMessage(t, env), "invalid get_credit_request data")
}

func TestDispatch_DomainErrorsBecomeCommonError(t *testing.T) {
	rt := newTestRouter(t)

	env := dispatch(t, rt, TagGetCreditRequest, GetCreditRequest{UserID: "ghost"})
	assert.Contains(t, errorMessage(t, env), "not found")

	dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u1", Credit: 10})
	env = dispatch(t, rt, TagAlterCreditRequest, AlterCreditRequest{UserID: "u1", Credit: -50})
	assert.Contains(t, errorMessage(t, env), "insufficient credit")

	env = dispatch(t, rt, TagTransferCreditRequest, TransferCreditRequest{
		FromUserID: "u1", ToUserID: "u1", Credit: 5,
	})
	assert.Contains(t, errorMessage(t, env), "same account")

	env = dispatch(t, rt, TagTransferCreditRequest, TransferCreditRequest{
		FromUserID: "u1", ToUserID: "u2", Credit: -5,
	})
	assert.Contains(t, errorMessage(t, env), "positive")
}

func TestDispatch_StorageErrorIsGeneric(t *testing.T) {
	// Storage detail stays in the logs; the client sees a generic
	// message and the connection-level contract is preserved.

	store := memory.New()
	rt := NewRouter(ledger.NewService(store))
	dispatch(t, rt, TagSetCreditRequest, SetCreditRequest{UserID: "u1", Credit: 10})

	store.FailWrites(0, assert.AnError)
	env := dispatch(t, rt, TagAlterCreditRequest, AlterCreditRequest{UserID: "u1", Credit: -5})
	assert.Equal(t, "storage unavailable", errorMessage(t, env))
}
