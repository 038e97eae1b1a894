package payment

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiateRequest carries what the external gateway needs to open a hosted
// payment session.
type InitiateRequest struct {
	ExternalTxnID string
	IntentID      string
	Amount        decimal.Decimal
	Currency      string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	Metadata      map[string]string
}

// InitiateResponse is the gateway's answer to a session request. RawPayload
// is stored opaquely on the intent.
type InitiateResponse struct {
	RedirectURL string
	RawPayload  []byte
}

// Callback is the gateway's asynchronous settlement notification. Delivery is
// at-least-once; the settle path must tolerate duplicates.
type Callback struct {
	ExternalTxnID   string `json:"tran_id"`
	IntentID        string `json:"intent_id"`
	Status          string `json:"status"`
	ValidationToken string `json:"val_id"`
}

// Gateway connects to the external payment provider. Validate is called
// defensively before a success callback is trusted.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResponse, error)
	Validate(ctx context.Context, validationToken string) (bool, error)
}

// StaticGateway simulates a successful gateway integration. Used in
// development and tests.
type StaticGateway struct{}

// Initiate approves the session with a synthetic redirect URL.
func (StaticGateway) Initiate(_ context.Context, req InitiateRequest) (InitiateResponse, error) {
	payload, _ := json.Marshal(map[string]string{
		"session_id": uuid.NewString(),
		"tran_id":    req.ExternalTxnID,
		"status":     "SESSION_OPENED",
	})
	return InitiateResponse{
		RedirectURL: "https://sandbox.gateway.example/pay/" + req.ExternalTxnID,
		RawPayload:  payload,
	}, nil
}

// Validate accepts every validation token.
func (StaticGateway) Validate(_ context.Context, _ string) (bool, error) {
	return true, nil
}
