package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPGateway talks to a hosted-checkout payment provider over HTTP. Every
// call carries a bounded timeout; a timed-out initiation leaves the intent
// PENDING and retriable.
type HTTPGateway struct {
	client    *http.Client
	baseURL   string
	storeID   string
	storePass string
}

// NewHTTPGateway builds a gateway client. timeout bounds every outbound call.
func NewHTTPGateway(baseURL, storeID, storePass string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		storeID:   storeID,
		storePass: storePass,
	}
}

type initiatePayload struct {
	StoreID    string            `json:"store_id"`
	StorePass  string            `json:"store_passwd"`
	TranID     string            `json:"tran_id"`
	Amount     string            `json:"total_amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url"`
	FailURL    string            `json:"fail_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"value_a,omitempty"`
}

type initiateReply struct {
	Status      string `json:"status"`
	RedirectURL string `json:"GatewayPageURL"`
	Reason      string `json:"failedreason"`
}

// Initiate opens a hosted payment session and returns the redirect URL.
func (g *HTTPGateway) Initiate(ctx context.Context, req InitiateRequest) (InitiateResponse, error) {
	body, err := json.Marshal(initiatePayload{
		StoreID:    g.storeID,
		StorePass:  g.storePass,
		TranID:     req.ExternalTxnID,
		Amount:     req.Amount.StringFixed(2),
		Currency:   req.Currency,
		SuccessURL: req.SuccessURL,
		FailURL:    req.FailURL,
		CancelURL:  req.CancelURL,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return InitiateResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/gwprocess/v4/api.php", bytes.NewReader(body))
	if err != nil {
		return InitiateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return InitiateResponse{}, fmt.Errorf("%w: initiate: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return InitiateResponse{}, fmt.Errorf("%w: read initiate response: %v", ErrGateway, err)
	}
	if resp.StatusCode != http.StatusOK {
		return InitiateResponse{}, fmt.Errorf("%w: initiate returned %d", ErrGateway, resp.StatusCode)
	}

	var reply initiateReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return InitiateResponse{}, fmt.Errorf("%w: decode initiate response: %v", ErrGateway, err)
	}
	if reply.RedirectURL == "" {
		return InitiateResponse{}, fmt.Errorf("%w: session rejected: %s", ErrGateway, reply.Reason)
	}

	return InitiateResponse{RedirectURL: reply.RedirectURL, RawPayload: raw}, nil
}

type validateReply struct {
	Status string `json:"status"`
}

// Validate asks the gateway whether the callback's validation token is
// genuine before the success callback is trusted.
func (g *HTTPGateway) Validate(ctx context.Context, validationToken string) (bool, error) {
	query := url.Values{}
	query.Set("val_id", validationToken)
	query.Set("store_id", g.storeID)
	query.Set("store_passwd", g.storePass)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/validator/api/validationserverAPI.php?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("%w: validate: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: validate returned %d", ErrGateway, resp.StatusCode)
	}

	var reply validateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return false, fmt.Errorf("%w: decode validate response: %v", ErrGateway, err)
	}
	return reply.Status == "VALID" || reply.Status == "VALIDATED", nil
}
