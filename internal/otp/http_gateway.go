package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const vendorTimeout = 10 * time.Second

// HTTPGateway adapts the external SMS vendor's REST API. The vendor owns
// session expiry and reuse policy; this adapter only translates its wire
// contract into Gateway semantics and never retries.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway builds the vendor adapter.
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: vendorTimeout},
	}
}

type vendorSendResponse struct {
	SessionID string `json:"sessionId"`
}

type vendorVerifyResponse struct {
	Status string `json:"status"`
}

// Send asks the vendor to deliver a code and returns its session id.
func (g *HTTPGateway) Send(ctx context.Context, mobile string) (string, error) {
	status, body, err := g.post(ctx, "/otp/send", map[string]string{"mobile": mobile})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: provider status %d", ErrDeliveryFailed, status)
	}

	var resp vendorSendResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.SessionID == "" {
		return "", fmt.Errorf("%w: unexpected provider response", ErrDeliveryFailed)
	}
	return resp.SessionID, nil
}

// Verify submits the code for the session. Only an explicit verified status
// counts as success; a vendor 4xx means rejection, anything else is a
// provider failure.
func (g *HTTPGateway) Verify(ctx context.Context, sessionID, code string) error {
	status, body, err := g.post(ctx, "/otp/verify", map[string]string{"sessionId": sessionID, "otp": code})
	if err != nil {
		return fmt.Errorf("otp provider verify: %w", err)
	}
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return ErrInvalidCode
	}
	if status != http.StatusOK {
		return fmt.Errorf("otp provider verify: provider status %d", status)
	}

	var resp vendorVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("otp provider verify: decode response: %w", err)
	}
	if !strings.EqualFold(resp.Status, "verified") {
		return ErrInvalidCode
	}
	return nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload map[string]string) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, buf.Bytes(), nil
}
