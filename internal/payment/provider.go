package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"toonlord/internal/metrics"
)

// ErrProviderUnavailable covers timeouts and non-2xx answers from the
// checkout provider. Callers treat it as "not paid" and may retry.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// MinChargeINR is the provider's minimum charge for INR transactions.
const MinChargeINR int64 = 50

const providerTimeout = 10 * time.Second

// Session mirrors the fields of a provider checkout session the bridge
// cares about.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

// Paid reports whether the provider settled the session.
func (s *Session) Paid() bool {
	return s.PaymentStatus == "paid"
}

// Provider is a Stripe-checkout-shaped HTTP client. Requests are
// form-encoded with bearer auth, responses are JSON.
type Provider struct {
	apiKey     string
	baseURL    string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewProvider(apiKey, baseURL, successURL, cancelURL string) *Provider {
	return &Provider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		successURL: successURL,
		cancelURL:  cancelURL,
		client:     &http.Client{Timeout: providerTimeout},
	}
}

// CreateSession opens a checkout session for a coin package. amountINR
// is the charge in whole rupees; the provider wants paise. The user and
// coin count travel in session metadata so verification can credit the
// right wallet without trusting the client.
func (p *Provider) CreateSession(ctx context.Context, userID int, coins, amountINR int64) (*Session, error) {
	if amountINR < MinChargeINR {
		amountINR = MinChargeINR
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", "inr")
	form.Set("line_items[0][price_data][product_data][name]", fmt.Sprintf("%d toonCoins", coins))
	form.Set("line_items[0][price_data][product_data][description]", "Digital currency for ToonLord Manga Reader")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountINR*100, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", p.successURL)
	form.Set("cancel_url", p.cancelURL)
	form.Set("metadata[userId]", strconv.Itoa(userID))
	form.Set("metadata[coins]", strconv.FormatInt(coins, 10))

	session := &Session{}
	if err := p.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, session); err != nil {
		metrics.RecordProviderRequest("create_session", "error")
		return nil, err
	}
	metrics.RecordProviderRequest("create_session", "ok")
	return session, nil
}

// RetrieveSession fetches the current state of a checkout session.
func (p *Provider) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	session := &Session{}
	if err := p.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, session); err != nil {
		metrics.RecordProviderRequest("retrieve_session", "error")
		return nil, err
	}
	metrics.RecordProviderRequest("retrieve_session", "ok")
	return session, nil
}

func (p *Provider) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
