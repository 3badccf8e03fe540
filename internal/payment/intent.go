package payment

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"
)

// PaymentIntent is the externally-hosted intent a card buyer pays against.
// The client secret is handed to the browser; the ID is recorded on the
// order and becomes the idempotency key for webhook finalization.
type PaymentIntent struct {
    ID           string
    ClientSecret string
}

// IntentClient creates payment intents on the card rail.  The reservation
// initiator depends on this interface so tests can substitute a stub.
type IntentClient interface {
    CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (*PaymentIntent, error)
}

// StripeClient is the production IntentClient.  It talks to the payment
// intents REST endpoint directly; the call surface is a single
// form-encoded POST.
type StripeClient struct {
    apiKey  string
    baseURL string
    httpc   *http.Client
}

// NewStripeClient builds a client with the given secret API key.
func NewStripeClient(apiKey string) *StripeClient {
    return &StripeClient{
        apiKey:  apiKey,
        baseURL: "https://api.stripe.com",
        httpc:   &http.Client{Timeout: 10 * time.Second},
    }
}

// CreatePaymentIntent creates an intent for the given amount and returns
// its ID and client secret.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (*PaymentIntent, error) {
    form := url.Values{}
    form.Set("amount", strconv.FormatInt(amountCents, 10))
    form.Set("currency", currency)
    form.Set("automatic_payment_methods[enabled]", "true")

    req, err := http.NewRequestWithContext(ctx, http.MethodPost,
        c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
    if err != nil {
        return nil, err
    }
    req.Header.Set("Authorization", "Bearer "+c.apiKey)
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    resp, err := c.httpc.Do(req)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return nil, err
    }
    if resp.StatusCode != http.StatusOK {
        return nil, fmt.Errorf("payment intent create failed: status %d: %s", resp.StatusCode, body)
    }
    var out struct {
        ID           string `json:"id"`
        ClientSecret string `json:"client_secret"`
    }
    if err := json.Unmarshal(body, &out); err != nil {
        return nil, err
    }
    if out.ID == "" || out.ClientSecret == "" {
        return nil, fmt.Errorf("payment intent response missing id or client secret")
    }
    return &PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}
