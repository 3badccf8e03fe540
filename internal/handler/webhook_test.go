package handler

import (
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/p2p-marketplace/internal/payment"
    "github.com/iliyamo/p2p-marketplace/internal/service/orders"
)

const (
    whCardSecret = "whsec_handler_test"
    whChainKey   = "alchemy_handler_test"
)

// stubFinalizer returns canned results and records what it was called with.
type stubFinalizer struct {
    cardResult   orders.FinalizeResult
    cryptoResult orders.FinalizeResult
    cardCalls    []string
    cryptoCalls  []payment.ChainTx
}

func (s *stubFinalizer) FinalizeCard(_ context.Context, intentID string, _ int64) orders.FinalizeResult {
    s.cardCalls = append(s.cardCalls, intentID)
    return s.cardResult
}

func (s *stubFinalizer) FinalizeCrypto(_ context.Context, tx payment.ChainTx) orders.FinalizeResult {
    s.cryptoCalls = append(s.cryptoCalls, tx)
    return s.cryptoResult
}

func newWebhookTest(fin *stubFinalizer) *WebhookHandler {
    return NewWebhookHandler(
        payment.NewCardVerifier(whCardSecret, 0), // zero tolerance disables the window check
        payment.NewCryptoVerifier(whChainKey),
        fin,
    )
}

func signStripe(body []byte) string {
    ts := time.Now().Unix()
    mac := hmac.New(sha256.New, []byte(whCardSecret))
    fmt.Fprintf(mac, "%d.", ts)
    mac.Write(body)
    return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signAlchemy(body []byte) string {
    mac := hmac.New(sha256.New, []byte(whChainKey))
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h echo.HandlerFunc, path, body, sigHeader, sigValue string) *httptest.ResponseRecorder {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
    if sigValue != "" {
        req.Header.Set(sigHeader, sigValue)
    }
    rec := httptest.NewRecorder()
    _ = h(e.NewContext(req, rec))
    return rec
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
    fin := &stubFinalizer{}
    h := newWebhookTest(fin)

    rec := postWebhook(h.StripeWebhook, "/v1/webhooks/stripe", `{}`, "Stripe-Signature", "")

    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Empty(t, fin.cardCalls)
}

func TestStripeWebhookAcceptsSuccessEvent(t *testing.T) {
    fin := &stubFinalizer{cardResult: orders.FinalizeResult{Status: orders.StatusCompleted, OrderID: "order-1"}}
    h := newWebhookTest(fin)

    body := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","amount":4800}}}`
    rec := postWebhook(h.StripeWebhook, "/v1/webhooks/stripe", body, "Stripe-Signature", signStripe([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, []string{"pi_123"}, fin.cardCalls)

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, true, resp["received"])
    assert.Equal(t, "completed", resp["status"])
}

func TestStripeWebhookIgnoresFailureEvent(t *testing.T) {
    fin := &stubFinalizer{}
    h := newWebhookTest(fin)

    body := `{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123","amount":4800}}}`
    rec := postWebhook(h.StripeWebhook, "/v1/webhooks/stripe", body, "Stripe-Signature", signStripe([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, fin.cardCalls, "a failed payment never reaches the engine")
}

func TestStripeWebhookLogicErrorStillAcks(t *testing.T) {
    fin := &stubFinalizer{cardResult: orders.FinalizeResult{Status: orders.StatusAmountMismatch, OrderID: "order-1"}}
    h := newWebhookTest(fin)

    body := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","amount":100}}}`
    rec := postWebhook(h.StripeWebhook, "/v1/webhooks/stripe", body, "Stripe-Signature", signStripe([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code, "redelivery cannot fix a logic failure")

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "logic_error", resp["status"])
}

func TestStripeWebhookDBErrorRequestsRetry(t *testing.T) {
    fin := &stubFinalizer{cardResult: orders.FinalizeResult{Status: orders.StatusDBError}}
    h := newWebhookTest(fin)

    body := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","amount":4800}}}`
    rec := postWebhook(h.StripeWebhook, "/v1/webhooks/stripe", body, "Stripe-Signature", signStripe([]byte(body)))

    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCryptoWebhookRejectsBadSignature(t *testing.T) {
    fin := &stubFinalizer{}
    h := newWebhookTest(fin)

    body := `{"event":{"data":{"block":{"transactions":[]}}}}`
    rec := postWebhook(h.CryptoWebhook, "/v1/webhooks/crypto", body, "X-Alchemy-Signature", "deadbeef")

    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Empty(t, fin.cryptoCalls)
}

func TestCryptoWebhookHeartbeat(t *testing.T) {
    fin := &stubFinalizer{}
    h := newWebhookTest(fin)

    body := `{"event":{"data":{"block":{"transactions":[]}}}}`
    rec := postWebhook(h.CryptoWebhook, "/v1/webhooks/crypto", body, "X-Alchemy-Signature", signAlchemy([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, fin.cryptoCalls)

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "no_activity", resp["status"])
}

func TestCryptoWebhookRevertedTxNeverFinalizes(t *testing.T) {
    fin := &stubFinalizer{}
    h := newWebhookTest(fin)

    body := `{"event":{"data":{"block":{"transactions":[{"hash":"0xabc","to":"0x2","value":"1","status":0}]}}}}`
    rec := postWebhook(h.CryptoWebhook, "/v1/webhooks/crypto", body, "X-Alchemy-Signature", signAlchemy([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, fin.cryptoCalls, "a reverted transaction moved no funds")

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "tx_failed_on_chain", resp["status"])
}

func TestCryptoWebhookForwardsSuccessfulTx(t *testing.T) {
    fin := &stubFinalizer{cryptoResult: orders.FinalizeResult{Status: orders.StatusCompleted, OrderID: "order-2"}}
    h := newWebhookTest(fin)

    body := `{"event":{"data":{"block":{"transactions":[{"hash":"0xabc","from":"0x1","to":"0x2","value":"20000000000000000","status":1}]}}}}`
    rec := postWebhook(h.CryptoWebhook, "/v1/webhooks/crypto", body, "X-Alchemy-Signature", signAlchemy([]byte(body)))

    assert.Equal(t, http.StatusOK, rec.Code)
    require.Len(t, fin.cryptoCalls, 1)
    assert.Equal(t, "0xabc", fin.cryptoCalls[0].Hash)

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "completed", resp["status"])
}
