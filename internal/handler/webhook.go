package handler

import (
    "context"
    "errors"
    "io"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/p2p-marketplace/internal/payment"
    "github.com/iliyamo/p2p-marketplace/internal/service/orders"
)

// Finalizer is the slice of the order service the webhook layer needs.
type Finalizer interface {
    FinalizeCard(ctx context.Context, intentID string, amountCents int64) orders.FinalizeResult
    FinalizeCrypto(ctx context.Context, tx payment.ChainTx) orders.FinalizeResult
}

// WebhookHandler terminates the two inbound payment rails.  Both endpoints
// are unauthenticated; trust comes entirely from the HMAC signature over
// the raw request body, so the body must be read before any JSON binding
// touches it.
type WebhookHandler struct {
    Cards  *payment.CardVerifier
    Crypto *payment.CryptoVerifier
    Orders Finalizer
}

// NewWebhookHandler wires the two verifiers and the finalization engine.
func NewWebhookHandler(cards *payment.CardVerifier, crypto *payment.CryptoVerifier, svc Finalizer) *WebhookHandler {
    return &WebhookHandler{Cards: cards, Crypto: crypto, Orders: svc}
}

// StripeWebhook handles card payment events.
//
// Response contract: 400 for a missing or invalid signature, 500 for a
// transient database failure (the rail retries), and 200 for everything
// else.  Logic failures (no order, amount mismatch) also return 200: a
// redelivery cannot fix them, and the engine has already raised a
// reconciliation alert, so retries would only add noise.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
    }

    ev, err := h.Cards.VerifyEvent(body, c.Request().Header.Get("Stripe-Signature"))
    if err != nil {
        if errors.Is(err, payment.ErrInvalidSignature) {
            log.Printf("[webhook] stripe: rejected unsigned or mis-signed delivery")
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed payload"})
    }

    if ev.Type != payment.EventPaymentSucceeded {
        // Failed and unknown event types are acknowledged without action;
        // a pending order keeps waiting for a later success or expiry.
        log.Printf("[webhook] stripe: ignoring event type %q", ev.Type)
        return c.JSON(http.StatusOK, echo.Map{"received": true, "status": "ignored"})
    }

    res := h.Orders.FinalizeCard(c.Request().Context(), ev.IntentID, ev.AmountCents)
    switch {
    case res.Retryable():
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "temporarily unavailable"})
    case res.Success():
        return c.JSON(http.StatusOK, echo.Map{"received": true, "status": string(res.Status)})
    default:
        return c.JSON(http.StatusOK, echo.Map{"received": true, "status": "logic_error"})
    }
}

// CryptoWebhook handles mined-transaction notifications from the chain
// watcher.  An invalid signature gets 403; heartbeat deliveries with no
// transactions and reverted transactions are acknowledged without touching
// the engine.
func (h *WebhookHandler) CryptoWebhook(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
    }

    tx, err := h.Crypto.VerifyEvent(body, c.Request().Header.Get("X-Alchemy-Signature"))
    if err != nil {
        if errors.Is(err, payment.ErrInvalidSignature) {
            log.Printf("[webhook] crypto: rejected unsigned or mis-signed delivery")
            return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid signature"})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed payload"})
    }
    if tx == nil {
        return c.JSON(http.StatusOK, echo.Map{"status": "no_activity"})
    }
    if tx.Status != payment.TxStatusSuccess {
        // The transfer reverted on-chain; no funds moved, so the order
        // stays pending and the buyer may retry with a new transaction.
        log.Printf("[webhook] crypto: tx %s reverted on-chain, no action", tx.Hash)
        return c.JSON(http.StatusOK, echo.Map{"status": "tx_failed_on_chain"})
    }

    res := h.Orders.FinalizeCrypto(c.Request().Context(), *tx)
    if res.Retryable() {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "temporarily unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": string(res.Status)})
}
