package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "strconv"
    "strings"
    "time"
)

// Card event types the webhook handler reacts to.  Anything else parses
// into EventUnknown and is acknowledged without action.
const (
    EventPaymentSucceeded = "payment_intent.succeeded"
    EventPaymentFailed    = "payment_intent.payment_failed"
    EventUnknown          = "unknown"
)

// CardEvent is the verified, decoded form of a card webhook delivery.
type CardEvent struct {
    Type        string // one of the Event* constants
    IntentID    string // external payment intent ID
    AmountCents int64  // amount the rail reports as charged
}

// CardVerifier validates card webhook deliveries.  The rail signs the raw
// request body with a shared secret using the scheme
//
//	Stripe-Signature: t=<unix>,v1=<hex hmac-sha256(secret, "<t>.<body>")>
//
// and the verifier recomputes the MAC over the exact bytes received.  The
// signed timestamp must fall within the tolerance window to bound replay of
// captured deliveries.
type CardVerifier struct {
    secret    string
    tolerance time.Duration
    now       func() time.Time // injectable for tests
}

// NewCardVerifier builds a verifier with the given shared webhook secret
// and timestamp tolerance.  A tolerance of zero disables the window check.
func NewCardVerifier(secret string, tolerance time.Duration) *CardVerifier {
    return &CardVerifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// VerifyEvent checks the signature header against the raw body and decodes
// the event.  The body must be the bytes exactly as received on the wire —
// re-serializing before verification changes the MAC.  Returns
// ErrInvalidSignature on any header or MAC failure and ErrMalformedPayload
// when a genuine event body cannot be decoded.
func (v *CardVerifier) VerifyEvent(body []byte, sigHeader string) (*CardEvent, error) {
    ts, sigs, err := parseSignatureHeader(sigHeader)
    if err != nil {
        return nil, err
    }
    if v.tolerance > 0 {
        age := v.now().UTC().Sub(time.Unix(ts, 0))
        if age > v.tolerance || age < -v.tolerance {
            return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
        }
    }
    expected := computeCardMAC(v.secret, ts, body)
    ok := false
    for _, s := range sigs {
        if hmac.Equal(s, expected) {
            ok = true
            break
        }
    }
    if !ok {
        return nil, ErrInvalidSignature
    }

    var raw struct {
        Type string `json:"type"`
        Data struct {
            Object struct {
                ID     string `json:"id"`
                Amount int64  `json:"amount"`
            } `json:"object"`
        } `json:"data"`
    }
    if err := json.Unmarshal(body, &raw); err != nil {
        return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
    }
    ev := &CardEvent{Type: EventUnknown}
    switch raw.Type {
    case EventPaymentSucceeded, EventPaymentFailed:
        if raw.Data.Object.ID == "" {
            return nil, fmt.Errorf("%w: missing payment intent id", ErrMalformedPayload)
        }
        ev.Type = raw.Type
        ev.IntentID = raw.Data.Object.ID
        ev.AmountCents = raw.Data.Object.Amount
    }
    return ev, nil
}

// parseSignatureHeader splits "t=...,v1=...,v1=..." into a timestamp and
// one or more candidate MACs.  Multiple v1 entries appear while a secret
// is being rotated; any one matching is sufficient.
func parseSignatureHeader(header string) (int64, [][]byte, error) {
    if header == "" {
        return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
    }
    var ts int64 = -1
    var sigs [][]byte
    for _, part := range strings.Split(header, ",") {
        k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
        if !ok {
            continue
        }
        switch k {
        case "t":
            n, err := strconv.ParseInt(val, 10, 64)
            if err != nil {
                return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
            }
            ts = n
        case "v1":
            raw, err := hex.DecodeString(val)
            if err != nil {
                continue // skip undecodable entries, another v1 may match
            }
            sigs = append(sigs, raw)
        }
    }
    if ts < 0 || len(sigs) == 0 {
        return 0, nil, fmt.Errorf("%w: incomplete signature header", ErrInvalidSignature)
    }
    return ts, sigs, nil
}

func computeCardMAC(secret string, ts int64, body []byte) []byte {
    mac := hmac.New(sha256.New, []byte(secret))
    fmt.Fprintf(mac, "%d.", ts)
    mac.Write(body)
    return mac.Sum(nil)
}
