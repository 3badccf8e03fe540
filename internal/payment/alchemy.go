package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
)

// On-chain execution statuses as reported by the indexer: 1 = success,
// 0 = reverted.  A reverted transaction moved no funds and must never
// reach the finalization engine.
const (
    TxStatusSuccess  = 1
    TxStatusReverted = 0
)

// ChainTx is a single transaction extracted from a verified block event.
// Value is the transferred amount in wei as a numeric string (decimal or
// 0x-prefixed hex), exactly as the provider delivered it.
type ChainTx struct {
    Hash   string
    From   string
    To     string
    Value  string
    Status int
}

// CryptoVerifier validates webhook deliveries from the blockchain indexer.
// The provider signs the raw request body with hex-encoded HMAC-SHA256
// under a per-webhook signing key, carried in the X-Alchemy-Signature
// header.
type CryptoVerifier struct {
    signingKey string
}

// NewCryptoVerifier builds a verifier with the given signing key.
func NewCryptoVerifier(signingKey string) *CryptoVerifier {
    return &CryptoVerifier{signingKey: signingKey}
}

// VerifyEvent checks the signature over the raw body and extracts at most
// one transaction from the block payload.  A nil transaction with nil
// error is a heartbeat: the provider delivers empty blocks to prove
// liveness, and that is a valid no-op rather than an error.  Returns
// ErrInvalidSignature on MAC failure and ErrMalformedPayload when a
// present transaction is missing the fields the engine needs.
func (v *CryptoVerifier) VerifyEvent(body []byte, sigHeader string) (*ChainTx, error) {
    if sigHeader == "" {
        return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
    }
    provided, err := hex.DecodeString(sigHeader)
    if err != nil {
        return nil, fmt.Errorf("%w: signature is not hex", ErrInvalidSignature)
    }
    mac := hmac.New(sha256.New, []byte(v.signingKey))
    mac.Write(body)
    if !hmac.Equal(provided, mac.Sum(nil)) {
        return nil, ErrInvalidSignature
    }

    var raw struct {
        Event struct {
            Data struct {
                Block struct {
                    Transactions []struct {
                        Hash   string `json:"hash"`
                        From   txAddr `json:"from"`
                        To     txAddr `json:"to"`
                        Value  string `json:"value"`
                        Status int    `json:"status"`
                    } `json:"transactions"`
                } `json:"block"`
            } `json:"data"`
        } `json:"event"`
    }
    if err := json.Unmarshal(body, &raw); err != nil {
        return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
    }
    txs := raw.Event.Data.Block.Transactions
    if len(txs) == 0 {
        return nil, nil // heartbeat / empty block
    }
    t := txs[0]
    if t.Hash == "" || t.To.Address == "" || t.Value == "" {
        return nil, fmt.Errorf("%w: transaction missing hash, recipient or value", ErrMalformedPayload)
    }
    return &ChainTx{
        Hash:   t.Hash,
        From:   t.From.Address,
        To:     t.To.Address,
        Value:  t.Value,
        Status: t.Status,
    }, nil
}

// txAddr tolerates both payload shapes the provider emits: a bare address
// string and an object with an "address" field (GraphQL-style blocks).
type txAddr struct {
    Address string
}

func (a *txAddr) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err == nil {
        a.Address = s
        return nil
    }
    var obj struct {
        Address string `json:"address"`
    }
    if err := json.Unmarshal(b, &obj); err != nil {
        return err
    }
    a.Address = obj.Address
    return nil
}
