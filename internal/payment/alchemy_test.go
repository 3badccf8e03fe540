package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSigningKey = "alchemy_signing_key"

func signChainBody(key string, body []byte) string {
    mac := hmac.New(sha256.New, []byte(key))
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}

func TestCryptoVerifierAcceptsValidDelivery(t *testing.T) {
    v := NewCryptoVerifier(testSigningKey)
    body := []byte(`{"event":{"data":{"block":{"transactions":[
        {"hash":"0xabc","from":"0x1111111111111111111111111111111111111111",
         "to":"0x2222222222222222222222222222222222222222","value":"20000000000000000","status":1}
    ]}}}}`)

    tx, err := v.VerifyEvent(body, signChainBody(testSigningKey, body))
    require.NoError(t, err)
    require.NotNil(t, tx)
    assert.Equal(t, "0xabc", tx.Hash)
    assert.Equal(t, "0x2222222222222222222222222222222222222222", tx.To)
    assert.Equal(t, "20000000000000000", tx.Value)
    assert.Equal(t, TxStatusSuccess, tx.Status)
}

func TestCryptoVerifierRejectsBadSignature(t *testing.T) {
    v := NewCryptoVerifier(testSigningKey)
    body := []byte(`{"event":{"data":{"block":{"transactions":[]}}}}`)

    _, err := v.VerifyEvent(body, signChainBody("wrong_key", body))
    assert.ErrorIs(t, err, ErrInvalidSignature)

    _, err = v.VerifyEvent(body, "")
    assert.ErrorIs(t, err, ErrInvalidSignature)

    _, err = v.VerifyEvent(body, "zz-not-hex")
    assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCryptoVerifierHeartbeat(t *testing.T) {
    v := NewCryptoVerifier(testSigningKey)
    body := []byte(`{"event":{"data":{"block":{"transactions":[]}}}}`)

    tx, err := v.VerifyEvent(body, signChainBody(testSigningKey, body))
    require.NoError(t, err)
    assert.Nil(t, tx)
}

func TestCryptoVerifierObjectAddresses(t *testing.T) {
    // GraphQL-style blocks wrap addresses in {"address": ...} objects.
    v := NewCryptoVerifier(testSigningKey)
    body := []byte(`{"event":{"data":{"block":{"transactions":[
        {"hash":"0xdef","from":{"address":"0xAAAA"},"to":{"address":"0xBBBB"},"value":"0x1","status":0}
    ]}}}}`)

    tx, err := v.VerifyEvent(body, signChainBody(testSigningKey, body))
    require.NoError(t, err)
    require.NotNil(t, tx)
    assert.Equal(t, "0xBBBB", tx.To)
    assert.Equal(t, TxStatusReverted, tx.Status)
}

func TestCryptoVerifierMissingRecipient(t *testing.T) {
    v := NewCryptoVerifier(testSigningKey)
    body := []byte(`{"event":{"data":{"block":{"transactions":[
        {"hash":"0xabc","value":"1","status":1}
    ]}}}}`)

    _, err := v.VerifyEvent(body, signChainBody(testSigningKey, body))
    assert.ErrorIs(t, err, ErrMalformedPayload)
}
