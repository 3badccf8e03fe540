// Package payment contains the stateless verification adapters for the two
// payment rails.  Verifiers validate a raw webhook body against its
// signature header and extract a typed event; they perform no side effects
// beyond the signature math and never touch the order ledger.
package payment

import "errors"

// ErrInvalidSignature is returned when a webhook signature header is
// missing, malformed, expired or fails the HMAC comparison.  Signature
// failures are never retried by this system; redelivery is the rail's
// decision.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrMalformedPayload is returned when a correctly signed body cannot be
// decoded into the fields the engine needs.  Defensive field access on
// provider payloads surfaces here as a typed rejection instead of
// propagating zero values downstream.
var ErrMalformedPayload = errors.New("malformed webhook payload")
