// Package csrf issues and validates the signed, time-boxed double-submit
// tokens required on state-mutating requests. A token is an opaque value
// (random nonce, issue time, HMAC-SHA256 signature) bound to a cookie and
// echoed back via header or cookie. Tokens are not tied to a principal and
// rotate after every successful mutating request, so a captured token is
// only replayable until the next rotation or its max age, whichever comes
// first.
package csrf
