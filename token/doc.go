// Package token issues and verifies the signed, time-bounded session tokens
// carried in the Authorization header. Tokens are stateless: nothing is
// persisted server-side, and the optional step-up code claim is validated by
// the gate, not here, because validation needs the principal's live secret.
package token
