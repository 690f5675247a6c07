// Package password hashes and verifies credentials with argon2id, encoded
// in PHC string format. Verification is constant-time and never errors on a
// simple mismatch: absence of a match is a boolean outcome.
package password
