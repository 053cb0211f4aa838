// Package auth authenticates the operators allowed to drive deckstate.
//
// Operators are declared in configuration with an Argon2id password hash.
// A successful login yields a short-lived HS256 JWT carrying the operator's
// role; the API validates it by signature alone.
//
// Two roles exist:
//   - viewer: read-only access, useful for a booth display that wants a
//     token for symmetry with other clients
//   - operator: may push state through the ingest endpoints and reset the
//     state tree
package auth
