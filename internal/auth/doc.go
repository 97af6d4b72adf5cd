// Package auth verifies credentials and issues session tokens.
//
// A Verifier checks an email/password pair against the stored bcrypt hash.
// An Enricher turns a verified account into a signed session token whose
// role and verification claims are read from the datastore at issue time,
// resolves tokens presented on later requests, and re-derives them when the
// client asks for a refresh.
package auth
