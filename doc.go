// Package auth implements staged two-factor authentication with stateless
// signed tokens.
//
// A principal registers with a handle, email, and password and immediately
// receives a TOTP shared secret plus its provisioning descriptor. Until the
// first valid code confirms enrollment, no login can complete. A confirmed
// principal then walks the staged login: the password step yields a
// short-lived pre-auth token and nothing else; presenting a valid one-time
// code yields the access/refresh pair. Session stage lives in the token's
// kind claim, never in server state, so every operation checks signature,
// expiry, and kind together.
//
// Known gaps: codes are not replay-protected within their time step, and
// there is no refresh-token revocation list. A consumed-code cache and a
// revocation set are the natural hardening extensions.
package auth
