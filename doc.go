// Package salsaauth implements gated-access authentication for web tools that
// sit behind a Salsa mailing list: visitor signup, email verification through
// signed one-time activation links, login gated on supporter membership, and a
// long-lived cookie that marks a browser as authenticated.
//
// Activation tokens:
//   - Tokens are never stored. They are an HMAC over the user's id, current
//     state fingerprint, and a day bucket, so they can be recomputed and
//     checked at verification time. Any change to the user's state silently
//     invalidates every previously issued token.
//
// Membership gate:
//   - Login does not check a password; it checks that the email belongs to a
//     supporter in the external registry. Accounts created here carry an
//     unusable credential placeholder and can only be activated by email.
//
// Session:
//   - There is no server-side session. GET /authenticate sets the configured
//     cookie with a 52 week expiry and redirects; downstream systems only look
//     at the cookie's presence, never its value.
package salsaauth
