// Package fetch performs the single guarded HTTP GET of an analysis.
//
// The fetcher defends against Server-Side Request Forgery: before every
// request, including every redirect hop, it resolves the target host and
// refuses to proceed when any resolved address falls in loopback, RFC1918,
// link-local, or multicast space. Redirects are disabled at the client and
// resolved manually so the guard cannot be bypassed by a redirect to an
// internal address.
//
// The known limitation of resolve-then-connect is the DNS rebinding race
// between the check and the dial; for a one-shot advisory scanner this is
// an accepted tradeoff over pinning dials to resolved addresses.
package fetch
