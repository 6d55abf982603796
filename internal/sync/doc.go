// Package sync sequences the registration and content integrations for a single
// calendar event and composes their results.
//
// # Ordering
//
// The registration is created first because the content record may only link to
// a registration that exists and is published. Content is written regardless of
// the registration outcome.
//
// # Outcome
//
// A registration counts as succeeded only when it is published. The outcome is
// success when both integrations succeeded, partial when exactly one did and
// failure otherwise; see Fold and ResponseCode. Validation and configuration
// problems are reported before any integration runs, and a panic escaping an
// integration is reported as a critical failure carrying the partial results.
package sync
