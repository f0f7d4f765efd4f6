// Package conversation tracks per-session dialogue state: turn counts,
// bounded history, offered actions, and the discovery/engaged/deepened
// stage machine.
//
// The Tracker serializes all writers per session id. A turn spans
// BeginTurn through Complete (or Abort), with the session lock held for
// the whole span, so concurrent requests on one session can never lose
// an update while distinct sessions run in parallel.
package conversation
