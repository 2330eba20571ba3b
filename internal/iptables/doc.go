// Package iptables implements the rule-application layer of dockwall.
//
// # Overview
//
// Callers hold a single [Firewall] handle and drive it through a sequence of
// logical operations (set a chain policy, append a rule, flush a table, ...)
// finishing with Commit. How and when those operations take effect depends on
// the backend selected at construction time:
//
//   - [Exec]: every call maps onto one iptables invocation and takes effect
//     immediately. No atomicity across a sequence of calls.
//   - [Restore]: calls are staged into an in-memory transaction which Commit
//     serializes in iptables-restore format and applies atomically in a single
//     subprocess run. This is the production path.
//   - [Dummy]: every call succeeds without doing anything (dry-run).
//   - [Recorder]: every call is appended to a structured log (tests).
//
// # Architecture
//
//	caller → Firewall → Restore transaction → iptables-restore text → CommandRunner → kernel
//
// # Concurrency
//
// Backends are not safe for concurrent use. The designed model is a single
// builder goroutine issuing operations followed by one Commit; multi-threaded
// callers must serialize access externally.
//
// Rule text is opaque to this package: it is staged and passed through
// verbatim, never parsed or validated.
package iptables
