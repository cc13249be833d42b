// Package bridge implements the per-event pipeline connecting chat
// conversations to assistant sessions.
//
// # Pipeline
//
// Each inbound event flows through: mapping lookup, session bootstrap
// (with thread history backfill on first contact), message submission,
// run polling to a terminal status, response assembly with citation
// footnotes, and chunked delivery.
//
// # Concurrency
//
// Pipelines for different conversations run concurrently and
// interleave freely. Within one conversation, the lookup-or-create
// section of session bootstrap holds a per-conversation lock so
// near-simultaneous first messages cannot create two sessions for the
// same conversation. The platform layer additionally drops events for
// a conversation whose pipeline is still in flight.
//
// # Failure policy
//
// Storage reads and mapping writes fail open (logged, pipeline
// continues); backend errors abort the single event's pipeline and are
// logged by the handler wrapper without replying to the user. One
// event's failure never affects other conversations.
package bridge
