// Package backend defines the assistant backend surface the bridge
// consumes and its OpenAI Assistants v2 REST implementation.
//
// The Client interface covers exactly what the pipeline needs: session
// (thread) creation, message append, run start/poll, message listing,
// and file metadata resolution for citations. OpenAIClient speaks
// minimal JSON shapes rather than binding the full API.
//
// Error taxonomy: a 404 on a thread-scoped path becomes
// ErrSessionNotFound; any other non-2xx response becomes a *StatusError.
// Neither is handled inside this package.
package backend
