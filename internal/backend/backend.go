// ABOUTME: Client interface and data types for the assistant backend
// ABOUTME: Defines sessions, runs, messages, annotations as consumed by the bridge

package backend

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when the backend rejects a session id.
var ErrSessionNotFound = errors.New("session not found")

// RunStatus is the lifecycle state of an asynchronous backend run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether the run has reached a state the poller stops on.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCancelled, RunStatusFailed, RunStatusCompleted, RunStatusExpired:
		return true
	}
	return false
}

// Run is an asynchronous backend job executing against a session.
type Run struct {
	ID     string
	Status RunStatus
}

// RunParams configures a new run.
type RunParams struct {
	AssistantID         string
	MaxCompletionTokens int
	VectorStoreIDs      []string
}

// AnnotationKind distinguishes the two citation forms an assistant
// message can carry.
type AnnotationKind string

const (
	// AnnotationFileCitation marks an in-content citation of a file.
	AnnotationFileCitation AnnotationKind = "file_citation"
	// AnnotationFilePath marks a downloadable file reference.
	AnnotationFilePath AnnotationKind = "file_path"
)

// Annotation is a marked span within a message's text citing a file.
type Annotation struct {
	Kind   AnnotationKind
	Text   string // exact source span in the message text
	FileID string
}

// Message is a single message within a session.
type Message struct {
	ID          string
	Role        string
	Text        string
	Annotations []Annotation
}

// File is the metadata of a backend-stored file.
type File struct {
	ID       string
	Filename string
}

// Client is the assistant backend surface consumed by the bridge.
type Client interface {
	// CreateSession creates an empty session and returns its id.
	CreateSession(ctx context.Context) (string, error)

	// AddMessage appends one message to a session.
	AddMessage(ctx context.Context, sessionID, role, content string) (*Message, error)

	// CreateRun starts an asynchronous run against a session.
	CreateRun(ctx context.Context, sessionID string, params RunParams) (*Run, error)

	// GetRun fetches the current state of a run.
	GetRun(ctx context.Context, sessionID, runID string) (*Run, error)

	// ListMessages returns a session's messages, newest first.
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)

	// GetFile resolves a file id to its metadata.
	GetFile(ctx context.Context, fileID string) (*File, error)
}
