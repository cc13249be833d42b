// ABOUTME: OpenAI Assistants v2 REST implementation of the backend Client
// ABOUTME: Speaks minimal request/response shapes over net/http with typed status errors

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// betaHeader opts in to the Assistants v2 API surface.
const betaHeader = "assistants=v2"

// StatusError captures non-2xx backend responses with status-aware context.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// OpenAIClient implements Client against the OpenAI Assistants v2 REST API.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithBaseURL overrides the API base URL (used for tests and proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *OpenAIClient) {
		c.httpClient = httpClient
	}
}

// NewOpenAIClient creates a client authenticated with the given API key.
func NewOpenAIClient(apiKey string, opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// threadResponse is the minimal shape of a created thread.
type threadResponse struct {
	ID string `json:"id"`
}

// messageRequest is the body for appending a message to a thread.
type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// runRequest is the body for starting a run. File search is always
// requested so the assistant consults the configured vector stores.
type runRequest struct {
	AssistantID         string         `json:"assistant_id"`
	MaxCompletionTokens int            `json:"max_completion_tokens,omitempty"`
	Tools               []runTool      `json:"tools,omitempty"`
	ToolResources       *toolResources `json:"tool_resources,omitempty"`
	ToolChoice          *runTool       `json:"tool_choice,omitempty"`
}

type runTool struct {
	Type string `json:"type"`
}

type toolResources struct {
	FileSearch fileSearchResources `json:"file_search"`
}

type fileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

// runResponse is the minimal shape of a run object.
type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// messageListResponse is the minimal shape of a thread's message list.
// Messages arrive newest-first; content blocks carry the text and its
// annotations.
type messageListResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value       string `json:"value"`
				Annotations []struct {
					Type         string `json:"type"`
					Text         string `json:"text"`
					FileCitation *struct {
						FileID string `json:"file_id"`
					} `json:"file_citation"`
					FilePath *struct {
						FileID string `json:"file_id"`
					} `json:"file_path"`
				} `json:"annotations"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// fileResponse is the minimal shape of a file metadata object.
type fileResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// CreateSession creates an empty thread and returns its id.
func (c *OpenAIClient) CreateSession(ctx context.Context) (string, error) {
	var resp threadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/threads", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return resp.ID, nil
}

// AddMessage appends one message to a thread.
func (c *OpenAIClient) AddMessage(ctx context.Context, sessionID, role, content string) (*Message, error) {
	req := messageRequest{Role: role, Content: content}
	var resp struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	path := fmt.Sprintf("/threads/%s/messages", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("adding message to session %s: %w", sessionID, err)
	}
	return &Message{ID: resp.ID, Role: resp.Role, Text: content}, nil
}

// CreateRun starts an asynchronous run against a thread.
func (c *OpenAIClient) CreateRun(ctx context.Context, sessionID string, params RunParams) (*Run, error) {
	req := runRequest{
		AssistantID:         params.AssistantID,
		MaxCompletionTokens: params.MaxCompletionTokens,
	}
	if len(params.VectorStoreIDs) > 0 {
		req.Tools = []runTool{{Type: "file_search"}}
		req.ToolResources = &toolResources{
			FileSearch: fileSearchResources{VectorStoreIDs: params.VectorStoreIDs},
		}
		req.ToolChoice = &runTool{Type: "file_search"}
	}

	var resp runResponse
	path := fmt.Sprintf("/threads/%s/runs", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("creating run on session %s: %w", sessionID, err)
	}
	return &Run{ID: resp.ID, Status: RunStatus(resp.Status)}, nil
}

// GetRun fetches the current state of a run.
func (c *OpenAIClient) GetRun(ctx context.Context, sessionID, runID string) (*Run, error) {
	var resp runResponse
	path := fmt.Sprintf("/threads/%s/runs/%s", sessionID, runID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching run %s: %w", runID, err)
	}
	return &Run{ID: resp.ID, Status: RunStatus(resp.Status)}, nil
}

// ListMessages returns a thread's messages, newest first.
func (c *OpenAIClient) ListMessages(ctx context.Context, sessionID string) ([]*Message, error) {
	var resp messageListResponse
	path := fmt.Sprintf("/threads/%s/messages", sessionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing messages of session %s: %w", sessionID, err)
	}

	messages := make([]*Message, 0, len(resp.Data))
	for _, m := range resp.Data {
		msg := &Message{ID: m.ID, Role: m.Role}
		// The first text block carries the reply; other block types
		// (images etc.) are not bridged.
		for _, block := range m.Content {
			if block.Type != "text" {
				continue
			}
			msg.Text = block.Text.Value
			for _, a := range block.Text.Annotations {
				ann := Annotation{Kind: AnnotationKind(a.Type), Text: a.Text}
				switch {
				case a.FileCitation != nil:
					ann.FileID = a.FileCitation.FileID
				case a.FilePath != nil:
					ann.FileID = a.FilePath.FileID
				}
				msg.Annotations = append(msg.Annotations, ann)
			}
			break
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// GetFile resolves a file id to its metadata.
func (c *OpenAIClient) GetFile(ctx context.Context, fileID string) (*File, error) {
	var resp fileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/files/"+fileID, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching file %s: %w", fileID, err)
	}
	return &File{ID: resp.ID, Filename: resp.Filename}, nil
}

// doJSON performs one request with JSON encoding on both sides.
// 404 on a thread-scoped path maps to ErrSessionNotFound; other non-2xx
// statuses become a *StatusError.
func (c *OpenAIClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/threads/") {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, strings.TrimSpace(string(data)))
		}
		return &StatusError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
