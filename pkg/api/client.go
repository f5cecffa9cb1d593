package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nodeflip/nodeflip/pkg/canvas"
	"github.com/nodeflip/nodeflip/pkg/chat"
	"github.com/nodeflip/nodeflip/pkg/config"
	"github.com/nodeflip/nodeflip/pkg/logger"
)

var log = logger.Component("api")

// Client talks to the nodeFlip backend. The zero http.Client timeout is
// deliberate: the stream endpoint stays open for the whole response and is
// bounded by the request context instead.
type Client struct {
	baseURL    string
	apiKey     string
	workflowID string
	httpClient *http.Client
}

// HistoryEntry is the backend's shape for prior conversation turns.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		workflowID: cfg.WorkflowID,
		httpClient: &http.Client{},
	}
}

// WorkflowID returns the workflow this client is scoped to.
func (c *Client) WorkflowID() string {
	if c.workflowID == "" {
		return "__EMPTY__"
	}
	return c.workflowID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorFromResponse surfaces the status code and body text of a non-2xx
// response.
func errorFromResponse(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s: %d - %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// CreateChat creates a new chat session titled after the workflow and
// returns its id.
func (c *Client) CreateChat(ctx context.Context) (string, error) {
	payload := map[string]any{
		"llm_provider_id": nil,
		"title":           fmt.Sprintf("Workflow %s - %s", c.WorkflowID(), time.Now().Format("2006-01-02 15:04:05")),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/llm-chats/", bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errorFromResponse("failed to create chat", resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	return created.ID, nil
}

// chatSummary is one entry of the chat list.
type chatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GetChatOrCreate finds an existing chat whose title references this
// workflow, creating a fresh one when none matches. List responses come in
// several wrappings depending on backend version.
func (c *Client) GetChatOrCreate(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/llm-chats/", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("failed to list chats: %v", err)
		return c.CreateChat(ctx)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			if id, ok := findChatForWorkflow(body, c.WorkflowID()); ok {
				return id, nil
			}
		}
	}

	return c.CreateChat(ctx)
}

// findChatForWorkflow digs the chat list out of whichever wrapper the
// backend used and returns the first chat titled with the workflow id.
func findChatForWorkflow(body []byte, workflowID string) (string, bool) {
	var chats []chatSummary
	if err := json.Unmarshal(body, &chats); err != nil {
		var wrapped struct {
			Items   []chatSummary `json:"items"`
			Results []chatSummary `json:"results"`
			Data    []chatSummary `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return "", false
		}
		switch {
		case len(wrapped.Items) > 0:
			chats = wrapped.Items
		case len(wrapped.Results) > 0:
			chats = wrapped.Results
		default:
			chats = wrapped.Data
		}
	}

	for _, entry := range chats {
		if entry.Title != "" && strings.Contains(entry.Title, workflowID) {
			return entry.ID, true
		}
	}
	return "", false
}

// GetMessages loads the stored conversation for a chat.
func (c *Client) GetMessages(ctx context.Context, chatID string) ([]chat.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/llm-chats/"+chatID+"/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse("failed to get messages", resp)
	}

	var wrapped struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return wrapped.Messages, nil
}

// streamRequest is the body of a stream POST.
type streamRequest struct {
	Payload streamPayload `json:"payload"`
}

type streamPayload struct {
	Role            string          `json:"role"`
	Type            string          `json:"type"`
	Text            string          `json:"text"`
	WorkflowContext workflowContext `json:"workflowContext"`
}

type workflowContext struct {
	CurrentWorkflow   canvas.Workflow `json:"currentWorkflow"`
	History           []HistoryEntry  `json:"conversationHistory"`
	LastAddedNodeName string          `json:"lastAddedNodeName,omitempty"`
}

// SendMessage posts user text plus workflow context and returns the raw
// streaming response body. The caller owns closing it.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, history []HistoryEntry, workflow canvas.Workflow, lastAddedNodeName string) (io.ReadCloser, error) {
	if workflow.Nodes == nil {
		workflow.Nodes = []canvas.Node{}
	}
	if workflow.Connections == nil {
		workflow.Connections = canvas.Connections{}
	}
	if history == nil {
		history = []HistoryEntry{}
	}

	body := streamRequest{
		Payload: streamPayload{
			Role: "user",
			Type: "message",
			Text: text,
			WorkflowContext: workflowContext{
				CurrentWorkflow:   workflow,
				History:           history,
				LastAddedNodeName: lastAddedNodeName,
			},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/llm-chats/"+chatID+"/stream", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, errorFromResponse("failed to send message", resp)
	}

	return resp.Body, nil
}

// ConversationHistory converts sidebar messages to the backend's history
// shape, dropping tool progress entries, errors and empty messages.
func ConversationHistory(messages []chat.Message) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.IsTool() || msg.IsError() || msg.IsEmpty() {
			continue
		}
		if msg.Role != chat.RoleUser && msg.Role != chat.RoleAssistant {
			continue
		}
		history = append(history, HistoryEntry{Role: msg.Role, Content: msg.Content})
	}
	return history
}

// SyncResult is the backend's reply to a catalog sync.
type SyncResult struct {
	Message string `json:"message"`
	Indexed int    `json:"indexed"`
}

// SyncCatalog pushes an extracted node catalog to the backend index. Kind
// selects the endpoint: "standard" syncs the global catalog, anything else
// the custom one.
func (c *Client) SyncCatalog(ctx context.Context, kind string, catalog []canvas.CatalogEntry) (SyncResult, error) {
	endpoint := "sync-custom"
	if kind == canvas.CatalogStandard {
		endpoint = "sync-global"
	}

	data, err := json.Marshal(map[string]any{"catalog": catalog})
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/node-catalog/"+endpoint, bytes.NewReader(data))
	if err != nil {
		return SyncResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to sync catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SyncResult{}, errorFromResponse("backend error", resp)
	}

	var result SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SyncResult{}, fmt.Errorf("failed to decode sync result: %w", err)
	}
	return result, nil
}
