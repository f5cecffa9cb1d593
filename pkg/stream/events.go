package stream

import "github.com/nodeflip/nodeflip/pkg/canvas"

// Delimiter separates envelopes in the backend's response stream. The
// boundary is defined solely by this token, never by JSON structure.
const Delimiter = "⧉⇋⇋➽⌑⧉§§"

// Envelope is one complete delimiter-bounded unit of the stream.
type Envelope struct {
	Messages []Event `json:"messages"`
}

// Event types emitted by the backend.
const (
	EventTool           = "tool"
	EventMessage        = "message"
	EventNodeSuggestion = "node_suggestion"
	EventNodeUpdate     = "node_update"
)

// Event is one streamed event, discriminated by Type; only the fields for
// that type are populated.
type Event struct {
	Type string `json:"type"`

	// tool
	ToolCallID   string `json:"toolCallId,omitempty"`
	ToolName     string `json:"toolName,omitempty"`
	DisplayTitle string `json:"displayTitle,omitempty"`
	Status       string `json:"status,omitempty"`

	// message
	Text string `json:"text,omitempty"`

	// node_suggestion / node_update
	Data *EventData `json:"data,omitempty"`
}

// EventData is the payload of node suggestion and node update events.
type EventData struct {
	Node         *canvas.Node   `json:"node,omitempty"`
	PreviousNode string         `json:"previousNode,omitempty"`
	ChatMessage  string         `json:"chat_message,omitempty"`
	NodeName     string         `json:"nodeName,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// ToolTitle returns the display label for a tool event.
func (e Event) ToolTitle() string {
	if e.ToolName != "" {
		return e.ToolName
	}
	if e.DisplayTitle != "" {
		return e.DisplayTitle
	}
	return "Processing"
}
