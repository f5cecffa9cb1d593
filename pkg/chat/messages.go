package chat

import (
	"strings"
	"time"
)

// Message is one entry in the sidebar conversation. Tool progress entries
// carry Type == TypeTool and are keyed by ToolCallID; everything else is
// plain text identified by Role alone.
type Message struct {
	Role       string    `json:"role"`
	Type       string    `json:"type,omitempty"`
	Content    string    `json:"content"`
	ToolName   string    `json:"toolName,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"

	TypeTool = "tool"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

func NewAssistantMessage(content string) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewErrorMessage(content string) Message {
	return Message{
		Role:      RoleError,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewToolMessage(toolName, toolCallID, status string) Message {
	if status == "" {
		status = StatusRunning
	}
	return Message{
		Role:       RoleAssistant,
		Type:       TypeTool,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Status:     status,
		Timestamp:  time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsError() bool {
	return m.Role == RoleError
}

func (m Message) IsTool() bool {
	return m.Type == TypeTool
}

// IsPlainAssistant reports whether this is assistant text, excluding tool
// progress entries.
func (m Message) IsPlainAssistant() bool {
	return m.Role == RoleAssistant && m.Type == ""
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}
