package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/nodeflip/nodeflip/pkg/chat"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")).
			Bold(true)
)

// Message renders one conversation entry for the terminal.
func Message(msg chat.Message) string {
	switch {
	case msg.IsTool():
		return toolStyle.Render(fmt.Sprintf("  %s %s", toolGlyph(msg.Status), msg.ToolName))
	case msg.IsError():
		return errorStyle.Render("error: " + msg.Content)
	case msg.IsUser():
		return userStyle.Render("you: ") + msg.Content
	default:
		return assistantStyle.Render("assistant: ") + msg.Content
	}
}

func toolGlyph(status string) string {
	switch status {
	case chat.StatusCompleted:
		return "✓"
	case chat.StatusError:
		return "✗"
	default:
		return "⏳"
	}
}

// Conversation renders the whole message list, skipping empty assistant
// placeholders.
func Conversation(conv chat.Conversation) string {
	var b strings.Builder
	for _, msg := range conv.Messages {
		if msg.IsPlainAssistant() && msg.IsEmpty() {
			continue
		}
		b.WriteString(Message(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// ApprovalBanner renders the prompt shown while a node awaits approval.
func ApprovalBanner(nodeName, nodeType string) string {
	return bannerStyle.Render(fmt.Sprintf("Added %q (%s): /approve to keep it, /changes <feedback> to revise", nodeName, nodeType))
}

// Parameters pretty-prints a node's parameter object with JSON syntax
// highlighting. Falls back to plain JSON if highlighting fails.
func Parameters(params map[string]any) string {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", params)
	}

	var b strings.Builder
	if err := quick.Highlight(&b, string(data), "json", "terminal256", "monokai"); err != nil {
		return string(data)
	}
	return b.String()
}
