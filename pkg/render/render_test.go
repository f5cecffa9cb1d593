package render_test

import (
	"testing"

	"github.com/nodeflip/nodeflip/pkg/chat"
	"github.com/nodeflip/nodeflip/pkg/render"
	"github.com/stretchr/testify/assert"
)

func TestMessageByRole(t *testing.T) {
	assert.Contains(t, render.Message(chat.NewUserMessage("hi")), "hi")
	assert.Contains(t, render.Message(chat.NewAssistantMessage("hello")), "hello")
	assert.Contains(t, render.Message(chat.NewErrorMessage("boom")), "boom")
}

func TestMessageToolGlyphs(t *testing.T) {
	running := render.Message(chat.NewToolMessage("search_nodes", "c1", chat.StatusRunning))
	assert.Contains(t, running, "⏳")
	assert.Contains(t, running, "search_nodes")

	completed := render.Message(chat.NewToolMessage("search_nodes", "c1", chat.StatusCompleted))
	assert.Contains(t, completed, "✓")

	failed := render.Message(chat.NewToolMessage("search_nodes", "c1", chat.StatusError))
	assert.Contains(t, failed, "✗")
}

func TestConversationSkipsEmptyAssistantPlaceholder(t *testing.T) {
	conv := chat.AddMessage(chat.NewConversation(), chat.NewUserMessage("question"))
	conv = chat.AddMessage(conv, chat.NewAssistantMessage(""))

	out := render.Conversation(conv)
	assert.Contains(t, out, "question")
	assert.NotContains(t, out, "assistant")
}

func TestApprovalBanner(t *testing.T) {
	banner := render.ApprovalBanner("HTTP Request", "n8n-nodes-base.httpRequest")
	assert.Contains(t, banner, "HTTP Request")
	assert.Contains(t, banner, "/approve")
	assert.Contains(t, banner, "/changes")
}

func TestParametersRendersJSON(t *testing.T) {
	out := render.Parameters(map[string]any{"url": "https://example.com"})
	assert.Contains(t, out, "url")
	assert.Contains(t, out, "https://example.com")
}
