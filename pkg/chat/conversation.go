package chat

// Conversation is an append-only list of messages. Reducers return a new
// value rather than mutating in place, so a conversation captured by an
// async callback can never alias state that a later event rewrote.
type Conversation struct {
	Messages []Message
}

func NewConversation() Conversation {
	return Conversation{Messages: make([]Message, 0)}
}

func AddMessage(conv Conversation, msg Message) Conversation {
	messages := make([]Message, len(conv.Messages)+1)
	copy(messages, conv.Messages)
	messages[len(conv.Messages)] = msg

	return Conversation{Messages: messages}
}

// AppendAssistantText appends a text delta to the in-flight assistant
// message. If the trailing message is not plain assistant text (a tool
// progress entry was appended after it), a new assistant message is started
// so pre-tool and post-tool utterances stay distinct.
func AppendAssistantText(conv Conversation, text string) Conversation {
	n := len(conv.Messages)
	if n > 0 && conv.Messages[n-1].IsPlainAssistant() {
		messages := make([]Message, n)
		copy(messages, conv.Messages)
		messages[n-1].Content += text
		return Conversation{Messages: messages}
	}
	return AddMessage(conv, NewAssistantMessage(text))
}

// UpsertToolStatus updates the status of the tool message identified by
// toolCallID, or appends a new one if no entry exists yet. Status only moves
// forward: a terminal status is never overwritten back to running.
func UpsertToolStatus(conv Conversation, toolName, toolCallID, status string) Conversation {
	for i, msg := range conv.Messages {
		if msg.IsTool() && msg.ToolCallID == toolCallID {
			if status == "" || statusRank(status) < statusRank(msg.Status) {
				return conv
			}
			messages := make([]Message, len(conv.Messages))
			copy(messages, conv.Messages)
			messages[i].Status = status
			return Conversation{Messages: messages}
		}
	}
	return AddMessage(conv, NewToolMessage(toolName, toolCallID, status))
}

func statusRank(status string) int {
	switch status {
	case StatusCompleted, StatusError:
		return 1
	default:
		return 0
	}
}

// ReplaceLast swaps the trailing message for the given one. No-op on an
// empty conversation.
func ReplaceLast(conv Conversation, msg Message) Conversation {
	n := len(conv.Messages)
	if n == 0 {
		return conv
	}
	messages := make([]Message, n)
	copy(messages, conv.Messages)
	messages[n-1] = msg
	return Conversation{Messages: messages}
}

func GetMessages(conv Conversation) []Message {
	result := make([]Message, len(conv.Messages))
	copy(result, conv.Messages)
	return result
}

func GetMessageCount(conv Conversation) int {
	return len(conv.Messages)
}

func GetLastMessage(conv Conversation) (Message, bool) {
	if len(conv.Messages) == 0 {
		return Message{}, false
	}
	return conv.Messages[len(conv.Messages)-1], true
}

// PlainAssistantMessages returns assistant text messages, excluding tool
// progress entries.
func PlainAssistantMessages(conv Conversation) []Message {
	var result []Message
	for _, msg := range conv.Messages {
		if msg.IsPlainAssistant() {
			result = append(result, msg)
		}
	}
	return result
}

// ToolMessage returns the tool progress entry for the given call id.
func ToolMessage(conv Conversation, toolCallID string) (Message, bool) {
	for _, msg := range conv.Messages {
		if msg.IsTool() && msg.ToolCallID == toolCallID {
			return msg, true
		}
	}
	return Message{}, false
}

func IsEmpty(conv Conversation) bool {
	return len(conv.Messages) == 0
}
