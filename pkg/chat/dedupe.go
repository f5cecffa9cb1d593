package chat

import "strings"

// fingerprintWords is how much of a message participates in duplicate
// detection. The backend re-emits the same opening after tool calls with a
// differing tail, so only the head is compared.
const fingerprintWords = 10

// Fingerprint returns the first fingerprintWords whitespace-separated tokens
// of the trimmed content, joined by single spaces.
func Fingerprint(content string) string {
	words := strings.Fields(strings.TrimSpace(content))
	if len(words) > fingerprintWords {
		words = words[:fingerprintWords]
	}
	return strings.Join(words, " ")
}

// SuppressTrailingDuplicate removes the earlier of the last two plain
// assistant messages when both are non-empty and share a fingerprint. This
// covers the backend's habit of emitting a short utterance before tool calls
// and re-emitting it nearly verbatim afterwards. Returns the (possibly
// unchanged) conversation and whether a message was removed.
func SuppressTrailingDuplicate(conv Conversation) (Conversation, bool) {
	var lastIdx, prevIdx = -1, -1
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if !conv.Messages[i].IsPlainAssistant() {
			continue
		}
		if lastIdx == -1 {
			lastIdx = i
			continue
		}
		prevIdx = i
		break
	}
	if prevIdx == -1 {
		return conv, false
	}

	last := conv.Messages[lastIdx]
	prev := conv.Messages[prevIdx]
	if last.IsEmpty() || prev.IsEmpty() {
		return conv, false
	}
	if Fingerprint(last.Content) != Fingerprint(prev.Content) {
		return conv, false
	}

	messages := make([]Message, 0, len(conv.Messages)-1)
	messages = append(messages, conv.Messages[:prevIdx]...)
	messages = append(messages, conv.Messages[prevIdx+1:]...)
	return Conversation{Messages: messages}, true
}
