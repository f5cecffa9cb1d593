package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Transcript persists the conversation and the name of the last node the
// assistant added, so a reopened session can pick up where it left off.
type Transcript struct {
	Messages          []Message `json:"messages"`
	LastAddedNodeName string    `json:"lastAddedNodeName,omitempty"`

	mu       sync.RWMutex
	filePath string
}

// NewTranscript creates a transcript store backed by the given file,
// loading existing content if the file is present.
func NewTranscript(filePath string) (*Transcript, error) {
	t := &Transcript{
		Messages: make([]Message, 0),
		filePath: filePath,
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := t.Load(); err != nil {
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		}
	}

	return t, nil
}

// Update replaces the stored conversation state and writes it to disk.
func (t *Transcript) Update(messages []Message, lastAddedNodeName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Messages = make([]Message, len(messages))
	copy(t.Messages, messages)
	t.LastAddedNodeName = lastAddedNodeName
	return t.save()
}

// GetMessages returns a copy of the stored messages
func (t *Transcript) GetMessages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	msgs := make([]Message, len(t.Messages))
	copy(msgs, t.Messages)
	return msgs
}

// GetLastAddedNodeName returns the persisted last-added node name
func (t *Transcript) GetLastAddedNodeName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.LastAddedNodeName
}

// Clear clears the transcript
func (t *Transcript) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Messages = make([]Message, 0)
	t.LastAddedNodeName = ""
	return t.save()
}

func (t *Transcript) save() error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	return nil
}

// Load loads the transcript from disk
func (t *Transcript) Load() error {
	data, err := os.ReadFile(t.filePath)
	if err != nil {
		return fmt.Errorf("failed to read transcript file: %w", err)
	}

	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("failed to unmarshal transcript: %w", err)
	}

	return nil
}
