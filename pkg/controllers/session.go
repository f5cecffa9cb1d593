package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nodeflip/nodeflip/pkg/api"
	"github.com/nodeflip/nodeflip/pkg/bridge"
	"github.com/nodeflip/nodeflip/pkg/canvas"
	"github.com/nodeflip/nodeflip/pkg/chat"
	"github.com/nodeflip/nodeflip/pkg/logger"
	"github.com/nodeflip/nodeflip/pkg/stream"
)

var log = logger.Component("session")

const (
	// MutationTimeout bounds one graph mutation round trip.
	MutationTimeout = 5 * time.Second

	// CatalogTimeout bounds catalog extraction, which walks the host's full
	// type registry.
	CatalogTimeout = 15 * time.Second

	// SettleDelay gives the host's reactive store a beat to register a new
	// node before it is referenced as a connection endpoint.
	SettleDelay = 500 * time.Millisecond
)

// PendingApproval identifies the node awaiting the user's yes/no after the
// assistant added it to the canvas. Parameters carry the node's suggested
// configuration so the UI can show what it is approving.
type PendingApproval struct {
	NodeName   string
	NodeType   string
	Parameters map[string]any
}

// WorkflowProvider supplies the current canvas graph for outgoing requests.
// A provider error is tolerated: the send proceeds with an empty workflow.
type WorkflowProvider interface {
	CurrentWorkflow() (canvas.Workflow, error)
}

// SessionController owns one chat session: it sends user text with workflow
// context, consumes the streamed events, drives canvas mutations over the
// bridge and keeps the conversation and pending-approval state.
type SessionController struct {
	client   *api.Client
	bridge   *bridge.Bridge
	workflow WorkflowProvider

	mu                sync.Mutex
	conv              chat.Conversation
	chatID            string
	isSending         bool
	pendingApproval   *PendingApproval
	lastAddedNodeName string

	transcript *chat.Transcript
	onUpdate   func(chat.Conversation)

	// Overridable in tests.
	settleDelay     time.Duration
	mutationTimeout time.Duration
	catalogTimeout  time.Duration
}

func NewSessionController(client *api.Client, br *bridge.Bridge) *SessionController {
	return &SessionController{
		client:          client,
		bridge:          br,
		conv:            chat.NewConversation(),
		settleDelay:     SettleDelay,
		mutationTimeout: MutationTimeout,
		catalogTimeout:  CatalogTimeout,
	}
}

// SetWorkflowProvider installs the source of workflow snapshots.
func (sc *SessionController) SetWorkflowProvider(p WorkflowProvider) {
	sc.workflow = p
}

// SetTranscript installs persistent storage for the conversation.
func (sc *SessionController) SetTranscript(t *chat.Transcript) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.transcript = t
}

// SetOnUpdate installs a callback invoked after every conversation change.
func (sc *SessionController) SetOnUpdate(fn func(chat.Conversation)) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.onUpdate = fn
}

// Conversation returns the current conversation state.
func (sc *SessionController) Conversation() chat.Conversation {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.conv
}

// IsSending reports whether a send is in flight.
func (sc *SessionController) IsSending() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.isSending
}

// PendingApproval returns the node awaiting approval, or nil.
func (sc *SessionController) PendingApproval() *PendingApproval {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.pendingApproval == nil {
		return nil
	}
	copied := *sc.pendingApproval
	return &copied
}

// LastAddedNodeName returns the most recently added node's name.
func (sc *SessionController) LastAddedNodeName() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.lastAddedNodeName
}

// Load resolves the chat session for this workflow and pulls its stored
// messages.
func (sc *SessionController) Load(ctx context.Context) error {
	chatID, err := sc.client.GetChatOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	messages, err := sc.client.GetMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	sc.mu.Lock()
	sc.chatID = chatID
	sc.conv = chat.Conversation{Messages: messages}
	sc.mu.Unlock()

	sc.publish()
	return nil
}

// Resume restores conversation state from the transcript instead of the
// backend, keeping the persisted last-added node name.
func (sc *SessionController) Resume(ctx context.Context) error {
	sc.mu.Lock()
	t := sc.transcript
	sc.mu.Unlock()
	if t == nil {
		return fmt.Errorf("no transcript configured")
	}

	chatID, err := sc.client.GetChatOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	sc.mu.Lock()
	sc.chatID = chatID
	sc.conv = chat.Conversation{Messages: t.GetMessages()}
	sc.lastAddedNodeName = t.GetLastAddedNodeName()
	sc.mu.Unlock()

	sc.publish()
	return nil
}

// Send posts user text and processes the whole response stream. A send
// while another is in flight is a no-op, so interleaved streams can never
// fight over the in-flight assistant message.
func (sc *SessionController) Send(ctx context.Context, text string) error {
	sc.mu.Lock()
	if sc.isSending || sc.chatID == "" {
		sc.mu.Unlock()
		return nil
	}
	sc.isSending = true
	chatID := sc.chatID
	lastAdded := sc.lastAddedNodeName
	history := api.ConversationHistory(sc.conv.Messages)
	sc.conv = chat.AddMessage(sc.conv, chat.NewUserMessage(text))
	sc.mu.Unlock()

	defer func() {
		sc.mu.Lock()
		sc.isSending = false
		sc.mu.Unlock()
	}()

	sc.publish()

	workflow := sc.currentWorkflow()

	body, err := sc.client.SendMessage(ctx, chatID, text, history, workflow, lastAdded)
	if err != nil {
		log.Error("failed to send message: %v", err)
		sc.appendMessage(chat.NewErrorMessage("Failed to send message. Please check your connection and try again."))
		return err
	}
	defer body.Close()

	// The stream appends into this trailing assistant message.
	sc.appendMessage(chat.NewAssistantMessage(""))

	hasToolEvents := false
	reassembler := stream.NewReassembler(body)
	for {
		env, err := reassembler.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("stream read failed: %v", err)
			sc.appendMessage(chat.NewErrorMessage("Connection lost while streaming the response."))
			return err
		}

		for _, event := range env.Messages {
			if err := sc.applyEvent(ctx, event, &hasToolEvents); err != nil {
				log.Error("failed to handle %s event: %v", event.Type, err)
			}
		}
	}

	// The duplicate pair may only fully form once the stream ends.
	if hasToolEvents {
		sc.suppressDuplicate()
	}

	return nil
}

// applyEvent applies one streamed event to conversation and canvas state.
// Event failures are contained: the stream keeps going.
func (sc *SessionController) applyEvent(ctx context.Context, event stream.Event, hasToolEvents *bool) error {
	switch event.Type {
	case stream.EventTool:
		*hasToolEvents = true
		sc.mu.Lock()
		sc.conv = chat.UpsertToolStatus(sc.conv, event.ToolTitle(), event.ToolCallID, event.Status)
		sc.mu.Unlock()
		sc.publish()
		return nil

	case stream.EventMessage:
		if event.Text == "" {
			return nil
		}
		sc.mu.Lock()
		sc.conv = chat.AppendAssistantText(sc.conv, event.Text)
		sc.mu.Unlock()
		// Run suppression on every delta once tools were seen, so a
		// duplicate never shows even transiently.
		if *hasToolEvents {
			sc.suppressDuplicate()
		}
		sc.publish()
		return nil

	case stream.EventNodeSuggestion:
		if event.Data == nil {
			return nil
		}
		return sc.handleNodeSuggestion(ctx, *event.Data)

	case stream.EventNodeUpdate:
		if event.Data == nil {
			return nil
		}
		return sc.handleNodeUpdate(*event.Data)

	default:
		log.Debug("ignoring unknown event type %q", event.Type)
		return nil
	}
}

// handleNodeSuggestion adds the suggested node, auto-wires it to the
// previous node when hinted, records the pending approval and appends the
// accompanying chat text.
func (sc *SessionController) handleNodeSuggestion(ctx context.Context, data stream.EventData) error {
	if data.Node == nil {
		if data.ChatMessage != "" {
			sc.appendAssistantText(data.ChatMessage)
		}
		return nil
	}

	node := *data.Node
	added, err := sc.addNode(node, data.PreviousNode)
	if err != nil {
		log.Error("failed to add node %s: %v", node.Name, err)
		sc.appendAssistantText(fmt.Sprintf("\n\n⚠️ Failed to add node: %s", err))
	} else {
		sc.mu.Lock()
		sc.lastAddedNodeName = added.Name
		sc.mu.Unlock()

		if data.PreviousNode != "" {
			// Let the host store settle before referencing the new node.
			sc.sleep(ctx, sc.settleDelay)
			if err := sc.addConnection(data.PreviousNode, added.Name); err != nil {
				// Non-fatal: the node exists, only the auto-wire failed.
				log.Error("failed to connect %s -> %s: %v", data.PreviousNode, added.Name, err)
			} else {
				log.Info("connected %s -> %s", data.PreviousNode, added.Name)
			}
		}
	}

	sc.mu.Lock()
	sc.pendingApproval = &PendingApproval{
		NodeName:   node.Name,
		NodeType:   node.Type,
		Parameters: node.Parameters,
	}
	sc.mu.Unlock()

	if data.ChatMessage != "" {
		sc.appendAssistantText(data.ChatMessage)
	}
	sc.publish()
	return nil
}

func (sc *SessionController) handleNodeUpdate(data stream.EventData) error {
	if data.NodeName == "" {
		return nil
	}

	req := canvas.UpdateNodeRequest{NodeName: data.NodeName, Parameters: data.Parameters}
	if _, err := sc.bridge.Invoke(canvas.UpdateNodeType, req, sc.mutationTimeout); err != nil {
		log.Error("failed to update node %s: %v", data.NodeName, err)
		sc.appendAssistantText(fmt.Sprintf("\n\n⚠️ Failed to update node: %s", err))
		return nil
	}
	log.Info("updated node %s", data.NodeName)
	return nil
}

func (sc *SessionController) addNode(node canvas.Node, previousNodeName string) (canvas.AddedNode, error) {
	req := canvas.AddNodeRequest{NodeConfig: node, PreviousNodeName: previousNodeName}
	raw, err := sc.bridge.Invoke(canvas.AddNodeType, req, sc.mutationTimeout)
	if err != nil {
		return canvas.AddedNode{}, err
	}

	var added canvas.AddedNode
	if err := json.Unmarshal(raw, &added); err != nil {
		return canvas.AddedNode{}, fmt.Errorf("malformed add-node result: %w", err)
	}
	if added.Name == "" {
		added.Name = node.Name
	}
	return added, nil
}

func (sc *SessionController) addConnection(source, target string) error {
	req := canvas.AddConnectionRequest{
		SourceNodeName:   source,
		TargetNodeName:   target,
		SourceOutputType: canvas.ConnectionMain,
		TargetInputType:  canvas.ConnectionMain,
	}
	_, err := sc.bridge.Invoke(canvas.AddConnectionType, req, sc.mutationTimeout)
	return err
}

// Reset clears the conversation, the pending approval and the persisted
// transcript. The backend chat session is kept.
func (sc *SessionController) Reset() error {
	sc.mu.Lock()
	if sc.isSending {
		sc.mu.Unlock()
		return nil
	}
	sc.conv = chat.NewConversation()
	sc.pendingApproval = nil
	sc.lastAddedNodeName = ""
	sc.mu.Unlock()

	sc.publish()
	return nil
}

// Approve clears the pending approval and answers the assistant with "yes".
func (sc *SessionController) Approve(ctx context.Context) error {
	sc.mu.Lock()
	sc.pendingApproval = nil
	sc.mu.Unlock()
	return sc.Send(ctx, "yes")
}

// RequestChanges clears the pending approval and answers with the user's
// feedback.
func (sc *SessionController) RequestChanges(ctx context.Context, feedback string) error {
	sc.mu.Lock()
	sc.pendingApproval = nil
	sc.mu.Unlock()

	message := "no"
	if strings.TrimSpace(feedback) != "" {
		message = "no, " + strings.TrimSpace(feedback)
	}
	return sc.Send(ctx, message)
}

// SyncCatalog extracts the node catalog from the host and pushes it to the
// backend index, reporting progress through the conversation.
func (sc *SessionController) SyncCatalog(ctx context.Context, kind string) error {
	sc.mu.Lock()
	if sc.isSending {
		sc.mu.Unlock()
		return nil
	}
	sc.isSending = true
	sc.mu.Unlock()

	defer func() {
		sc.mu.Lock()
		sc.isSending = false
		sc.mu.Unlock()
	}()

	label := "custom"
	if kind == canvas.CatalogStandard {
		label = "global"
	}

	sc.appendMessage(chat.NewUserMessage("/sync-" + label + "-nodes"))
	sc.appendMessage(chat.NewAssistantMessage(fmt.Sprintf("⏳ Extracting %s nodes from the canvas...", label)))

	catalog, err := sc.extractCatalog(kind)
	if err == nil && len(catalog) == 0 {
		err = fmt.Errorf("no nodes found, make sure the canvas is fully loaded")
	}
	if err != nil {
		log.Error("catalog sync failed: %v", err)
		sc.replaceLast(chat.NewErrorMessage("❌ " + err.Error()))
		return err
	}

	sc.replaceLast(chat.NewAssistantMessage(fmt.Sprintf("✓ Extracted %d nodes. Syncing to backend...", len(catalog))))

	result, err := sc.client.SyncCatalog(ctx, kind, catalog)
	if err != nil {
		log.Error("catalog sync failed: %v", err)
		sc.replaceLast(chat.NewErrorMessage("❌ " + err.Error()))
		return err
	}

	message := result.Message
	if message == "" {
		message = fmt.Sprintf("Synced %d nodes successfully!", result.Indexed)
	}
	sc.replaceLast(chat.NewAssistantMessage("✅ " + message))
	return nil
}

func (sc *SessionController) extractCatalog(kind string) ([]canvas.CatalogEntry, error) {
	req := canvas.ExtractCatalogRequest{CatalogType: kind}
	raw, err := sc.bridge.Call(canvas.ExtractCatalogType, canvas.CatalogResponseType, req, sc.catalogTimeout)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Catalog []canvas.CatalogEntry `json:"catalog"`
		Error   string                `json:"error"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("malformed catalog response: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s", reply.Error)
	}
	return reply.Catalog, nil
}

func (sc *SessionController) currentWorkflow() canvas.Workflow {
	if sc.workflow == nil {
		return canvas.Workflow{}
	}
	workflow, err := sc.workflow.CurrentWorkflow()
	if err != nil {
		// Canvas not ready yet; the backend treats an empty workflow as such.
		log.Debug("workflow snapshot unavailable: %v", err)
		return canvas.Workflow{}
	}
	return workflow
}

func (sc *SessionController) suppressDuplicate() {
	sc.mu.Lock()
	conv, removed := chat.SuppressTrailingDuplicate(sc.conv)
	sc.conv = conv
	sc.mu.Unlock()
	if removed {
		log.Debug("suppressed duplicate assistant message")
		sc.publish()
	}
}

func (sc *SessionController) appendMessage(msg chat.Message) {
	sc.mu.Lock()
	sc.conv = chat.AddMessage(sc.conv, msg)
	sc.mu.Unlock()
	sc.publish()
}

func (sc *SessionController) appendAssistantText(text string) {
	sc.mu.Lock()
	sc.conv = chat.AppendAssistantText(sc.conv, text)
	sc.mu.Unlock()
	sc.publish()
}

func (sc *SessionController) replaceLast(msg chat.Message) {
	sc.mu.Lock()
	sc.conv = chat.ReplaceLast(sc.conv, msg)
	sc.mu.Unlock()
	sc.publish()
}

// publish persists the conversation and notifies the UI.
func (sc *SessionController) publish() {
	sc.mu.Lock()
	conv := sc.conv
	transcript := sc.transcript
	lastAdded := sc.lastAddedNodeName
	onUpdate := sc.onUpdate
	sc.mu.Unlock()

	if transcript != nil {
		if err := transcript.Update(conv.Messages, lastAdded); err != nil {
			log.Warn("failed to persist transcript: %v", err)
		}
	}
	if onUpdate != nil {
		onUpdate(conv)
	}
}

func (sc *SessionController) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
