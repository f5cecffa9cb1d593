package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nodeflip/nodeflip/pkg/logger"
)

var log = logger.Component("bridge")

// ResponseType tags replies to the graph mutation commands.
const ResponseType = "n8nStore-response"

// ErrTimeout is returned when no matching response arrives in time. The
// host-side operation is not cancelled; the waiter just gives up.
var ErrTimeout = errors.New("bridge: timeout waiting for response")

// Handler processes one inbound command frame on the host side. The raw
// frame body is passed so handlers unmarshal their own request shape.
type Handler func(body json.RawMessage) (result any, err error)

type pendingRequest struct {
	responseType string
	reply        chan json.RawMessage
}

type handlerEntry struct {
	responseType string
	resultField  string
	fn           Handler
}

// Bridge is a typed request/response layer over a Channel: outbound
// commands carry a fresh correlation id and park in a pending map until the
// matching response frame arrives or the per-call timeout fires; inbound
// commands are dispatched to registered handlers and answered with a tagged
// response frame. Both contexts run one Bridge over their own endpoint.
type Bridge struct {
	ch Channel

	mu       sync.Mutex
	pending  map[string]pendingRequest
	handlers map[string]handlerEntry
	done     chan struct{}
}

// New creates a bridge over the given channel endpoint and starts routing
// inbound frames.
func New(ch Channel) *Bridge {
	b := &Bridge{
		ch:       ch,
		pending:  make(map[string]pendingRequest),
		handlers: make(map[string]handlerEntry),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Close stops the bridge and its channel.
func (b *Bridge) Close() error {
	select {
	case <-b.done:
		return nil
	default:
	}
	close(b.done)
	return b.ch.Close()
}

// Handle registers a command handler answered with a standard
// success/result response frame.
func (b *Bridge) Handle(frameType string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[frameType] = handlerEntry{responseType: ResponseType, fn: fn}
}

// HandleCustom registers a command handler answered with a custom response
// type, placing the result under resultField instead of success/result.
func (b *Bridge) HandleCustom(frameType, responseType, resultField string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[frameType] = handlerEntry{responseType: responseType, resultField: resultField, fn: fn}
}

// invokeReply is the standard mutation response body.
type invokeReply struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Invoke sends a command expecting the standard n8nStore-response framing
// and returns the raw result payload, the server-supplied error, or
// ErrTimeout.
func (b *Bridge) Invoke(commandType string, payload any, timeout time.Duration) (json.RawMessage, error) {
	raw, err := b.Call(commandType, ResponseType, payload, timeout)
	if err != nil {
		return nil, err
	}

	var reply invokeReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("bridge: malformed response for %s: %w", commandType, err)
	}
	if !reply.Success {
		if reply.Error == "" {
			reply.Error = "operation failed"
		}
		return nil, errors.New(reply.Error)
	}
	return reply.Result, nil
}

// Call sends a command and waits for a frame of responseType carrying the
// same correlation id, returning the whole raw response frame. Concurrent
// calls are independent; matching is exact on both type and id.
func (b *Bridge) Call(commandType, responseType string, payload any, timeout time.Duration) (json.RawMessage, error) {
	messageID := commandType + "-" + uuid.NewString()

	frame, err := encodeFrame(commandType, messageID, payload)
	if err != nil {
		return nil, err
	}

	reply := make(chan json.RawMessage, 1)
	b.mu.Lock()
	b.pending[messageID] = pendingRequest{responseType: responseType, reply: reply}
	b.mu.Unlock()

	if err := b.ch.Send(frame); err != nil {
		b.removePending(messageID)
		return nil, fmt.Errorf("bridge: send %s: %w", commandType, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case raw := <-reply:
		return raw, nil
	case <-timer.C:
		b.removePending(messageID)
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, commandType, timeout)
	case <-b.done:
		b.removePending(messageID)
		return nil, ErrChannelClosed
	}
}

func (b *Bridge) removePending(messageID string) {
	b.mu.Lock()
	delete(b.pending, messageID)
	b.mu.Unlock()
}

// frameHead is the routing envelope every frame carries.
type frameHead struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

func (b *Bridge) run() {
	for {
		select {
		case frame, ok := <-b.ch.Frames():
			if !ok {
				return
			}
			b.route(frame)
		case <-b.done:
			return
		}
	}
}

func (b *Bridge) route(frame []byte) {
	var head frameHead
	if err := json.Unmarshal(frame, &head); err != nil {
		log.Warn("dropping malformed frame: %v", err)
		return
	}
	if head.Type == "" || head.MessageID == "" {
		log.Warn("dropping frame without type or messageId")
		return
	}

	b.mu.Lock()
	entry, waiting := b.pending[head.MessageID]
	if waiting && entry.responseType == head.Type {
		delete(b.pending, head.MessageID)
		b.mu.Unlock()
		entry.reply <- json.RawMessage(frame)
		return
	}
	handler, handled := b.handlers[head.Type]
	b.mu.Unlock()

	if handled {
		// Host-side work is synchronous with frame order, matching the
		// single-threaded host context.
		b.dispatch(head, handler, frame)
		return
	}

	if strings.HasSuffix(head.Type, "-response") {
		// A waiter timed out before this arrived; drop it, but leave a trace.
		log.Debug("orphaned response %s (%s)", head.MessageID, head.Type)
		return
	}

	log.Warn("no handler for frame type %s", head.Type)
}

func (b *Bridge) dispatch(head frameHead, entry handlerEntry, frame []byte) {
	result, err := entry.fn(json.RawMessage(frame))

	fields := map[string]any{
		"type":      entry.responseType,
		"messageId": head.MessageID,
	}
	if entry.resultField != "" {
		fields[entry.resultField] = result
		if err != nil {
			fields["error"] = err.Error()
		}
	} else if err != nil {
		fields["success"] = false
		fields["error"] = err.Error()
	} else {
		fields["success"] = true
		fields["result"] = result
	}

	data, err := json.Marshal(fields)
	if err != nil {
		log.Error("failed to marshal response for %s: %v", head.Type, err)
		return
	}
	if err := b.ch.Send(data); err != nil {
		log.Error("failed to send response for %s: %v", head.Type, err)
	}
}

// encodeFrame flattens payload into a single object and stamps the routing
// fields on it.
func encodeFrame(frameType, messageID string, payload any) ([]byte, error) {
	fields := make(map[string]any)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("bridge: marshal payload for %s: %w", frameType, err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("bridge: payload for %s is not an object: %w", frameType, err)
		}
	}
	fields["type"] = frameType
	fields["messageId"] = messageID
	return json.Marshal(fields)
}
