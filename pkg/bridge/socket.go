package bridge

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// SocketChannel carries bridge frames over a websocket, for running the
// chat side out of process from a browser-resident host shim.
type SocketChannel struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	frames  chan []byte
	once    sync.Once
}

// NewSocketChannel wraps an established websocket connection.
func NewSocketChannel(conn *websocket.Conn) *SocketChannel {
	c := &SocketChannel{
		conn:   conn,
		frames: make(chan []byte, 16),
	}
	go c.readPump()
	return c
}

func (c *SocketChannel) readPump() {
	defer close(c.frames)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("socket read ended: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.frames <- data
	}
}

func (c *SocketChannel) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("bridge: socket write: %w", err)
	}
	return nil
}

func (c *SocketChannel) Frames() <-chan []byte {
	return c.frames
}

func (c *SocketChannel) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
	})
	return err
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser shim connects from the host page's origin; the socket is
	// bound to localhost and carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Listen accepts a single websocket connection on addr and returns it as a
// channel endpoint. It blocks until the browser shim connects.
func Listen(addr string) (Channel, error) {
	connCh := make(chan *websocket.Conn, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed: %v", err)
			return
		}
		select {
		case connCh <- conn:
		default:
			conn.Close()
		}
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Info("waiting for host shim on ws://%s/bridge", addr)

	select {
	case conn := <-connCh:
		return NewSocketChannel(conn), nil
	case err := <-errCh:
		return nil, fmt.Errorf("bridge: listen on %s: %w", addr, err)
	}
}
