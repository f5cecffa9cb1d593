package bridge

import (
	"errors"
	"sync"
)

// ErrChannelClosed is returned when sending on a closed channel endpoint.
var ErrChannelClosed = errors.New("bridge: channel closed")

// pipe is the shared state of an in-process channel pair. Closing either
// endpoint tears down both directions, matching a page navigation killing
// both contexts at once.
type pipe struct {
	once   sync.Once
	closed chan struct{}
}

func (p *pipe) close() {
	p.once.Do(func() {
		close(p.closed)
	})
}

// pipeEnd is one side of the pair. Used by the host simulator and by
// tests; the semantics match the socket channel.
type pipeEnd struct {
	p    *pipe
	out  chan []byte
	recv chan []byte
}

// NewPipe returns two connected channel endpoints. Frames sent on one are
// delivered on the other's Frames channel in order.
func NewPipe() (Channel, Channel) {
	p := &pipe{closed: make(chan struct{})}

	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)

	a := &pipeEnd{p: p, out: ab, recv: make(chan []byte, 16)}
	b := &pipeEnd{p: p, out: ba, recv: make(chan []byte, 16)}

	go forward(p, ba, a.recv)
	go forward(p, ab, b.recv)

	return a, b
}

// forward moves frames from one direction's buffer to the receiving end
// until the pipe closes, then closes the delivery channel.
func forward(p *pipe, in <-chan []byte, out chan<- []byte) {
	defer close(out)
	for {
		select {
		case frame := <-in:
			select {
			case out <- frame:
			case <-p.closed:
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (e *pipeEnd) Send(frame []byte) error {
	buf := make([]byte, len(frame))
	copy(buf, frame)

	select {
	case e.out <- buf:
		return nil
	case <-e.p.closed:
		return ErrChannelClosed
	}
}

func (e *pipeEnd) Frames() <-chan []byte {
	return e.recv
}

func (e *pipeEnd) Close() error {
	e.p.close()
	return nil
}
