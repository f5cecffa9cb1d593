package bridge

// Channel is one endpoint of the message channel shared by the isolated
// chat context and the host canvas context. Frames are single flat JSON
// objects; only clone-safe data crosses it.
type Channel interface {
	// Send posts one frame to the peer.
	Send(frame []byte) error

	// Frames delivers inbound frames. The channel is closed when the
	// transport goes away.
	Frames() <-chan []byte

	// Close tears the endpoint down.
	Close() error
}
