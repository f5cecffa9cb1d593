package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/nodeflip/nodeflip/pkg/logger"
)

var log = logger.Component("stream")

// Reassembler turns the chunked response body into a sequence of complete
// envelopes. It accumulates raw bytes and splits on the delimiter, so a
// multi-byte character straddling two chunks is reassembled before any
// decoding happens. Tied to one response body; not restartable.
type Reassembler struct {
	r     io.Reader
	buf   bytes.Buffer
	queue [][]byte
	chunk []byte
	done  bool
}

func NewReassembler(r io.Reader) *Reassembler {
	return &Reassembler{
		r:     r,
		chunk: make([]byte, 4096),
	}
}

// Next returns the next envelope. A piece that fails JSON parsing is logged
// and skipped so one malformed envelope never loses the rest of the stream.
// Returns io.EOF when the stream is exhausted; any other error is a
// transport failure and terminal.
func (ra *Reassembler) Next() (Envelope, error) {
	for {
		for len(ra.queue) > 0 {
			piece := ra.queue[0]
			ra.queue = ra.queue[1:]

			if len(bytes.TrimSpace(piece)) == 0 {
				continue
			}

			var env Envelope
			if err := json.Unmarshal(piece, &env); err != nil {
				log.Warn("skipping malformed envelope: %v", err)
				continue
			}
			return env, nil
		}

		if ra.done {
			// The protocol terminates the last envelope with the separator,
			// so leftover content means the stream was truncated.
			if len(bytes.TrimSpace(ra.buf.Bytes())) > 0 {
				log.Warn("discarding truncated trailing data (%d bytes)", ra.buf.Len())
				ra.buf.Reset()
			}
			return Envelope{}, io.EOF
		}

		if err := ra.fill(); err != nil {
			return Envelope{}, err
		}
	}
}

// fill reads one chunk, appends it to the buffer and carves out every
// complete piece. The trailing partial piece stays buffered.
func (ra *Reassembler) fill() error {
	n, err := ra.r.Read(ra.chunk)
	if n > 0 {
		ra.buf.Write(ra.chunk[:n])
		ra.split()
	}
	if err == io.EOF {
		ra.done = true
		return nil
	}
	return err
}

func (ra *Reassembler) split() {
	delim := []byte(Delimiter)
	for {
		idx := bytes.Index(ra.buf.Bytes(), delim)
		if idx < 0 {
			return
		}
		piece := make([]byte, idx)
		copy(piece, ra.buf.Bytes()[:idx])
		ra.queue = append(ra.queue, piece)
		ra.buf.Next(idx + len(delim))
	}
}

// Collect drains the reassembler, returning every envelope in order.
// Intended for tests and small fixed payloads.
func Collect(r io.Reader) ([]Envelope, error) {
	ra := NewReassembler(r)
	var envelopes []Envelope
	for {
		env, err := ra.Next()
		if err == io.EOF {
			return envelopes, nil
		}
		if err != nil {
			return envelopes, err
		}
		envelopes = append(envelopes, env)
	}
}

// Join frames the given envelope payloads into one stream body, each
// terminated by the delimiter. The inverse of reassembly, used by tests and
// fixtures.
func Join(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString(p)
		b.WriteString(Delimiter)
	}
	return b.String()
}
