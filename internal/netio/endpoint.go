// Package netio implements length-prefixed message I/O over a single stream
// or datagram socket. Every frame on the wire is a 2-byte little-endian body
// length followed by that many body bytes; the same decoder drives both
// transports because datagrams carry whole frames and streams may split them
// anywhere.
package netio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/ndrandal/venue-sim/internal/market"
)

// prefixSize is the width of the frame length prefix.
const prefixSize = 2

// minWritable is the smallest tail region the read loop will re-arm into
// without compacting the buffer first.
const minWritable = 256

// ErrDesync reports a decode failure mid-stream. Buffered bytes can no
// longer be trusted to start on a frame boundary, so the session is fatal.
var ErrDesync = errors.New("netio: frame desync")

// DecodeFunc turns one frame body into a message.
type DecodeFunc[In any] func(body []byte) (In, error)

// AppendFunc appends one encoded message body to dst.
type AppendFunc[Out any] func(dst []byte, msg Out) []byte

// Handler receives the batch of messages decoded from one read completion.
type Handler[In any] func(batch []In)

// Stampable is implemented by inbound messages that carry trader context.
// Broadcast price messages do not implement it and pass through unstamped.
type Stampable interface {
	SetTraderID(market.TraderID)
}

// Options tunes an endpoint. Zero values fall back to defaults.
type Options struct {
	// BufferSize is the rotating read buffer size in bytes.
	BufferSize int
	// MaxMessageSize is the upper bound on one encoded body; the write path
	// sizes its batch buffer from it.
	MaxMessageSize int
	// TraderID, when non-zero, is stamped onto every decoded inbound
	// message that implements Stampable.
	TraderID market.TraderID
	// Logger for transport-level events.
	Logger *slog.Logger
}

// Endpoint is a framed message endpoint over one socket. In is the inbound
// message type, Out the outbound. The stream/datagram split is a closed
// variant selected at construction, not a type hierarchy.
type Endpoint[In, Out any] struct {
	conn   net.Conn
	stream bool

	id     market.TraderID
	decode DecodeFunc[In]
	encode AppendFunc[Out]
	maxMsg int
	log    *slog.Logger

	// rotating read buffer; [head, tail) holds pending-decoded bytes,
	// [tail, len) is writable.
	buf  []byte
	head int
	tail int

	wmu sync.Mutex
}

// NewStream wraps a reliable stream connection.
func NewStream[In, Out any](conn net.Conn, decode DecodeFunc[In], encode AppendFunc[Out], opts Options) *Endpoint[In, Out] {
	return newEndpoint(conn, true, decode, encode, opts)
}

// NewDatagram wraps a datagram socket. Each receive completion carries one
// or more whole frames, never a fragment.
func NewDatagram[In, Out any](conn net.Conn, decode DecodeFunc[In], encode AppendFunc[Out], opts Options) *Endpoint[In, Out] {
	return newEndpoint(conn, false, decode, encode, opts)
}

func newEndpoint[In, Out any](conn net.Conn, stream bool, decode DecodeFunc[In], encode AppendFunc[Out], opts Options) *Endpoint[In, Out] {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 4096
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Endpoint[In, Out]{
		conn:   conn,
		stream: stream,
		id:     opts.TraderID,
		decode: decode,
		encode: encode,
		maxMsg: opts.MaxMessageSize,
		log:    opts.Logger,
		buf:    make([]byte, opts.BufferSize),
	}
}

// TraderID returns the session identity stamped onto inbound messages.
func (e *Endpoint[In, Out]) TraderID() market.TraderID {
	return e.id
}

// Close closes the underlying socket, unblocking any in-flight read.
func (e *Endpoint[In, Out]) Close() error {
	return e.conn.Close()
}

// ReadLoop receives into the rotating buffer and delivers decoded batches
// to handler until the socket fails or the stream desynchronises. It always
// returns a non-nil error: io.EOF or net.ErrClosed for clean teardown,
// ErrDesync for an undecodable stream frame, or the transport error.
func (e *Endpoint[In, Out]) ReadLoop(handler Handler[In]) error {
	for {
		n, err := e.conn.Read(e.buf[e.tail:])
		if err != nil {
			e.head, e.tail = 0, 0
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return err
			}
			e.log.Error("read failed", "err", err)
			return err
		}
		e.tail += n

		batch, derr := e.drain()
		if len(batch) > 0 {
			handler(batch)
		}
		if derr != nil {
			if e.stream {
				return fmt.Errorf("%w: %w", ErrDesync, derr)
			}
			// Datagram frames stand alone: drop the rest of this
			// datagram and keep receiving.
			e.log.Warn("dropping undecodable datagram", "err", derr)
		}
		if len(e.buf)-e.tail < minWritable {
			e.rotate()
		}
	}
}

// drain decodes every complete frame in [head, tail). On a decode failure
// both cursors reset to zero, the remainder of the batch is abandoned, and
// the error is returned alongside the messages decoded so far.
func (e *Endpoint[In, Out]) drain() ([]In, error) {
	var batch []In
	for e.tail-e.head >= prefixSize {
		bodyLen := int(binary.LittleEndian.Uint16(e.buf[e.head : e.head+prefixSize]))
		if prefixSize+bodyLen > len(e.buf) {
			// No amount of compaction makes this frame fit; the prefix is
			// garbage or the peer speaks a different protocol.
			e.head, e.tail = 0, 0
			return batch, fmt.Errorf("frame of %d bytes exceeds the %d byte buffer", bodyLen, len(e.buf))
		}
		if e.head+prefixSize+bodyLen > len(e.buf) {
			// The frame cannot fit in the space after head even once more
			// bytes arrive; compact so the next receive makes room.
			e.rotate()
			break
		}
		if e.head+prefixSize+bodyLen > e.tail {
			// Incomplete frame: wait for more bytes.
			break
		}
		body := e.buf[e.head+prefixSize : e.head+prefixSize+bodyLen]
		msg, err := e.decode(body)
		if err != nil {
			e.head, e.tail = 0, 0
			return batch, err
		}
		if s, ok := any(&msg).(Stampable); ok && e.id != 0 {
			s.SetTraderID(e.id)
		}
		batch = append(batch, msg)
		e.head += prefixSize + bodyLen
	}
	return batch, nil
}

// rotate compacts the buffer: pending bytes move down to offset zero,
// preserving [head, tail) byte-for-byte.
func (e *Endpoint[In, Out]) rotate() {
	copy(e.buf, e.buf[e.head:e.tail])
	e.tail -= e.head
	e.head = 0
}

// Write serialises a batch of messages, each behind its length prefix, into
// one contiguous buffer and submits a single write: an ordered byte write
// on a stream, one send on a datagram socket. A write failure is logged and
// returned but does not tear the session down; the next write may succeed.
func (e *Endpoint[In, Out]) Write(msgs []Out) error {
	if len(msgs) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(msgs)*(prefixSize+e.maxMsg))
	for i := range msgs {
		buf = append(buf, 0, 0)
		start := len(buf)
		buf = e.encode(buf, msgs[i])
		binary.LittleEndian.PutUint16(buf[start-prefixSize:start], uint16(len(buf)-start))
	}

	e.wmu.Lock()
	defer e.wmu.Unlock()
	if _, err := e.conn.Write(buf); err != nil {
		e.log.Error("write failed", "err", err)
		return err
	}
	return nil
}
