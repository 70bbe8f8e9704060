package net

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	gonet "net"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-ascending/metrics"
)

// EncryptionState is the security state of the channel carried by a Socket.
//
// The socket never changes its own state; the application moves it forward
// as handshake signals arrive, and reads it to pick a send path.
type EncryptionState int32

const (
	// EncryptionNone is an unauthenticated plaintext channel.
	EncryptionNone EncryptionState = iota
	// EncryptionWriteTransfering means the handshake is in progress:
	// outbound traffic must use the secure path, full duplex is not ready.
	EncryptionWriteTransfering
	// EncryptionReadWrite is a fully secured channel.
	EncryptionReadWrite
)

func (s EncryptionState) String() string {
	switch s {
	case EncryptionNone:
		return "None"
	case EncryptionWriteTransfering:
		return "WriteTransfering"
	case EncryptionReadWrite:
		return "ReadWrite"
	default:
		return "EncryptionState(?)"
	}
}

// Secure reports whether outbound traffic must go through the TLS session.
func (s EncryptionState) Secure() bool {
	return s != EncryptionNone
}

// Socket owns one transport connection and its current EncryptionState.
//
// Send and TLSSend are called from the logic thread. ReadPacket and
// ReceiveLoop run on a separate I/O goroutine.
type Socket struct {
	conn      gonet.Conn
	tlsConfig *tls.Config

	sessionLock sync.Mutex
	session     *tls.Conn

	// stream is the only reader of conn.
	stream *stream

	state   atomic.Int32
	events  trace.EventLog
	metrics *metrics.Metrics
}

// SocketOption configures a Socket.
type SocketOption func(*Socket)

// WithMetrics makes the socket record sent and received bytes.
func WithMetrics(m *metrics.Metrics) SocketOption {
	return func(s *Socket) {
		s.metrics = m
	}
}

// NewSocket wraps conn. The TLS session described by tlsConfig is only
// created once something is sent or received through the secure path.
func NewSocket(conn gonet.Conn, tlsConfig *tls.Config, opts ...SocketOption) *Socket {
	s := &Socket{
		conn:      conn,
		tlsConfig: tlsConfig,
		stream:    newStream(conn),
		events:    trace.NewEventLog("ascending.Socket", remoteName(conn)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func remoteName(conn gonet.Conn) string {
	if conn == nil || conn.RemoteAddr() == nil {
		return "?"
	}
	return conn.RemoteAddr().String()
}

// EncryptionState returns the current state.
func (s *Socket) EncryptionState() EncryptionState {
	return EncryptionState(s.state.Load())
}

// SetEncryptionState records a handshake transition.
func (s *Socket) SetEncryptionState(state EncryptionState) {
	old := EncryptionState(s.state.Swap(int32(state)))
	if state.Secure() {
		s.stream.upgrade()
	}
	if old != state {
		glog.V(1).Infof("socket %s: encryption state %s -> %s", remoteName(s.conn), old, state)
		s.events.Printf("encryption state %s -> %s", old, state)
	}
}

// Send writes a finished message directly to the transport.
func (s *Socket) Send(msg *Message) error {
	if err := s.write(s.conn, msg.Bytes()); err != nil {
		return errors.Wrap(err, "send")
	}
	s.metrics.PacketSent("plain", msg.Len())
	return nil
}

// TLSSend writes a finished message through the secure session, starting
// the session if this is the first secure write.
func (s *Socket) TLSSend(msg *Message) error {
	session, err := s.secureSession()
	if err != nil {
		return err
	}
	if err := s.write(session, msg.Bytes()); err != nil {
		return errors.Wrap(err, "tls send")
	}
	s.metrics.PacketSent("tls", msg.Len())
	return nil
}

func (s *Socket) write(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		s.events.Errorf("write failed after %d/%d bytes: %v", n, len(b), err)
		return errors.Wrapf(ErrTransport, "%v", err)
	}
	glog.V(3).Infof("socket %s: written %d bytes", remoteName(s.conn), n)
	return nil
}

func (s *Socket) secureSession() (*tls.Conn, error) {
	s.sessionLock.Lock()
	defer s.sessionLock.Unlock()

	if s.session != nil {
		return s.session, nil
	}
	if s.tlsConfig == nil {
		return nil, errors.Wrap(ErrTransport, "no tls configuration for secure session")
	}
	s.session = tls.Client(&streamConn{Conn: s.conn, st: s.stream}, s.tlsConfig)
	s.events.Printf("secure session created")
	return s.session, nil
}

// ReadPacket reads one framed packet. While the state is EncryptionNone it
// reads plaintext, otherwise through the secure session. A plaintext read
// waiting for the next packet moves over to the session as soon as the
// state changes.
//
// The returned message holds the whole frame with the cursor already moved
// past the length header.
func (s *Socket) ReadPacket() (*Message, error) {
	header := make([]byte, HeaderSize)
	var r io.Reader = s.stream
	for {
		if s.EncryptionState().Secure() {
			session, err := s.secureSession()
			if err != nil {
				return nil, err
			}
			r = session
			if _, err := io.ReadFull(r, header); err != nil {
				return nil, errors.Wrapf(ErrTransport, "reading packet header: %v", err)
			}
			break
		}
		err := s.stream.readHeader(header)
		if err == errUpgraded {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(ErrTransport, "reading packet header: %v", err)
		}
		break
	}

	size := binary.LittleEndian.Uint64(header)
	if size > MaxPacketSize {
		s.events.Errorf("packet of %d bytes exceeds limit", size)
		return nil, errors.Wrapf(ErrDecode, "packet size %d exceeds %d", size, MaxPacketSize)
	}
	glog.V(3).Infof("incoming packet len: %d", size)

	frame := make([]byte, HeaderSize+int(size))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, errors.Wrapf(ErrTransport, "reading packet body: %v", err)
	}
	s.metrics.BytesReceived(len(frame))

	msg := MessageFromBytes(frame)
	if err := msg.MoveCursor(HeaderSize); err != nil {
		return nil, err
	}
	return msg, nil
}

// ReceiveLoop reads packets until the connection fails or ctx is done,
// forwarding each to out. It is meant to run on its own goroutine; out is
// drained by the logic thread.
//
// Once ctx is done the socket cannot be read from anymore.
func (s *Socket) ReceiveLoop(ctx context.Context, out chan<- *Message) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.stream.interrupt()
		case <-stop:
		}
	}()

	for {
		msg, err := s.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.events.Errorf("receive loop: %v", err)
			return err
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close tears down the secure session (if any) and the transport.
func (s *Socket) Close() error {
	s.events.Printf("closing")
	s.events.Finish()
	s.stream.interrupt()

	s.sessionLock.Lock()
	session := s.session
	s.sessionLock.Unlock()
	if session != nil {
		return session.Close()
	}
	return s.conn.Close()
}
