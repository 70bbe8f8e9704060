package net

import (
	"io"
	gonet "net"
	"sync"

	"github.com/pkg/errors"
)

// maxBuffered bounds how far the pump reads ahead of the consumers.
const maxBuffered = 1 << 20

var (
	errUpgraded    = errors.New("stream switched to the secure session")
	errInterrupted = errors.New("stream reads interrupted")
)

// stream is the single reader of a transport connection. Every inbound byte
// goes through its buffer, whether it is consumed as plaintext by the
// socket or by the TLS session, so switching between the two never loses or
// splits data.
type stream struct {
	conn gonet.Conn
	once sync.Once

	mu          sync.Mutex
	cond        *sync.Cond
	buf         []byte
	err         error // sticky error from the connection
	secure      bool
	interrupted bool
}

func newStream(conn gonet.Conn) *stream {
	st := &stream{conn: conn}
	st.cond = sync.NewCond(&st.mu)
	return st
}

func (st *stream) start() {
	st.once.Do(func() { go st.pump() })
}

func (st *stream) pump() {
	chunk := make([]byte, 32<<10)
	for {
		n, err := st.conn.Read(chunk)

		st.mu.Lock()
		st.buf = append(st.buf, chunk[:n]...)
		if err != nil {
			st.err = err
		}
		st.cond.Broadcast()
		for err == nil && len(st.buf) >= maxBuffered && !st.interrupted {
			st.cond.Wait()
		}
		stop := err != nil || st.interrupted
		st.mu.Unlock()
		if stop {
			return
		}
	}
}

// upgrade wakes up plaintext readers waiting for a packet header; they
// return errUpgraded and the caller continues on the secure session.
func (st *stream) upgrade() {
	st.mu.Lock()
	st.secure = true
	st.cond.Broadcast()
	st.mu.Unlock()
}

// interrupt makes every pending and future read fail.
func (st *stream) interrupt() {
	st.mu.Lock()
	st.interrupted = true
	st.cond.Broadcast()
	st.mu.Unlock()
}

// take removes up to len(b) bytes from the buffer. The lock must be held.
func (st *stream) take(b []byte) int {
	n := copy(b, st.buf)
	st.buf = st.buf[n:]
	if len(st.buf) == 0 {
		st.buf = nil
	}
	st.cond.Broadcast()
	return n
}

// readHeader fills b with plaintext, giving up without consuming anything
// once the stream turned secure.
func (st *stream) readHeader(b []byte) error {
	st.start()
	st.mu.Lock()
	defer st.mu.Unlock()
	for {
		switch {
		case st.interrupted:
			return errInterrupted
		case st.secure:
			return errUpgraded
		case len(st.buf) >= len(b):
			st.take(b)
			return nil
		case st.err != nil:
			if len(st.buf) == 0 && st.err == io.EOF {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}
		st.cond.Wait()
	}
}

// Read implements io.Reader over the buffered stream.
func (st *stream) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	st.start()
	st.mu.Lock()
	defer st.mu.Unlock()
	for {
		switch {
		case st.interrupted:
			return 0, errInterrupted
		case len(st.buf) > 0:
			return st.take(b), nil
		case st.err != nil:
			return 0, st.err
		}
		st.cond.Wait()
	}
}

// streamConn is the connection handed to the TLS session: reads come from
// the stream, everything else goes to the transport.
type streamConn struct {
	gonet.Conn
	st *stream
}

func (c *streamConn) Read(b []byte) (int, error) {
	return c.st.Read(b)
}
