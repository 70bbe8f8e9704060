package net

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// HeaderSize is the size of the u64 length header reserved in front of every
// packet.
const HeaderSize = 8

// MaxPacketSize bounds the payload of a single received packet.
const MaxPacketSize = 8 << 20

// Message is a read/write cursor over a byte buffer.
//
// Writes always append to the end of the buffer. Reads consume from the
// cursor. A message created with NewPacket starts with a reserved length
// header that Finish fills in once all fields are written.
type Message struct {
	data   []byte
	cursor int
	framed bool
}

// Encodable is implemented by composite wire types, such as nested
// enumerations, that know how to write themselves.
type Encodable interface {
	EncodeTo(m *Message)
}

// Decodable is implemented by composite wire types that know how to read
// themselves back.
type Decodable interface {
	DecodeFrom(m *Message) error
}

// NewMessage returns an empty, unframed message.
func NewMessage() *Message {
	return &Message{}
}

// NewPacket returns a message with a reserved length header.
func NewPacket() *Message {
	return &Message{
		data:   make([]byte, HeaderSize, 64),
		cursor: HeaderSize,
		framed: true,
	}
}

// MessageFromBytes wraps received bytes for reading. The cursor starts at
// the beginning of b; use MoveCursor to skip a header consumed elsewhere.
func MessageFromBytes(b []byte) *Message {
	return &Message{data: b}
}

// Bytes returns the whole buffer, including any header.
func (m *Message) Bytes() []byte {
	return m.data
}

// Len returns the length of the whole buffer.
func (m *Message) Len() int {
	return len(m.data)
}

// Cursor returns the current read position.
func (m *Message) Cursor() int {
	return m.cursor
}

// Remaining returns the number of unread bytes.
func (m *Message) Remaining() int {
	return len(m.data) - m.cursor
}

// MoveCursorToStart rewinds the read cursor.
func (m *Message) MoveCursorToStart() {
	m.cursor = 0
}

// MoveCursor places the read cursor at the absolute position pos.
func (m *Message) MoveCursor(pos int) error {
	if pos < 0 || pos > len(m.data) {
		return errors.Wrapf(ErrDecode, "cursor %d outside message of %d bytes", pos, len(m.data))
	}
	m.cursor = pos
	return nil
}

// Finish back-patches the reserved length header with the size of
// everything written after it, and rewinds the cursor so the message can
// be transmitted.
func (m *Message) Finish() error {
	if !m.framed || len(m.data) < HeaderSize {
		return errors.New("finish: message has no reserved length header")
	}
	size := uint64(len(m.data) - HeaderSize)
	binary.LittleEndian.PutUint64(m.data[:HeaderSize], size)
	m.cursor = 0
	glog.V(4).Infof("finished packet with %d payload bytes", size)
	return nil
}

// Read implements io.Reader over the unread part of the message.
func (m *Message) Read(b []byte) (int, error) {
	if m.cursor >= len(m.data) {
		if len(b) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(b, m.data[m.cursor:])
	m.cursor += n
	return n, nil
}

// Write implements io.Writer; it appends b and never fails.
func (m *Message) Write(b []byte) (int, error) {
	m.data = append(m.data, b...)
	return len(b), nil
}

func (m *Message) next(n int, what string) ([]byte, error) {
	if m.Remaining() < n {
		return nil, errors.Wrapf(ErrDecode, "reading %s: need %d bytes, have %d", what, n, m.Remaining())
	}
	b := m.data[m.cursor : m.cursor+n]
	m.cursor += n
	return b, nil
}

////// Writers //////

func (m *Message) WriteRaw(b []byte) {
	m.data = append(m.data, b...)
}

func (m *Message) WriteU8(v uint8) {
	m.data = append(m.data, v)
}

func (m *Message) WriteU16(v uint16) {
	m.data = binary.LittleEndian.AppendUint16(m.data, v)
}

func (m *Message) WriteU32(v uint32) {
	m.data = binary.LittleEndian.AppendUint32(m.data, v)
}

func (m *Message) WriteU64(v uint64) {
	m.data = binary.LittleEndian.AppendUint64(m.data, v)
}

func (m *Message) WriteI8(v int8)   { m.WriteU8(uint8(v)) }
func (m *Message) WriteI16(v int16) { m.WriteU16(uint16(v)) }
func (m *Message) WriteI32(v int32) { m.WriteU32(uint32(v)) }
func (m *Message) WriteI64(v int64) { m.WriteU64(uint64(v)) }

func (m *Message) WriteF32(v float32) { m.WriteU32(math.Float32bits(v)) }
func (m *Message) WriteF64(v float64) { m.WriteU64(math.Float64bits(v)) }

// WriteBool writes a single byte, 1 for true and 0 for false.
func (m *Message) WriteBool(v bool) {
	if v {
		m.WriteU8(1)
	} else {
		m.WriteU8(0)
	}
}

// WriteString writes a u64 byte length followed by the UTF-8 bytes of s.
func (m *Message) WriteString(s string) {
	m.WriteU64(uint64(len(s)))
	m.data = append(m.data, s...)
}

// WriteBytes writes a u64 length followed by b.
func (m *Message) WriteBytes(b []byte) {
	m.WriteU64(uint64(len(b)))
	m.data = append(m.data, b...)
}

// WriteTag writes the ordinal of an enumeration variant.
func (m *Message) WriteTag(tag uint16) {
	m.WriteU16(tag)
}

// WriteValue writes a composite value.
func (m *Message) WriteValue(v Encodable) {
	v.EncodeTo(m)
}

////// Readers //////

func (m *Message) ReadU8() (uint8, error) {
	b, err := m.next(1, "u8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Message) ReadU16() (uint16, error) {
	b, err := m.next(2, "u16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *Message) ReadU32() (uint32, error) {
	b, err := m.next(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Message) ReadU64() (uint64, error) {
	b, err := m.next(8, "u64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Message) ReadI8() (int8, error) {
	v, err := m.ReadU8()
	return int8(v), err
}

func (m *Message) ReadI16() (int16, error) {
	v, err := m.ReadU16()
	return int16(v), err
}

func (m *Message) ReadI32() (int32, error) {
	v, err := m.ReadU32()
	return int32(v), err
}

func (m *Message) ReadI64() (int64, error) {
	v, err := m.ReadU64()
	return int64(v), err
}

func (m *Message) ReadF32() (float32, error) {
	v, err := m.ReadU32()
	return math.Float32frombits(v), err
}

func (m *Message) ReadF64() (float64, error) {
	v, err := m.ReadU64()
	return math.Float64frombits(v), err
}

func (m *Message) ReadBool() (bool, error) {
	v, err := m.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrDecode, "invalid bool byte 0x%02x", v)
	}
}

func (m *Message) readLength(what string) (int, error) {
	sz, err := m.ReadU64()
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s length", what)
	}
	if sz > uint64(m.Remaining()) {
		return 0, errors.Wrapf(ErrDecode, "%s length %d exceeds remaining %d bytes", what, sz, m.Remaining())
	}
	return int(sz), nil
}

// ReadString reads a u64 length-prefixed UTF-8 string.
func (m *Message) ReadString() (string, error) {
	sz, err := m.readLength("string")
	if err != nil {
		return "", err
	}
	b, err := m.next(sz, "string")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.Wrap(ErrDecode, "string is not valid utf-8")
	}
	return string(b), nil
}

// ReadBytes reads a u64 length-prefixed byte slice. The result is a copy.
func (m *Message) ReadBytes() ([]byte, error) {
	sz, err := m.readLength("bytes")
	if err != nil {
		return nil, err
	}
	b, err := m.next(sz, "bytes")
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadTag reads an enumeration ordinal and verifies it is below count.
func (m *Message) ReadTag(count uint16, what string) (uint16, error) {
	tag, err := m.ReadU16()
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s tag", what)
	}
	if tag >= count {
		return 0, errors.Wrapf(ErrDecode, "invalid %s tag %d", what, tag)
	}
	return tag, nil
}

// ReadValue reads a composite value.
func (m *Message) ReadValue(v Decodable) error {
	return v.DecodeFrom(m)
}

// WriteOptional writes a presence byte, followed by *v when v is not nil.
func WriteOptional[T any](m *Message, v *T, write func(*Message, T)) {
	if v == nil {
		m.WriteBool(false)
		return
	}
	m.WriteBool(true)
	write(m, *v)
}

// ReadOptional reads a presence byte and, when set, the value that follows.
func ReadOptional[T any](m *Message, read func(*Message) (T, error)) (*T, error) {
	present, err := m.ReadBool()
	if err != nil {
		return nil, errors.Wrap(err, "reading optional presence")
	}
	if !present {
		return nil, nil
	}
	v, err := read(m)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
