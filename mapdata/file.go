package mapdata

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	anet "badc0de.net/pkg/go-ascending/net"
)

// FileVersion is the chunk file format version written by Save.
const FileVersion = 1

// MaxChunkSize bounds both the compressed body and the decoded chunk
// encoding of a chunk file.
const MaxChunkSize = 4 << 20

var fileMagic = [4]byte{'A', 'M', 'A', 'P'}

// fileHeader precedes the LZ4-compressed chunk encoding. Digest is the
// BLAKE2b-256 sum of the compressed body.
type fileHeader struct {
	Magic   [4]byte
	Version uint16
	Digest  [blake2b.Size256]byte
}

// Save writes c in the chunk file format.
func Save(w io.Writer, c *Chunk) error {
	m := anet.NewMessage()
	c.EncodeTo(m)

	body := &bytes.Buffer{}
	zw := lz4.NewWriter(body)
	if _, err := zw.Write(m.Bytes()); err != nil {
		return errors.Wrap(err, "compressing chunk")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "compressing chunk")
	}

	head := fileHeader{
		Magic:   fileMagic,
		Version: FileVersion,
		Digest:  blake2b.Sum256(body.Bytes()),
	}
	if err := binary.Write(w, binary.LittleEndian, &head); err != nil {
		return errors.Wrap(err, "writing chunk header")
	}
	if _, err := io.Copy(w, body); err != nil {
		return errors.Wrap(err, "writing chunk body")
	}
	return nil
}

// Decode reads a chunk in the chunk file format.
func Decode(r io.Reader) (*Chunk, error) {
	return decode(r, MaxChunkSize)
}

// readLimited reads all of r, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.Errorf("more than %d bytes", limit)
	}
	return b, nil
}

func decode(r io.Reader, limit int64) (*Chunk, error) {
	var head fileHeader
	if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
		return nil, errors.Wrap(err, "reading chunk header")
	}
	if head.Magic != fileMagic {
		return nil, errors.Errorf("bad chunk magic %q", head.Magic[:])
	}
	if head.Version != FileVersion {
		return nil, errors.Errorf("unsupported chunk version %d", head.Version)
	}

	body, err := readLimited(r, limit)
	if err != nil {
		return nil, errors.Wrap(err, "reading chunk body")
	}
	if blake2b.Sum256(body) != head.Digest {
		return nil, errors.New("chunk digest mismatch")
	}

	raw, err := readLimited(lz4.NewReader(bytes.NewReader(body)), limit)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing chunk")
	}

	c := &Chunk{}
	if err := c.DecodeFrom(anet.MessageFromBytes(raw)); err != nil {
		return nil, errors.Wrap(err, "decoding chunk")
	}
	return c, nil
}
