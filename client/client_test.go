package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/pem"
	"io"
	"math/big"
	gonet "net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/mapdata"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/router"
	"badc0de.net/pkg/go-ascending/ttesting"
)

// signalStore serves empty chunks and reports every requested key.
type signalStore chan mapdata.Key

func (s signalStore) Load(ctx context.Context, key mapdata.Key) (*mapdata.Chunk, error) {
	select {
	case s <- key:
	default:
	}
	return &mapdata.Chunk{Key: key}, nil
}

// received turns a server packet into what the socket would hand out.
func received(t *testing.T, m *anet.Message) *anet.Message {
	t.Helper()
	if err := m.Finish(); err != nil {
		t.Fatalf("finishing: %v", err)
	}
	r := anet.MessageFromBytes(m.Bytes())
	if err := r.MoveCursor(anet.HeaderSize); err != nil {
		t.Fatalf("skipping header: %v", err)
	}
	return r
}

func chatPacket(text string) *anet.Message {
	m := protocol.NewServerPacket(protocol.ServerChatMsg)
	protocol.ChannelMap.EncodeTo(m)
	m.WriteU8(0)
	m.WriteString(text)
	protocol.White.EncodeTo(m)
	return m
}

// readFrame reads one framed packet from r and returns its client packet id
// and the message positioned after it.
func readFrame(r io.Reader) (protocol.ClientPacketID, *anet.Message, error) {
	header := make([]byte, anet.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	frame := make([]byte, anet.HeaderSize+int(binary.LittleEndian.Uint64(header)))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[anet.HeaderSize:]); err != nil {
		return 0, nil, err
	}
	m := anet.MessageFromBytes(frame)
	m.MoveCursor(anet.HeaderSize)
	id, err := protocol.ReadClientPacketID(m)
	return id, m, err
}

func newTestClient(t *testing.T, cfg Config) (*Client, gonet.Conn) {
	t.Helper()
	conn, server := gonet.Pipe()
	t.Cleanup(func() { server.Close() })
	c := New(cfg, conn, nil, WithStore(signalStore(make(chan mapdata.Key, 64))))
	t.Cleanup(func() { c.Socket().Close() })
	return c, server
}

func TestTickLimitsPackets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPacketsPerFrame = 2
	c, _ := newTestClient(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := c.Deliver(ctx, received(t, chatPacket("hi"))); err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}
	if err := c.Tick(ctx, 0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	ttesting.AssertEqualInt(t, "first frame", c.Buffer.Chat.Len(), 2)
	c.Tick(ctx, 0)
	c.Tick(ctx, 0)
	ttesting.AssertEqualInt(t, "after three frames", c.Buffer.Chat.Len(), 5)
}

func TestTickErrorPolicy(t *testing.T) {
	c, _ := newTestClient(t, DefaultConfig())
	ctx := context.Background()

	// A truncated payload is dropped and later packets still run.
	bad := protocol.NewServerPacket(protocol.ServerLoginOk)
	bad.WriteU8(1)
	c.Deliver(ctx, received(t, bad))
	c.Deliver(ctx, received(t, protocol.NewServerPacket(protocol.ServerFinishLoading)))
	if err := c.Tick(ctx, 0); err != nil {
		t.Fatalf("tick with malformed payload: %v", err)
	}
	if !c.Content.Finalized() {
		t.Errorf("packet after the malformed one was not handled")
	}

	unknown := anet.NewPacket()
	unknown.WriteU16(0xFFFF)
	c.Deliver(ctx, received(t, unknown))
	err := c.Tick(ctx, 0)
	ttesting.AssertErrorIs(t, "unknown packet", err, router.ErrInvalidPacket)
}

func TestTickProcessesOneMapTask(t *testing.T) {
	c, _ := newTestClient(t, DefaultConfig())
	ctx := context.Background()

	m := protocol.NewServerPacket(protocol.ServerMapSwitch)
	protocol.Position{Map: mapdata.Key{Group: 1}}.EncodeTo(m)
	m.WriteBool(true)
	c.Deliver(ctx, received(t, m))

	if err := c.Tick(ctx, 0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	ttesting.AssertEqualInt(t, "stored after one frame", c.Buffer.Storage.Len(), 1)
	ttesting.AssertEqualInt(t, "left in queue", c.Buffer.Len(), 26)
}

func TestHandshakeReplyIsPlaintext(t *testing.T) {
	c, server := newTestClient(t, DefaultConfig())
	ctx := context.Background()

	type frame struct {
		id   protocol.ClientPacketID
		code string
		err  error
	}
	got := make(chan frame, 1)
	go func() {
		id, m, err := readFrame(server)
		var code string
		if err == nil {
			code, err = m.ReadString()
		}
		got <- frame{id, code, err}
	}()

	m := protocol.NewServerPacket(protocol.ServerHandShake)
	m.WriteString("abc")
	c.Deliver(ctx, received(t, m))
	if err := c.Tick(ctx, 0); err != nil {
		t.Fatalf("tick: %v", err)
	}

	f := <-got
	if f.err != nil {
		t.Fatalf("server reading reply: %v", f.err)
	}
	ttesting.AssertEqualString(t, "reply", f.id.String(), "HandShake")
	ttesting.AssertEqualString(t, "code", f.code, "abc")
	ttesting.AssertEqualString(t, "state", c.Socket().EncryptionState().String(), "WriteTransfering")
}

// writeTestCert creates a self-signed certificate for localhost and writes
// it as PEM into a temporary directory.
func writeTestCert(t *testing.T) (tls.Certificate, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "roots.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("writing certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, path
}

// fakeServer plays the server side of a login: plaintext handshake, then
// the login over the secure session, then the game greeting.
func fakeServer(l gonet.Listener, cert tls.Certificate) error {
	conn, err := l.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	hs := protocol.NewServerPacket(protocol.ServerHandShake)
	hs.WriteString("code")
	hs.Finish()
	if _, err := conn.Write(hs.Bytes()); err != nil {
		return err
	}
	if id, _, err := readFrame(conn); err != nil || id != protocol.ClientHandShake {
		return errors.Errorf("handshake reply: %v %v", id, err)
	}

	srv := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
	id, m, err := readFrame(srv)
	if err != nil || id != protocol.ClientLogin {
		return errors.Errorf("login: %v %v", id, err)
	}
	if user, _ := m.ReadString(); user != "alice" {
		return errors.Errorf("login user %q", user)
	}

	login := protocol.NewServerPacket(protocol.ServerLoginOk)
	login.WriteU32(8)
	login.WriteU32(30)
	chat := chatPacket("welcome")
	finish := protocol.NewServerPacket(protocol.ServerFinishLoading)
	for _, p := range []*anet.Message{login, chat, finish} {
		p.Finish()
		if _, err := srv.Write(p.Bytes()); err != nil {
			return err
		}
	}
	// Wait for the client to hang up.
	io.Copy(io.Discard, srv)
	return nil
}

func TestRunLogin(t *testing.T) {
	cert, roots := writeTestCert(t)
	l, err := gonet.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	serverErr := make(chan error, 1)
	go func() { serverErr <- fakeServer(l, cert) }()

	cfg := DefaultConfig()
	cfg.Addr = l.Addr().String()
	cfg.CertsPath = roots
	cfg.Username, cfg.Password = "alice", "secret"
	cfg.FPS = 200

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := Dial(ctx, cfg, WithStore(signalStore(make(chan mapdata.Key))))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	chat := make(chan string, 1)
	c.Content.Game.Chat.OnChat = func(l content.ChatLine) {
		select {
		case chat <- l.String():
		default:
		}
		cancel()
	}

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	select {
	case line := <-chat:
		ttesting.AssertEqualString(t, "chat", line, "welcome")
	default:
		t.Fatalf("run ended without showing chat")
	}
	if err := <-serverErr; err != nil {
		t.Errorf("server: %v", err)
	}
}
