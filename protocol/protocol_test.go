package protocol

import (
	"testing"

	"badc0de.net/pkg/go-ascending/mapdata"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/ttesting"
)

type sent struct {
	path string
	msg  *anet.Message
}

// recordingConn is a Conn that keeps every message instead of writing it.
type recordingConn struct {
	state anet.EncryptionState
	sent  []sent
}

func (c *recordingConn) Send(m *anet.Message) error {
	c.sent = append(c.sent, sent{"plain", m})
	return nil
}

func (c *recordingConn) TLSSend(m *anet.Message) error {
	c.sent = append(c.sent, sent{"tls", m})
	return nil
}

func (c *recordingConn) EncryptionState() anet.EncryptionState     { return c.state }
func (c *recordingConn) SetEncryptionState(s anet.EncryptionState) { c.state = s }

// last returns the last sent message positioned after its packet id.
func (c *recordingConn) last(t *testing.T) (string, ClientPacketID, *anet.Message) {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatalf("nothing sent")
	}
	s := c.sent[len(c.sent)-1]
	m := anet.MessageFromBytes(s.msg.Bytes())
	size, err := m.ReadU64()
	if err != nil {
		t.Fatalf("reading header: %v", err)
	}
	if int(size) != m.Len()-anet.HeaderSize {
		t.Fatalf("header says %d bytes, packet has %d", size, m.Len()-anet.HeaderSize)
	}
	id, err := ReadClientPacketID(m)
	if err != nil {
		t.Fatalf("reading id: %v", err)
	}
	return s.path, id, m
}

var _ Conn = (*recordingConn)(nil)

func TestSendPaths(t *testing.T) {
	c := &recordingConn{}

	SendHandshake(c, "abc")
	path, id, _ := c.last(t)
	ttesting.AssertEqualString(t, "handshake path", path, "plain")
	ttesting.AssertEqualString(t, "handshake id", id.String(), "HandShake")

	SendLogin(c, "user", "pass", AppVersion{0, 1, 2}, "")
	path, id, _ = c.last(t)
	ttesting.AssertEqualString(t, "login path", path, "tls")
	ttesting.AssertEqualString(t, "login id", id.String(), "Login")

	SendPing(c)
	path, _, _ = c.last(t)
	ttesting.AssertEqualString(t, "ping while plaintext", path, "plain")

	for _, state := range []anet.EncryptionState{anet.EncryptionWriteTransfering, anet.EncryptionReadWrite} {
		c.SetEncryptionState(state)
		SendPing(c)
		path, _, _ = c.last(t)
		ttesting.AssertEqualString(t, "ping while "+state.String(), path, "tls")
	}
}

func TestSendLoginPayload(t *testing.T) {
	c := &recordingConn{}
	if err := SendLogin(c, "alice", "hunter2", AppVersion{1, 2, 3}, "code"); err != nil {
		t.Fatalf("send login: %v", err)
	}
	_, _, m := c.last(t)
	user, _ := m.ReadString()
	pass, _ := m.ReadString()
	major, _ := m.ReadU16()
	minor, _ := m.ReadU16()
	patch, _ := m.ReadU16()
	code, err := m.ReadString()
	if err != nil {
		t.Fatalf("decoding login: %v", err)
	}
	ttesting.AssertEqualString(t, "user", user, "alice")
	ttesting.AssertEqualString(t, "pass", pass, "hunter2")
	ttesting.AssertEqualInt(t, "version", int(major)*100+int(minor)*10+int(patch), 123)
	ttesting.AssertEqualString(t, "reconnect code", code, "code")
	ttesting.AssertEqualInt(t, "remaining", m.Remaining(), 0)
}

func TestSendAttackOptionalTarget(t *testing.T) {
	c := &recordingConn{}
	target := Entity(99)
	SendAttack(c, 2, &target)
	_, _, m := c.last(t)
	m.ReadU8()
	got, err := anet.ReadOptional(m, readEntity)
	if err != nil || got == nil || *got != target {
		t.Errorf("target = %v, %v; want 99", got, err)
	}

	SendAttack(c, 2, nil)
	_, _, m = c.last(t)
	m.ReadU8()
	got, err = anet.ReadOptional(m, readEntity)
	if err != nil || got != nil {
		t.Errorf("target = %v, %v; want none", got, err)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	pos := Position{X: 3, Y: 4, Map: mapdata.Key{X: 0, Y: 1, Group: 2}}
	for _, want := range []Command{
		{Kind: CommandKickPlayer},
		{Kind: CommandKickPlayerByName, Name: "griefer"},
		{Kind: CommandWarpTo, Pos: pos},
		{Kind: CommandSpawnNpc, NpcIndex: 12, Pos: pos},
		{Kind: CommandTrade},
	} {
		c := &recordingConn{}
		if err := SendCommand(c, want); err != nil {
			t.Fatalf("send command: %v", err)
		}
		_, _, m := c.last(t)
		var got Command
		if err := got.DecodeFrom(m); err != nil {
			t.Fatalf("decode %+v: %v", want, err)
		}
		if got != want {
			t.Errorf("got %+v; want %+v", got, want)
		}
	}
}

func TestInvalidTags(t *testing.T) {
	m := anet.NewMessage()
	m.WriteTag(uint16(channelCount))
	var ch MessageChannel
	ttesting.AssertErrorIs(t, "channel", ch.DecodeFrom(m), anet.ErrDecode)

	m = anet.NewMessage()
	m.WriteTag(uint16(serverPacketCount) + 5)
	_, err := ReadServerPacketID(m)
	ttesting.AssertErrorIs(t, "server packet id", err, anet.ErrDecode)
}

func TestPacketNames(t *testing.T) {
	ttesting.AssertEqualInt(t, "client names", len(clientPacketNames), int(clientPacketCount))
	ttesting.AssertEqualInt(t, "server names", len(serverPacketNames), int(serverPacketCount))
	ttesting.AssertEqualString(t, "unknown", ServerPacketID(999).String(), "ServerPacketID(999)")
	ttesting.AssertEqualInt(t, "all server ids", len(ServerPacketIDs()), int(serverPacketCount))
}
