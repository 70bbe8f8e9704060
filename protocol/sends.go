package protocol

// This file contains one function per client packet, transmitting it over
// the passed connection.

import (
	"github.com/pkg/errors"

	anet "badc0de.net/pkg/go-ascending/net"
)

// Sender is the send side of a connection.
type Sender interface {
	Send(*anet.Message) error
	TLSSend(*anet.Message) error
	EncryptionState() anet.EncryptionState
}

// Conn is a connection whose encryption state the application drives.
// *net.Socket implements it.
type Conn interface {
	Sender
	SetEncryptionState(anet.EncryptionState)
}

// AppVersion is the client version reported on register and login.
type AppVersion struct {
	Major, Minor, Patch uint16
}

func (v AppVersion) EncodeTo(m *anet.Message) {
	m.WriteU16(v.Major)
	m.WriteU16(v.Minor)
	m.WriteU16(v.Patch)
}

func finish(m *anet.Message, id ClientPacketID) error {
	return errors.Wrapf(m.Finish(), "finishing %s", id)
}

func sendPlain(s Sender, id ClientPacketID, m *anet.Message) error {
	if err := finish(m, id); err != nil {
		return err
	}
	return errors.Wrapf(s.Send(m), "sending %s", id)
}

func sendSecure(s Sender, id ClientPacketID, m *anet.Message) error {
	if err := finish(m, id); err != nil {
		return err
	}
	return errors.Wrapf(s.TLSSend(m), "sending %s", id)
}

// sendByState picks the send path from the connection's current state.
func sendByState(s Sender, id ClientPacketID, m *anet.Message) error {
	if s.EncryptionState().Secure() {
		return sendSecure(s, id, m)
	}
	return sendPlain(s, id, m)
}

func SendRegister(s Sender, username, password, email string, sprite uint8, version AppVersion) error {
	m := newClientPacket(ClientRegister)
	m.WriteString(username)
	m.WriteString(password)
	m.WriteString(email)
	m.WriteU8(sprite)
	version.EncodeTo(m)
	return sendSecure(s, ClientRegister, m)
}

func SendLogin(s Sender, username, password string, version AppVersion, reconnectCode string) error {
	m := newClientPacket(ClientLogin)
	m.WriteString(username)
	m.WriteString(password)
	version.EncodeTo(m)
	m.WriteString(reconnectCode)
	return sendSecure(s, ClientLogin, m)
}

// SendHandshake answers the server handshake. It always goes out in
// plaintext, since it is what starts the transition to the secure channel.
func SendHandshake(s Sender, code string) error {
	m := newClientPacket(ClientHandShake)
	m.WriteString(code)
	return sendPlain(s, ClientHandShake, m)
}

func SendMove(s Sender, dir uint8, pos Position) error {
	m := newClientPacket(ClientMove)
	m.WriteU8(dir)
	pos.EncodeTo(m)
	return sendByState(s, ClientMove, m)
}

func SendDir(s Sender, dir uint8) error {
	m := newClientPacket(ClientDir)
	m.WriteU8(dir)
	return sendByState(s, ClientDir, m)
}

func SendAttack(s Sender, dir uint8, target *Entity) error {
	m := newClientPacket(ClientAttack)
	m.WriteU8(dir)
	anet.WriteOptional(m, target, writeEntity)
	return sendByState(s, ClientAttack, m)
}

func SendUseItem(s Sender, slot uint16) error {
	m := newClientPacket(ClientUseItem)
	m.WriteU16(slot)
	return sendByState(s, ClientUseItem, m)
}

func SendUnequip(s Sender, slot uint16) error {
	m := newClientPacket(ClientUnequip)
	m.WriteU16(slot)
	return sendByState(s, ClientUnequip, m)
}

func SendSwitchInvSlot(s Sender, oldSlot, newSlot, amount uint16) error {
	m := newClientPacket(ClientSwitchInvSlot)
	m.WriteU16(oldSlot)
	m.WriteU16(newSlot)
	m.WriteU16(amount)
	return sendByState(s, ClientSwitchInvSlot, m)
}

func SendPickUp(s Sender) error {
	return sendByState(s, ClientPickUp, newClientPacket(ClientPickUp))
}

func SendDropItem(s Sender, slot, amount uint16) error {
	m := newClientPacket(ClientDropItem)
	m.WriteU16(slot)
	m.WriteU16(amount)
	return sendByState(s, ClientDropItem, m)
}

func SendDeleteItem(s Sender, slot uint16) error {
	m := newClientPacket(ClientDeleteItem)
	m.WriteU16(slot)
	return sendByState(s, ClientDeleteItem, m)
}

func SendSwitchStorageSlot(s Sender, oldSlot, newSlot, amount uint16) error {
	m := newClientPacket(ClientSwitchStorageSlot)
	m.WriteU16(oldSlot)
	m.WriteU16(newSlot)
	m.WriteU16(amount)
	return sendByState(s, ClientSwitchStorageSlot, m)
}

func SendDeleteStorageItem(s Sender, slot uint16) error {
	m := newClientPacket(ClientDeleteStorageItem)
	m.WriteU16(slot)
	return sendByState(s, ClientDeleteStorageItem, m)
}

func SendDepositItem(s Sender, invSlot, bankSlot, amount uint16) error {
	m := newClientPacket(ClientDepositItem)
	m.WriteU16(invSlot)
	m.WriteU16(bankSlot)
	m.WriteU16(amount)
	return sendByState(s, ClientDepositItem, m)
}

func SendWithdrawItem(s Sender, invSlot, bankSlot, amount uint16) error {
	m := newClientPacket(ClientWithdrawItem)
	m.WriteU16(invSlot)
	m.WriteU16(bankSlot)
	m.WriteU16(amount)
	return sendByState(s, ClientWithdrawItem, m)
}

// SendMessage sends a chat message. name is the whisper target and is
// empty for every other channel.
func SendMessage(s Sender, channel MessageChannel, msg, name string) error {
	m := newClientPacket(ClientMessage)
	channel.EncodeTo(m)
	m.WriteString(msg)
	m.WriteString(name)
	return sendByState(s, ClientMessage, m)
}

func SendCommand(s Sender, cmd Command) error {
	m := newClientPacket(ClientCommand)
	cmd.EncodeTo(m)
	return sendByState(s, ClientCommand, m)
}

func SendSetTarget(s Sender, target *Entity) error {
	m := newClientPacket(ClientSetTarget)
	anet.WriteOptional(m, target, writeEntity)
	return sendByState(s, ClientSetTarget, m)
}

func SendCloseStorage(s Sender) error {
	return sendByState(s, ClientCloseStorage, newClientPacket(ClientCloseStorage))
}

func SendCloseShop(s Sender) error {
	return sendByState(s, ClientCloseShop, newClientPacket(ClientCloseShop))
}

func SendCloseTrade(s Sender) error {
	return sendByState(s, ClientCloseTrade, newClientPacket(ClientCloseTrade))
}

func SendBuyItem(s Sender, slot uint16) error {
	m := newClientPacket(ClientBuyItem)
	m.WriteU16(slot)
	return sendByState(s, ClientBuyItem, m)
}

func SendSellItem(s Sender, slot, amount uint16) error {
	m := newClientPacket(ClientSellItem)
	m.WriteU16(slot)
	m.WriteU16(amount)
	return sendByState(s, ClientSellItem, m)
}

func SendAddTradeItem(s Sender, slot, amount uint16) error {
	m := newClientPacket(ClientAddTradeItem)
	m.WriteU16(slot)
	m.WriteU16(amount)
	return sendByState(s, ClientAddTradeItem, m)
}

func SendRemoveTradeItem(s Sender, slot uint16, amount uint64) error {
	m := newClientPacket(ClientRemoveTradeItem)
	m.WriteU16(slot)
	m.WriteU64(amount)
	return sendByState(s, ClientRemoveTradeItem, m)
}

func SendUpdateTradeMoney(s Sender, amount uint64) error {
	m := newClientPacket(ClientUpdateTradeMoney)
	m.WriteU64(amount)
	return sendByState(s, ClientUpdateTradeMoney, m)
}

func SendSubmitTrade(s Sender) error {
	return sendByState(s, ClientSubmitTrade, newClientPacket(ClientSubmitTrade))
}

func SendAcceptTrade(s Sender) error {
	return sendByState(s, ClientAcceptTrade, newClientPacket(ClientAcceptTrade))
}

func SendDeclineTrade(s Sender) error {
	return sendByState(s, ClientDeclineTrade, newClientPacket(ClientDeclineTrade))
}

// SendOnlineCheck tells the server the client is still there.
func SendOnlineCheck(s Sender) error {
	m := newClientPacket(ClientOnlineCheck)
	m.WriteU64(0)
	return sendByState(s, ClientOnlineCheck, m)
}

// SendPing starts a latency measurement; the server answers with its own
// Ping packet.
func SendPing(s Sender) error {
	m := newClientPacket(ClientPing)
	m.WriteU64(0)
	return sendByState(s, ClientPing, m)
}
