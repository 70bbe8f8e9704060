// Package protocol defines the packet identifiers and wire types shared with
// the server, and the functions transmitting each client packet.
//
// Identifier N must mean the same thing on both ends; never reorder the
// constants below, only append.
package protocol

import (
	"fmt"

	anet "badc0de.net/pkg/go-ascending/net"
)

// ClientPacketID identifies a packet sent by the client.
type ClientPacketID uint16

const (
	ClientOnlineCheck ClientPacketID = iota
	ClientRegister
	ClientLogin
	ClientHandShake
	ClientMove
	ClientDir
	ClientAttack
	ClientUseItem
	ClientUnequip
	ClientSwitchInvSlot
	ClientPickUp
	ClientDropItem
	ClientDeleteItem
	ClientSwitchStorageSlot
	ClientDeleteStorageItem
	ClientDepositItem
	ClientWithdrawItem
	ClientMessage
	ClientCommand
	ClientSetTarget
	ClientCloseStorage
	ClientCloseShop
	ClientCloseTrade
	ClientBuyItem
	ClientSellItem
	ClientAddTradeItem
	ClientRemoveTradeItem
	ClientUpdateTradeMoney
	ClientSubmitTrade
	ClientAcceptTrade
	ClientDeclineTrade
	ClientPing

	clientPacketCount
)

var clientPacketNames = [...]string{
	"OnlineCheck", "Register", "Login", "HandShake", "Move", "Dir", "Attack",
	"UseItem", "Unequip", "SwitchInvSlot", "PickUp", "DropItem", "DeleteItem",
	"SwitchStorageSlot", "DeleteStorageItem", "DepositItem", "WithdrawItem",
	"Message", "Command", "SetTarget", "CloseStorage", "CloseShop",
	"CloseTrade", "BuyItem", "SellItem", "AddTradeItem", "RemoveTradeItem",
	"UpdateTradeMoney", "SubmitTrade", "AcceptTrade", "DeclineTrade", "Ping",
}

func (id ClientPacketID) String() string {
	if id < clientPacketCount {
		return clientPacketNames[id]
	}
	return fmt.Sprintf("ClientPacketID(%d)", uint16(id))
}

// ServerPacketID identifies a packet sent by the server.
type ServerPacketID uint16

const (
	ServerOnlineCheck ServerPacketID = iota
	ServerAlertMsg
	ServerFltAlert
	ServerHandShake
	ServerLoginOk
	ServerMapSwitch
	ServerPlayerSpawn
	ServerPlayerMove
	ServerPlayerDir
	ServerEntityUnload
	ServerChatMsg
	ServerFinishLoading
	ServerClearData
	ServerPing

	serverPacketCount
)

var serverPacketNames = [...]string{
	"OnlineCheck", "AlertMsg", "FltAlert", "HandShake", "LoginOk",
	"MapSwitch", "PlayerSpawn", "PlayerMove", "PlayerDir", "EntityUnload",
	"ChatMsg", "FinishLoading", "ClearData", "Ping",
}

func (id ServerPacketID) String() string {
	if id < serverPacketCount {
		return serverPacketNames[id]
	}
	return fmt.Sprintf("ServerPacketID(%d)", uint16(id))
}

// ServerPacketIDs lists every server packet identifier in ordinal order.
func ServerPacketIDs() []ServerPacketID {
	ids := make([]ServerPacketID, serverPacketCount)
	for i := range ids {
		ids[i] = ServerPacketID(i)
	}
	return ids
}

// ReadServerPacketID decodes a server packet identifier.
func ReadServerPacketID(m *anet.Message) (ServerPacketID, error) {
	tag, err := m.ReadTag(uint16(serverPacketCount), "server packet id")
	return ServerPacketID(tag), err
}

// ReadClientPacketID decodes a client packet identifier. The client never
// receives these; servers and test doubles do.
func ReadClientPacketID(m *anet.Message) (ClientPacketID, error) {
	tag, err := m.ReadTag(uint16(clientPacketCount), "client packet id")
	return ClientPacketID(tag), err
}

// NewServerPacket starts a server packet. Used by test doubles and tooling
// that speak the server side of the protocol.
func NewServerPacket(id ServerPacketID) *anet.Message {
	m := anet.NewPacket()
	m.WriteU16(uint16(id))
	return m
}

func newClientPacket(id ClientPacketID) *anet.Message {
	m := anet.NewPacket()
	m.WriteU16(uint16(id))
	return m
}
