package handledata

import (
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/router"
)

// Handlers returns the handler of every server packet.
func Handlers() map[protocol.ServerPacketID]router.HandlerFunc {
	return map[protocol.ServerPacketID]router.HandlerFunc{
		protocol.ServerOnlineCheck:   HandleOnlineCheck,
		protocol.ServerAlertMsg:      HandleAlertMsg,
		protocol.ServerFltAlert:      HandleFltAlert,
		protocol.ServerHandShake:     HandleHandShake,
		protocol.ServerLoginOk:       HandleLoginOk,
		protocol.ServerMapSwitch:     HandleMapSwitch,
		protocol.ServerPlayerSpawn:   HandlePlayerSpawn,
		protocol.ServerPlayerMove:    HandlePlayerMove,
		protocol.ServerPlayerDir:     HandlePlayerDir,
		protocol.ServerEntityUnload:  HandleEntityUnload,
		protocol.ServerChatMsg:       HandleChatMsg,
		protocol.ServerFinishLoading: HandleFinishLoading,
		protocol.ServerClearData:     HandleClearData,
		protocol.ServerPing:          HandlePing,
	}
}

// Router returns the routing table the client starts with.
func Router(opts ...router.Option) *router.PacketRouter {
	return router.NewPacketRouter(Handlers(), opts...)
}
