package service

// Broadcaster is the outbound channel to a room's subscribers (avoids an
// import cycle with the WebSocket transport, which implements it). Delivery is
// fire-and-forget: a slow subscriber never blocks the state mutation that
// produced the event.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event string, payload any)
	BroadcastToPlayer(roomCode, playerID string, event string, payload any)
	DisconnectRoom(roomCode string)
}

// nopBroadcaster stands in until the transport is wired.
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToRoom(string, string, any)           {}
func (nopBroadcaster) BroadcastToPlayer(string, string, string, any) {}
func (nopBroadcaster) DisconnectRoom(string)                         {}
