package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	PublishToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

// Session event types published to the WebSocket feed
const (
	EventTick    = "tick"
	EventTimeUp  = "time_up"
	EventScored  = "scored"
	EventScoring = "scoring"
)
