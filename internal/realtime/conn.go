package realtime

// Conn is one live realtime connection. Implementations wrap the underlying
// websocket; Send must be safe for concurrent use by the gateway.
type Conn interface {
	Send(event string, payload any) error
	Close() error
}

// Wire event names pushed to clients.
const (
	EventNotificationNew    = "notification:new"
	EventNotificationUpdate = "notification:update"
	EventNotificationCount  = "notification:count"
	EventChatMessage        = "chat:message"
)

// Namespaces served by the gateways.
const (
	NamespaceNotifications = "notifications"
	NamespaceChat          = "chat"
)

// Envelope is the JSON frame written to websocket clients.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
