package notifications

import (
	"context"

	"github.com/goalmates-app/goalmates-backend/internal/realtime"
	"github.com/google/uuid"
)

// EventSink delivers notification events to a receiver's live connections.
// Delivery is best effort; offline receivers simply miss the event.
type EventSink interface {
	NotificationNew(ctx context.Context, receiverID uuid.UUID, summary Summary)
	NotificationUpdate(ctx context.Context, receiverID uuid.UUID, summary Summary)
	NotificationCount(ctx context.Context, receiverID uuid.UUID, count int64)
}

type gatewayEvents struct {
	gateway *realtime.Gateway
}

// NewGatewayEvents adapts the notifications websocket gateway into an
// EventSink.
func NewGatewayEvents(gateway *realtime.Gateway) EventSink {
	return &gatewayEvents{gateway: gateway}
}

func (s *gatewayEvents) NotificationNew(ctx context.Context, receiverID uuid.UUID, summary Summary) {
	s.gateway.EmitToUser(ctx, receiverID, realtime.EventNotificationNew, summary)
}

func (s *gatewayEvents) NotificationUpdate(ctx context.Context, receiverID uuid.UUID, summary Summary) {
	s.gateway.EmitToUser(ctx, receiverID, realtime.EventNotificationUpdate, summary)
}

func (s *gatewayEvents) NotificationCount(ctx context.Context, receiverID uuid.UUID, count int64) {
	s.gateway.EmitToUser(ctx, receiverID, realtime.EventNotificationCount, CountPayload{Count: count})
}
