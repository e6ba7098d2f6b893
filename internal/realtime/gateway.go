package realtime

import (
	"context"
	"strings"

	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/goalmates-app/goalmates-backend/pkg/metrics"
	"github.com/google/uuid"
)

// TokenVerifier resolves a bearer credential to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// EligibilityFunc gates a verified identity at connect time. Returning an
// error denies the connection; eligibility is not re-evaluated afterwards,
// so a flag flip does not disconnect live sessions.
type EligibilityFunc func(ctx context.Context, userID uuid.UUID) error

// Handshake carries the credential sources offered by a connection attempt.
type Handshake struct {
	Authorization string
	AuthToken     string
	QueryToken    string
}

// BearerToken extracts the credential, preferring the Authorization header,
// then the auth handshake field, then the query parameter.
func (h Handshake) BearerToken() string {
	header := strings.TrimSpace(h.Authorization)
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		if token := strings.TrimSpace(header[7:]); token != "" {
			return token
		}
	}
	if token := strings.TrimSpace(h.AuthToken); token != "" {
		return token
	}
	return strings.TrimSpace(h.QueryToken)
}

// GatewayParams wires a namespace gateway.
type GatewayParams struct {
	Namespace   string
	Verifier    TokenVerifier
	Eligibility EligibilityFunc
	Logger      *logger.Logger
	Metrics     *metrics.RealtimeMetrics
}

// Gateway authenticates realtime connections for one namespace and owns its
// registry; no other component mutates or reads the connection map.
type Gateway struct {
	namespace string
	registry  *Registry
	verifier  TokenVerifier
	eligible  EligibilityFunc
	logg      *logger.Logger
	metrics   *metrics.RealtimeMetrics
}

func NewGateway(params GatewayParams) (*Gateway, error) {
	if params.Namespace == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway namespace required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway token verifier required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway logger required")
	}
	return &Gateway{
		namespace: params.Namespace,
		registry:  NewRegistry(),
		verifier:  params.Verifier,
		eligible:  params.Eligibility,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

func (g *Gateway) Namespace() string {
	return g.namespace
}

// HandleConnect authenticates the connection attempt. On success the
// connection is registered and the resolved user id returned; on any
// failure the connection is closed without an error payload and the
// registry is left untouched.
func (g *Gateway) HandleConnect(ctx context.Context, conn Conn, hs Handshake) (uuid.UUID, error) {
	logCtx := g.logg.WithNamespace(ctx, g.namespace)

	token := hs.BearerToken()
	if token == "" {
		g.reject(logCtx, conn, "connection rejected: missing credentials", nil)
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	userID, err := g.verifier.VerifyToken(token)
	if err != nil {
		g.reject(logCtx, conn, "connection rejected: invalid token", err)
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	if g.eligible != nil {
		if err := g.eligible(ctx, userID); err != nil {
			logCtx = g.logg.WithUserID(logCtx, userID.String())
			g.reject(logCtx, conn, "connection rejected: user not eligible", err)
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "user not eligible")
		}
	}

	g.registry.Add(userID, conn)
	g.metrics.SetConnections(g.namespace, g.registry.ConnCount())

	logCtx = g.logg.WithUserID(logCtx, userID.String())
	g.logg.Debug(logCtx, "realtime client connected")
	return userID, nil
}

// HandleDisconnect unregisters the connection. Connections that never
// authenticated carry uuid.Nil and are ignored.
func (g *Gateway) HandleDisconnect(ctx context.Context, userID uuid.UUID, conn Conn) {
	if userID == uuid.Nil {
		return
	}
	g.registry.Remove(userID, conn)
	g.metrics.SetConnections(g.namespace, g.registry.ConnCount())

	logCtx := g.logg.WithNamespace(ctx, g.namespace)
	logCtx = g.logg.WithUserID(logCtx, userID.String())
	g.logg.Debug(logCtx, "realtime client disconnected")
}

// EmitToUser delivers the event to every live connection of the user.
// Delivery is best-effort: no live connections is a silent no-op and write
// failures are logged, never propagated.
func (g *Gateway) EmitToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	conns := g.registry.ConnsFor(userID)
	if len(conns) == 0 {
		return
	}
	for _, conn := range conns {
		g.write(ctx, conn, event, payload)
	}
	g.metrics.IncEvent(g.namespace, event)
}

// EmitToUsers de-duplicates the id list and emits to each user.
func (g *Gateway) EmitToUsers(ctx context.Context, userIDs []uuid.UUID, event string, payload any) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		g.EmitToUser(ctx, userID, event, payload)
	}
}

// EmitToAll broadcasts the event to every connection across every user.
func (g *Gateway) EmitToAll(ctx context.Context, event string, payload any) {
	for _, conn := range g.registry.AllConns() {
		g.write(ctx, conn, event, payload)
	}
	g.metrics.IncEvent(g.namespace, event)
}

// ConnectedUsers reports how many users currently hold live connections.
func (g *Gateway) ConnectedUsers() int {
	return g.registry.UserCount()
}

// HasUser reports whether the user currently holds a live connection.
func (g *Gateway) HasUser(userID uuid.UUID) bool {
	return g.registry.HasUser(userID)
}

func (g *Gateway) write(ctx context.Context, conn Conn, event string, payload any) {
	if err := conn.Send(event, payload); err != nil {
		logCtx := g.logg.WithNamespace(ctx, g.namespace)
		logCtx = g.logg.WithField(logCtx, "event", event)
		g.logg.Warn(g.logg.WithField(logCtx, "reason", err.Error()), "realtime emit failed")
	}
}

func (g *Gateway) reject(ctx context.Context, conn Conn, msg string, err error) {
	if err != nil {
		ctx = g.logg.WithField(ctx, "reason", err.Error())
	}
	g.logg.Warn(ctx, msg)
	_ = conn.Close()
}
