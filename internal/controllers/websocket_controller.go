package controllers

import (
	"net/http"

	"inspection-system/pkg/constants"
	"inspection-system/pkg/service"
	appwebsocket "inspection-system/pkg/websocket"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebSocketController struct {
	hub            *appwebsocket.Hub
	jwtService     service.JWTService
	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewWebSocketController: пустой allowedOrigins пропускает любой Origin.
func NewWebSocketController(hub *appwebsocket.Hub, jwtService service.JWTService, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	c := &WebSocketController{
		hub:            hub,
		jwtService:     jwtService,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	return c
}

func (c *WebSocketController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(c.allowedOrigins) == 0 {
		return true
	}
	return constants.Contains(c.allowedOrigins, origin) || constants.Contains(c.allowedOrigins, "*")
}

// ServeWs: браузер не умеет ставить заголовок Authorization при апгрейде,
// поэтому access-токен передаётся в ?token=.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	tokenString := ctx.QueryParam("token")
	if tokenString == "" {
		return ctx.String(http.StatusUnauthorized, "Missing token")
	}

	claims, err := c.jwtService.ValidateToken(tokenString)
	if err != nil || claims.IsRefreshToken {
		return ctx.String(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return err
	}

	client := appwebsocket.NewClient(c.hub, conn, claims.UserID)
	if err := client.Hub.Register(client); err != nil {
		c.logger.Warn("WebSocket: хаб остановлен, соединение закрыто", zap.Uint64("userID", claims.UserID))
		_ = conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("WebSocket: клиент подключен", zap.Uint64("userID", claims.UserID))
	return nil
}
