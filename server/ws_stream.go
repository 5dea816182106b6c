package server

import (
	"context"
	"net/http"

	"RaspCD/core/hub"
	"RaspCD/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket 升级连接并注册到 Hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.deps.Hub == nil {
		http.Error(w, "notifications not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := hub.NewClient(s.deps.Hub, conn)
	s.deps.Hub.Register(client)

	handler := s.deps.Commands
	if handler == nil {
		handler = func(ctx context.Context, c *hub.Client, msg *hub.Message) {
			c.SendMessage(hub.MsgTypeError, map[string]string{"message": "commands not supported"})
		}
	}

	go client.WritePump()
	client.ReadPump(context.Background(), handler)
}
