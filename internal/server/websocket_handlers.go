// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles GET /api/ws. Authentication and the realtime
// feature gate run as route middleware before the upgrade.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		// The event stream is server-to-client; incoming frames only keep the
		// connection alive.
		go client.WritePump()
		client.ReadPump()
	})
}
