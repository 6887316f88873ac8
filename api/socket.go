/*
socket.go - WebSocket connection handler

PURPOSE:
  Owns the transport loop for one client connection: upgrade, read a
  text frame, dispatch it, write the response. Messages on one
  connection are processed strictly in arrival order, one in flight at
  a time; connections are served independently of each other.

FAILURE POLICY:
  Message-level failures (bad JSON, unknown tag, domain errors) are
  answered with common_error_response and the connection lives on.
  Transport-level I/O failure ends the session.
*/
package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS middleware in front of the
	// upgrade; browser clients on other origins never reach this point.
	CheckOrigin: func(*http.Request) bool { return true },
}

// HandleSocket upgrades the request and runs the connection loop until
// the peer disconnects or the transport fails.
func (rt *Router) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	log.Printf("api: connection from %s", r.RemoteAddr)
	rt.serve(r.Context(), conn)
	log.Printf("api: connection from %s closed", r.RemoteAddr)
}

func (rt *Router) serve(ctx context.Context, conn *websocket.Conn) {
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("api: read: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			// The protocol is JSON text; other frame types are ignored.
			continue
		}

		resp := rt.Dispatch(ctx, raw)
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("api: write: %v", err)
			return
		}
	}
}
