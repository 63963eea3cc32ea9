package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
)

// WebSocket keepalive timings, following the ping/pong discipline
// every gorilla/websocket consumer in the pack uses
// (teranos-QNTX/server/client.go): pings go out well inside the pong
// deadline so a single missed round trip doesn't drop the connection.
const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamEvents upgrades to a WebSocket and relays fan-out bus events
// matching the query-string filter (?script_id=, ?types=run.stdout,run.stderr)
// until the client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		common.GetLogger().Sugar().Warnw("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe(parseEventFilter(c))
	defer s.bus.Unsubscribe(sub)

	go s.pumpWrites(conn, sub)
	s.pumpReads(conn)
}

func (s *Server) pumpReads(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) pumpWrites(conn *websocket.Conn, sub *fanout.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseEventFilter(c *gin.Context) fanout.Filter {
	var f fanout.Filter
	if sid := c.Query("script_id"); sid != "" {
		if id, err := parseUintQuery(sid); err == nil {
			f.ScriptID = &id
		}
	}
	return f
}
